package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// ErrNoData indicates that the session has no result rows.
var ErrNoData = errors.New("no data available")

// RowReader provides an iterator-based interface for reading the result rows of a
// session with optional SNR filtering. Rows are returned in ascending SNR order.
type RowReader interface {
	// Session returns metadata about the sweep session this reader is accessing.
	Session() *Session

	// Next advances the iterator and returns true if there is another row
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current row in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *teb.Row

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

// ReaderOption configures a SqliteRowReader with specific filtering criteria.
type ReaderOption func(*SqliteRowReader)

// WithMinSNR excludes rows with an SNR below snr.
func WithMinSNR(snr float64) ReaderOption {
	return func(r *SqliteRowReader) {
		r.minSNR = &snr
	}
}

// WithMaxSNR excludes rows with an SNR above snr.
func WithMaxSNR(snr float64) ReaderOption {
	return func(r *SqliteRowReader) {
		r.maxSNR = &snr
	}
}

// WithSNRRange is equivalent to applying both WithMinSNR and WithMaxSNR.
func WithSNRRange(minSNR, maxSNR float64) ReaderOption {
	return func(r *SqliteRowReader) {
		r.minSNR = &minSNR
		r.maxSNR = &maxSNR
	}
}

func newSqliteRowReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*SqliteRowReader, error) {
	rr := &SqliteRowReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(rr)
	}
	if err := rr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return rr, nil
}

// SqliteRowReader implements RowReader for SQLite database backend.
type SqliteRowReader struct {
	db *sql.DB

	sessionID int64
	session   *Session

	minSNR *float64 // Optional lower bound filter
	maxSNR *float64 // Optional upper bound filter

	current *teb.Row
	rows    *sql.Rows
	err     error
}

func (rr *SqliteRowReader) init(ctx context.Context) error {
	if rr.db == nil {
		return errors.New("database connection required")
	}
	if rr.sessionID <= 0 {
		return errors.New("session ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: rr.loadSession},
		{msg: "initializing filters", fn: rr.initFilters},
		{msg: "initializing query", fn: rr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (rr *SqliteRowReader) loadSession(ctx context.Context) (err error) {
	rr.session, err = loadSession(ctx, rr.db, rr.sessionID)
	return
}

func (rr *SqliteRowReader) initFilters(ctx context.Context) (err error) {
	if rr.minSNR != nil && rr.maxSNR != nil {
		if *rr.minSNR > *rr.maxSNR {
			return fmt.Errorf("min SNR %g is greater than max SNR %g", *rr.minSNR, *rr.maxSNR)
		}
		return nil
	}

	stmt, err := rr.db.PrepareContext(ctx, selectSNRRangeSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var minSNR, maxSNR sql.NullFloat64
	if err = stmt.QueryRowContext(ctx, rr.sessionID).Scan(&minSNR, &maxSNR); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}
	if !minSNR.Valid || !maxSNR.Valid {
		return ErrNoData
	}

	if rr.minSNR == nil {
		rr.minSNR = &minSNR.Float64
	}
	if rr.maxSNR == nil {
		rr.maxSNR = &maxSNR.Float64
	}

	return nil
}

func (rr *SqliteRowReader) initQuery(ctx context.Context) (err error) {
	stmt, err := rr.db.PrepareContext(ctx, selectResultsSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	rr.rows, err = stmt.QueryContext(ctx, rr.sessionID, *rr.minSNR, *rr.maxSNR)
	return err
}

func (rr *SqliteRowReader) Session() *Session {
	return rr.session
}

func (rr *SqliteRowReader) Next(ctx context.Context) bool {
	if rr.err != nil || rr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		rr.err = ctx.Err()
		return false
	default:
	}

	if !rr.rows.Next() {
		return false
	}

	var data resultData
	if rr.err = rr.rows.Scan(&data.SNR, &data.TEBWithout, &data.TEBWithCodeur); rr.err != nil {
		rr.err = fmt.Errorf("scanning row: %w", rr.err)
		return false
	}

	rr.current = &teb.Row{
		Modulation:    rr.session.Modulation,
		SNR:           data.SNR,
		TEBWithout:    data.TEBWithout,
		TEBWithCodeur: data.TEBWithCodeur,
	}
	return true
}

func (rr *SqliteRowReader) Current() *teb.Row {
	return rr.current
}

func (rr *SqliteRowReader) Error() error {
	if rr.err != nil {
		return rr.err
	}
	if rr.rows != nil {
		return rr.rows.Err()
	}
	return nil
}

func (rr *SqliteRowReader) Close() error {
	if rr.rows != nil {
		err := rr.rows.Close()
		rr.current = nil
		rr.rows = nil
		return err
	}
	return nil
}
