package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened lazily, the schema is created with the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // single writer

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, modulation teb.Modulation, config any) (sessionID int64, err error) {
	if err = modulation.Validate(); err != nil {
		return
	}

	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, time.Now().UTC(), modulation.String(), configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	return loadSession(ctx, db, id)
}

func loadSession(ctx context.Context, db *sql.DB, id int64) (session *Session, err error) {
	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	session, err = scanSession(stmt.QueryRowContext(ctx, id))
	if err != nil {
		err = fmt.Errorf("scanning session %d: %w", id, err)
	}
	return
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess *Session
		if sess, err = scanSession(rows); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, sess)
	}
	err = rows.Err()
	return
}

func scanSession(row interface{ Scan(dest ...any) error }) (*Session, error) {
	var sess Session
	var modulation string
	var config sql.NullString
	if err := row.Scan(&sess.ID, &sess.StartTime, &modulation, &config); err != nil {
		return nil, err
	}

	sess.Modulation = teb.Modulation(modulation)
	if config.Valid {
		sess.Config = &config.String
	}
	return &sess, nil
}

func (s *SqliteStore) StoreInvocation(ctx context.Context, sessionID int64, outcome teb.Outcome) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	data := toInvocationData(sessionID, outcome)

	_, err = db.ExecContext(
		ctx,
		insertInvocationSQL,
		data.SessionID,
		data.SNR,
		data.Codeur,
		data.Repetition,
		data.MessageLength,
		data.TEB,
		data.Error,
		data.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting invocation: %w", err)
	}
	return nil
}

func (s *SqliteStore) Invocations(ctx context.Context, sessionID int64) (records []*InvocationRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectInvocationsSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying invocations: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data invocationData
		r := InvocationRecord{SessionID: sessionID}

		if err = rows.Scan(&r.ID, &data.SNR, &data.Codeur, &data.Repetition, &data.MessageLength, &data.TEB, &data.Error, &data.DurationMS); err != nil {
			err = fmt.Errorf("scanning invocation: %w", err)
			return
		}

		r.SNR = data.SNR
		r.Codeur = data.Codeur
		r.Repetition = data.Repetition
		r.MessageLength = data.MessageLength
		r.Duration = time.Duration(data.DurationMS) * time.Millisecond
		if data.TEB.Valid {
			r.TEB = &data.TEB.Float64
		}
		if data.Error.Valid {
			r.Error = &data.Error.String
		}

		records = append(records, &r)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreRows(ctx context.Context, sessionID int64, rows []teb.Row) (err error) {
	if len(rows) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]interface{}, 0, len(rows)*4)
	valuesPlaceholder := "(?, ?, ?, ?)"

	var sb strings.Builder

	sb.WriteString(insertResultSQL)

	for i, row := range rows {
		data := toResultData(row)
		values = append(values,
			sessionID,
			data.SNR,
			data.TEBWithout,
			data.TEBWithCodeur,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting results: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ReadRows creates a RowReader over the result rows of a session. The reader must be
// closed after use to release database resources.
func (s *SqliteStore) ReadRows(ctx context.Context, sessionID int64, opts ...ReaderOption) (*SqliteRowReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteRowReader(ctx, db, sessionID, opts...)
}

func (s *SqliteStore) Rows(ctx context.Context, sessionID int64, opts ...ReaderOption) (rows []teb.Row, err error) {
	reader, err := s.ReadRows(ctx, sessionID, opts...)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closeWithError(reader, &err)

	for reader.Next(ctx) {
		rows = append(rows, *reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return rows, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
