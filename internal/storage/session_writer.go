package storage

import (
	"context"
	"fmt"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// SessionWriter binds a Store to one session. It records invocation outcomes as they
// arrive and collects result rows, which are stored in a single transaction by Flush.
type SessionWriter struct {
	store     Store
	sessionID int64
	rows      []teb.Row
}

// NewSessionWriter creates a session for modulation and returns a writer bound to it
func NewSessionWriter(ctx context.Context, store Store, modulation teb.Modulation, config any) (*SessionWriter, error) {
	sessionID, err := store.CreateSession(ctx, modulation, config)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &SessionWriter{store: store, sessionID: sessionID}, nil
}

func (w *SessionWriter) SessionID() int64 {
	return w.sessionID
}

func (w *SessionWriter) RecordOutcome(ctx context.Context, outcome teb.Outcome) error {
	return w.store.StoreInvocation(ctx, w.sessionID, outcome)
}

// WriteRow buffers the row until Flush
func (w *SessionWriter) WriteRow(row teb.Row) error {
	w.rows = append(w.rows, row)
	return nil
}

// Flush stores the buffered rows. Rows are kept in the buffer if storing fails.
func (w *SessionWriter) Flush(ctx context.Context) error {
	if err := w.store.StoreRows(ctx, w.sessionID, w.rows); err != nil {
		return fmt.Errorf("storing rows of session %d: %w", w.sessionID, err)
	}
	w.rows = w.rows[:0]
	return nil
}
