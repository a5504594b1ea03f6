package storage

import (
	"database/sql"
	"time"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// Session is one sweep of a single modulation
type Session struct {
	ID         int64
	StartTime  time.Time
	Modulation teb.Modulation
	Config     *string // JSON, as passed to CreateSession
}

// InvocationRecord is a stored simulator invocation outcome
type InvocationRecord struct {
	ID            int64
	SessionID     int64
	SNR           float64
	Codeur        bool
	Repetition    int
	MessageLength int
	TEB           *float64 // nil when the invocation failed
	Error         *string  // Failure reason
	Duration      time.Duration
}

// Failed reports whether the invocation produced no value
func (r *InvocationRecord) Failed() bool {
	return r.Error != nil
}

type invocationData struct {
	SessionID     int64
	SNR           float64
	Codeur        bool
	Repetition    int
	MessageLength int
	TEB           sql.NullFloat64
	Error         sql.NullString
	DurationMS    int64
}

type resultData struct {
	SNR           float64
	TEBWithout    float64
	TEBWithCodeur float64
}
