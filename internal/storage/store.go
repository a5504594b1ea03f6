package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// Store provides an interface for persisting TEB sweeps. It handles sessions,
// invocation outcomes and result rows. All operations that write to the database
// should be considered atomic.
type Store interface {
	// CreateSession initializes a new sweep session and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - modulation: Modulation swept in this session
	//   - config: Optional sweep configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, modulation teb.Modulation, config any) (sessionID int64, err error)

	// Session retrieves a specific sweep session by its ID.
	//
	// Returns:
	//   - session: Pointer to session data
	//   - error: If retrieval fails, the session does not exist or context is cancelled
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all sweep sessions stored in the database,
	// ordered by start time in ascending order.
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// StoreInvocation saves the outcome of a single simulator invocation,
	// successful or not.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - sessionID: ID of the session this invocation belongs to
	//   - outcome: Invocation parameters with either its TEB or the failure reason
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreInvocation(ctx context.Context, sessionID int64, outcome teb.Outcome) error

	// Invocations returns all invocation outcomes of a session ordered by SNR.
	Invocations(ctx context.Context, sessionID int64) ([]*InvocationRecord, error)

	// StoreRows saves result rows of a session in a single atomic transaction.
	//
	// Returns:
	//   - error: If storage fails, an SNR value is stored twice or context is cancelled
	StoreRows(ctx context.Context, sessionID int64, rows []teb.Row) error

	// Rows returns the result rows of a session ordered by SNR.
	Rows(ctx context.Context, sessionID int64, opts ...ReaderOption) ([]teb.Row, error)

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}
