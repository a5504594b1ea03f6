package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/teb-sweep/internal/results"
	"github.com/roman-kulish/teb-sweep/internal/storage"
	"github.com/roman-kulish/teb-sweep/internal/sweep"
	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// ErrTooManyFailures is returned when a modulation dropped more rows than allowed
var ErrTooManyFailures = errors.New("too many failed simulations")

// WithStore persists every sweep as a session of store
func WithStore(store storage.Store) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithProgress prints the progress line of every sweep to w
func WithProgress(w io.Writer) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.progress = w
	}
}

// Orchestrator runs the sweeps of all configured modulations one after another,
// writing a result file per modulation and, optionally, a store session.
type Orchestrator struct {
	config  *Config
	invoker sweep.Invoker
	logger  *slog.Logger

	store    storage.Store
	progress io.Writer
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(config *Config, invoker sweep.Invoker, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		config:  config,
		invoker: invoker,
		logger:  logger,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// ResultPath returns the result file of a modulation: <dir>/resultats_<MOD>.csv
func ResultPath(dir string, modulation teb.Modulation) string {
	return filepath.Join(dir, fmt.Sprintf("resultats_%s.csv", modulation))
}

// Run sweeps every modulation. A modulation whose drop rate exceeds the configured
// maximum does not stop the remaining ones, it is reported once all have finished.
func (o *Orchestrator) Run(ctx context.Context) ([]*sweep.Summary, error) {
	if err := os.MkdirAll(o.config.Output.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var (
		summaries []*sweep.Summary
		failed    []teb.Modulation
	)

	for _, modulation := range o.config.Sweep.Modulations {
		summary, err := o.sweep(ctx, o.config.Sweep.For(modulation))
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			return summaries, fmt.Errorf("sweeping %s: %w", modulation, err)
		}

		if summary.DropRate() > o.config.Settings.MaxFailureRate {
			failed = append(failed, modulation)
		}
	}

	if len(failed) > 0 {
		return summaries, fmt.Errorf("%w: drop rate above %.0f%% for %v",
			ErrTooManyFailures, o.config.Settings.MaxFailureRate*100, failed)
	}
	return summaries, nil
}

func (o *Orchestrator) sweep(ctx context.Context, config sweep.Config) (summary *sweep.Summary, err error) {
	logger := o.logger.With(slog.String("modulation", config.Modulation.String()))

	path := ResultPath(o.config.Output.Directory, config.Modulation)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating result file: %w", err)
	}
	defer closeWithError(f, &err)

	csvWriter, err := results.NewWriter(f)
	if err != nil {
		return nil, fmt.Errorf("creating result file: %w", err)
	}

	writers := rowWriters{csvWriter}
	options := []func(*sweep.Driver){sweep.WithLogger(o.logger)}
	if o.progress != nil {
		options = append(options, sweep.WithProgress(o.progress))
	}

	var session *storage.SessionWriter
	if o.store != nil {
		if session, err = storage.NewSessionWriter(ctx, o.store, config.Modulation, config); err != nil {
			return nil, err
		}
		writers = append(writers, session)
		options = append(options, sweep.WithRecorder(session))

		logger = logger.With(slog.Int64("session", session.SessionID()))
	}

	summary, err = sweep.NewDriver(o.invoker, options...).Run(ctx, config, writers)

	// Rows of an interrupted sweep are kept
	if session != nil {
		if fErr := session.Flush(context.WithoutCancel(ctx)); fErr != nil {
			err = errors.Join(err, fErr)
		}
	}
	if err != nil {
		return summary, err
	}

	attrs := []any{
		slog.String("file", path),
		slog.String("rows", humanize.Comma(int64(summary.Rows))),
		slog.String("invocations", humanize.Comma(int64(summary.Completed))),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", summary.Elapsed),
	}
	if stat, sErr := f.Stat(); sErr == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(stat.Size()))))
	}
	logger.Info("sweep finished", attrs...)

	if summary.Dropped > 0 {
		logger.Warn("rows dropped after failed simulations",
			slog.Int("dropped", summary.Dropped),
			slog.Int("gridSize", summary.GridSize),
			slog.String("dropRate", fmt.Sprintf("%.1f%%", summary.DropRate()*100)))
	}

	return summary, nil
}

// rowWriters fans a row out to every writer, stopping at the first error
type rowWriters []sweep.RowWriter

func (ws rowWriters) WriteRow(row teb.Row) error {
	for _, w := range ws {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
