// Package sweep drives the external TEB simulator across an SNR grid, with and without
// the channel encoder, and merges the paired results into one row per SNR value.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// Invoker runs a single simulation and returns its TEB
type Invoker interface {
	Run(ctx context.Context, inv teb.Invocation) (float64, error)
}

// RowWriter receives result rows in SNR order
type RowWriter interface {
	WriteRow(row teb.Row) error
}

// Recorder receives every invocation outcome, successful or not
type Recorder interface {
	RecordOutcome(ctx context.Context, outcome teb.Outcome) error
}

// WithLogger sets the logger for the driver
func WithLogger(logger *slog.Logger) func(d *Driver) {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithProgress prints a progress line to w, overwriting it on every update
func WithProgress(w io.Writer) func(d *Driver) {
	return func(d *Driver) {
		d.progressOut = w
	}
}

// WithProgressFunc sets a callback invoked after every completed invocation
func WithProgressFunc(fn ProgressFunc) func(d *Driver) {
	return func(d *Driver) {
		d.progressFn = fn
	}
}

// WithRecorder sets a recorder for invocation outcomes
func WithRecorder(r Recorder) func(d *Driver) {
	return func(d *Driver) {
		d.recorder = r
	}
}

// Summary describes a finished (or interrupted) sweep
type Summary struct {
	Modulation teb.Modulation
	GridSize   int           // Number of SNR values
	Total      int           // Invocations planned: GridSize * repetitions * 2
	Completed  int           // Invocations that reached a terminal state
	Failed     int           // Invocations that produced no value
	Rows       int           // Rows written
	Dropped    int           // SNR values without a row because an invocation failed
	Elapsed    time.Duration // Wall-clock duration of the sweep
}

// DropRate returns the fraction of SNR values whose row was dropped.
func (s *Summary) DropRate() float64 {
	if s.GridSize == 0 {
		return 0
	}
	return float64(s.Dropped) / float64(s.GridSize)
}

// Driver fans simulator invocations out to a bounded pool of workers and aggregates
// the results. A Driver can run several sweeps, one at a time or concurrently.
type Driver struct {
	invoker     Invoker
	recorder    Recorder
	logger      *slog.Logger
	progressOut io.Writer
	progressFn  ProgressFunc
}

// NewDriver creates a new Driver with a discard logger and no progress output
func NewDriver(invoker Invoker, options ...func(d *Driver)) *Driver {
	d := Driver{
		invoker: invoker,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

type slotOutcome struct {
	index   int
	outcome teb.Outcome
}

// slot accumulates the invocations of one SNR value
type slot struct {
	remaining int
	failed    bool
	without   float64 // Sum over repetitions
	with      float64 // Sum over repetitions
}

func (s *slot) add(o teb.Outcome) {
	s.remaining--
	switch {
	case !o.Succeeded():
		s.failed = true
	case o.Invocation.Codeur:
		s.with += o.TEB
	default:
		s.without += o.TEB
	}
}

func (s *slot) row(modulation teb.Modulation, snr float64, repetitions int) *teb.Row {
	if s.failed {
		return nil
	}
	return &teb.Row{
		Modulation:    modulation,
		SNR:           snr,
		TEBWithout:    s.without / float64(repetitions),
		TEBWithCodeur: s.with / float64(repetitions),
	}
}

// Run performs the sweep described by config and writes one row per SNR value whose
// invocations all succeeded. Rows are written in SNR order. Invocation failures are
// logged and only drop their row; a RowWriter error aborts the sweep.
func (d *Driver) Run(ctx context.Context, config Config, w RowWriter) (*Summary, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	grid := config.Grid()
	summary := &Summary{
		Modulation: config.Modulation,
		GridSize:   len(grid),
		Total:      config.Total(),
	}

	buffer, err := NewRowBuffer(len(grid))
	if err != nil {
		return nil, err
	}

	slots := make([]slot, len(grid))
	for i := range slots {
		slots[i].remaining = config.Repetitions * 2
	}

	logger := d.logger.With(slog.String("modulation", config.Modulation.String()))
	logger.Info("starting sweep",
		slog.Float64("snrMin", config.SNRMin),
		slog.Float64("snrMax", config.SNRMax),
		slog.Float64("snrStep", config.SNRStep),
		slog.Int("gridSize", summary.GridSize),
		slog.Int("invocations", summary.Total),
		slog.Int("workers", config.Workers))

	start := time.Now()
	recordCtx := context.WithoutCancel(ctx)
	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered for every invocation so workers never block on a stalled collector
	outcomes := make(chan slotOutcome, summary.Total)
	go d.dispatch(sweepCtx, config, grid, outcomes)

	prog := newProgress(summary.Total, d.progressOut, d.progressFn)

	var writeErr error
	for so := range outcomes {
		o := so.outcome

		summary.Completed++
		prog.Update(summary.Completed)

		if !o.Succeeded() {
			summary.Failed++
			logger.Warn("simulation failed",
				slog.Float64("snr", o.Invocation.SNR),
				slog.Bool("codeur", o.Invocation.Codeur),
				slog.Int("repetition", o.Invocation.Repetition),
				slog.String("error", o.Err.Error()))
		}

		if d.recorder != nil {
			if err := d.recorder.RecordOutcome(recordCtx, o); err != nil {
				logger.Error(fmt.Sprintf("recording outcome: %s", err.Error()), slog.Float64("snr", o.Invocation.SNR))
			}
		}

		if writeErr != nil {
			continue // draining after a fatal write error
		}

		s := &slots[so.index]
		s.add(o)
		if s.remaining > 0 {
			continue
		}

		row := s.row(config.Modulation, grid[so.index], config.Repetitions)
		if row == nil {
			summary.Dropped++
			logger.Debug("dropping partial pair", slog.Float64("snr", grid[so.index]))
		}

		if err := buffer.Insert(so.index, row); err != nil {
			writeErr = fmt.Errorf("buffering row: %w", err)
			cancel()
			continue
		}

		for _, r := range buffer.Flush() {
			if err := w.WriteRow(r); err != nil {
				writeErr = fmt.Errorf("writing row for SNR = %g: %w", r.SNR, err)
				cancel()
				break
			}
			summary.Rows++
		}
	}

	prog.Finish()
	summary.Elapsed = time.Since(start)

	if writeErr != nil {
		return summary, writeErr
	}
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("sweep interrupted: %w", err)
	}

	return summary, nil
}

// dispatch submits every invocation of the grid to a pool bounded by config.Workers
// and closes outcomes once all submitted invocations have finished.
func (d *Driver) dispatch(ctx context.Context, config Config, grid []float64, outcomes chan<- slotOutcome) {
	defer close(outcomes)

	var g errgroup.Group
	g.SetLimit(config.Workers)

submit:
	for i, snr := range grid {
		for rep := 0; rep < config.Repetitions; rep++ {
			for _, codeur := range []bool{false, true} {
				if ctx.Err() != nil {
					break submit
				}

				inv := config.invocation(snr, rep, codeur)
				g.Go(func() error {
					outcomes <- slotOutcome{index: i, outcome: d.invoke(ctx, inv)}
					return nil
				})
			}
		}
	}

	_ = g.Wait()
}

func (d *Driver) invoke(ctx context.Context, inv teb.Invocation) teb.Outcome {
	start := time.Now()
	value, err := d.invoker.Run(ctx, inv)
	return teb.Outcome{
		Invocation: inv,
		TEB:        value,
		Err:        err,
		Duration:   time.Since(start),
	}
}
