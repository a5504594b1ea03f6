package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

const (
	stderrTailLines = 5
	waitDelay       = 2 * time.Second
)

// tebPattern matches "TEB : 1.0E-4" style lines printed by the simulator
var tebPattern = regexp.MustCompile(`TEB\s*:\s*([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// WithLogger sets the logger for the runner
func WithLogger(logger *slog.Logger) func(r *Runner) {
	return func(r *Runner) {
		r.logger = logger.With(slog.String("simulator", r.binPath))
	}
}

// Runner executes the external TEB simulator, one process per invocation.
// It holds no per-invocation state and is safe for concurrent use.
type Runner struct {
	binPath string
	config  Config
	logger  *slog.Logger
}

// New creates a Runner for the given launcher configuration
func New(config *Config, options ...func(r *Runner)) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	binPath, err := FindRuntime(config.Path)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	r := Runner{
		binPath: binPath,
		config:  *config,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	return &r, nil
}

// Cmd returns an exec.Cmd for the invocation
func (r *Runner) Cmd(ctx context.Context, inv teb.Invocation) (*exec.Cmd, error) {
	args, err := r.config.InvocationArgs(inv)
	if err != nil {
		return nil, fmt.Errorf("error creating args: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	cmd.Dir = r.config.WorkDir
	cmd.WaitDelay = waitDelay // don't hang on grandchildren holding stdout after a kill
	return cmd, nil
}

// Run executes the simulator synchronously and returns the TEB it reports.
func (r *Runner) Run(ctx context.Context, inv teb.Invocation) (float64, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.config.Timeout))
		defer cancel()
	}

	cmd, err := r.Cmd(ctx, inv)
	if err != nil {
		return 0, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running simulator", slog.String("args", strings.Join(cmd.Args[1:], " ")))

	if err = cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("simulator interrupted for SNR = %s: %w", FormatSNR(inv.SNR), ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, &ExitError{
				Invocation: inv,
				Code:       exitErr.ExitCode(),
				Stderr:     tail(stderr.String(), stderrTailLines),
				err:        exitErr,
			}
		}

		return 0, fmt.Errorf("error starting simulator: %w", err)
	}

	value, err := ParseTEB(stdout.String())
	if err != nil {
		return 0, fmt.Errorf("parsing output for SNR = %s: %w", FormatSNR(inv.SNR), err)
	}

	return value, nil
}

// ParseTEB extracts the first "TEB : <number>" value from simulator output.
// The number may use scientific notation (1.0E-4).
func ParseTEB(output string) (float64, error) {
	loc := tebPattern.FindStringSubmatchIndex(output)
	if loc == nil {
		return 0, ErrTEBNotFound
	}

	number := output[loc[2]:loc[3]]
	if next, _ := utf8.DecodeRuneInString(output[loc[3]:]); next == '.' || unicode.IsLetter(next) || unicode.IsDigit(next) {
		// Truncated or garbled number such as "1.0E" or "1.0Exyz"
		return 0, fmt.Errorf("%w: %q", ErrInvalidTEB, number+string(next))
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidTEB, number, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTEB, number)
	}

	return value, nil
}

// tail returns the last n non-empty lines of s joined by " | "
func tail(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
