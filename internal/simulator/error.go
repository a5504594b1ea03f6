package simulator

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

var (
	// ErrTEBNotFound is returned when the simulator output carries no "TEB : <number>" line
	ErrTEBNotFound = errors.New("TEB value not found in the output")

	// ErrInvalidTEB is returned when the TEB value is present but is not a finite number
	ErrInvalidTEB = errors.New("invalid TEB value")
)

// RuntimeError is returned when the simulator program cannot be located
type RuntimeError struct {
	msg string
	err error
}

func NewRuntimeError(msg string, err error) *RuntimeError {
	return &RuntimeError{msg: msg, err: err}
}

func (e *RuntimeError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.err.Error())
}

func (e *RuntimeError) Unwrap() error {
	return e.err
}

// ExitError is returned when the simulator exits with a non-zero status
type ExitError struct {
	Invocation teb.Invocation
	Code       int
	Stderr     string // Last lines of stderr, if any

	err *exec.ExitError
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("simulator exited with status %d for SNR = %s", e.Code, FormatSNR(e.Invocation.SNR))
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	if e.err == nil {
		return nil
	}
	return e.err
}
