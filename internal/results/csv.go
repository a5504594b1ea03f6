// Package results reads and writes the plain-text artifacts of a sweep: per-modulation
// result CSV files and noise sample dumps.
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

var header = []string{"Modulation", "SNR(dB)", "TEB Without Codeur", "TEB With Codeur"}

// ErrInvalidHeader is returned when a results file does not start with the expected header
var ErrInvalidHeader = errors.New("invalid results header")

// Header returns the CSV header row of a results file.
func Header() []string {
	return slices.Clone(header)
}

// Writer writes result rows as CSV. Every row is flushed immediately so rows written
// before a failure are kept on disk.
type Writer struct {
	w       *csv.Writer
	written int
}

// NewWriter writes the header and returns a Writer for the rows.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{w: cw}, nil
}

func (w *Writer) WriteRow(row teb.Row) error {
	record := []string{
		row.Modulation.String(),
		formatFloat(row.SNR),
		formatFloat(row.TEBWithout),
		formatFloat(row.TEBWithCodeur),
	}
	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	w.written++
	return nil
}

// Written returns the number of rows written so far.
func (w *Writer) Written() int {
	return w.written
}

// Read parses a results CSV file.
func Read(path string) (rows []teb.Row, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cErr)
		}
	}()

	rows, err = ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// ReadRows parses result rows from r. The header row is required.
func ReadRows(r io.Reader) ([]teb.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidHeader)
		}
		return nil, err
	}
	if !slices.Equal(head, header) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, head)
	}

	var rows []teb.Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRecord(record []string) (row teb.Row, err error) {
	if row.Modulation, err = teb.ParseModulation(record[0]); err != nil {
		return
	}
	if row.SNR, err = strconv.ParseFloat(record[1], 64); err != nil {
		err = fmt.Errorf("invalid SNR: %w", err)
		return
	}
	if row.TEBWithout, err = strconv.ParseFloat(record[2], 64); err != nil {
		err = fmt.Errorf("invalid TEB without codeur: %w", err)
		return
	}
	if row.TEBWithCodeur, err = strconv.ParseFloat(record[3], 64); err != nil {
		err = fmt.Errorf("invalid TEB with codeur: %w", err)
		return
	}
	return
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
