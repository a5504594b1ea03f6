package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/roman-kulish/teb-sweep/internal/results"
	"github.com/roman-kulish/teb-sweep/internal/storage"
	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// Series is the TEB curve pair of one modulation, ordered by SNR
type Series struct {
	Modulation    teb.Modulation
	SNR           []float64
	TEBWithout    []float64
	TEBWithCodeur []float64
}

func (s *Series) Len() int {
	return len(s.SNR)
}

// Smooth returns a copy of the series with both curves averaged over window
// points and the last trim points removed
func (s *Series) Smooth(window, trim int) *Series {
	return &Series{
		Modulation:    s.Modulation,
		SNR:           trimTail(slices.Clone(s.SNR), trim),
		TEBWithout:    trimTail(MovingAverage(s.TEBWithout, window), trim),
		TEBWithCodeur: trimTail(MovingAverage(s.TEBWithCodeur, window), trim),
	}
}

// GroupRows splits rows into one series per modulation. Series follow the
// NRZ, NRZT, RZ order and rows are sorted by SNR within each series.
func GroupRows(rows []teb.Row) []*Series {
	grouped := make(map[teb.Modulation][]teb.Row)
	for _, row := range rows {
		grouped[row.Modulation] = append(grouped[row.Modulation], row)
	}

	var series []*Series
	for _, m := range teb.Modulations() {
		group, ok := grouped[m]
		if !ok {
			continue
		}

		slices.SortStableFunc(group, func(a, b teb.Row) int {
			return cmp.Compare(a.SNR, b.SNR)
		})

		s := &Series{
			Modulation:    m,
			SNR:           make([]float64, 0, len(group)),
			TEBWithout:    make([]float64, 0, len(group)),
			TEBWithCodeur: make([]float64, 0, len(group)),
		}
		for _, row := range group {
			s.SNR = append(s.SNR, row.SNR)
			s.TEBWithout = append(s.TEBWithout, row.TEBWithout)
			s.TEBWithCodeur = append(s.TEBWithCodeur, row.TEBWithCodeur)
		}
		series = append(series, s)
	}
	return series
}

// loadRows reads rows from every configured result file and store session.
// It returns the rows and a display name for each source.
func loadRows(ctx context.Context, config *CurvesConfig) (rows []teb.Row, sources []string, err error) {
	for _, path := range config.Files {
		fileRows, err := results.Read(path)
		if err != nil {
			return nil, nil, err
		}

		rows = append(rows, filterSNR(fileRows, config.MinSNR, config.MaxSNR)...)
		sources = append(sources, filepath.Base(path))
	}

	if len(config.SessionIDs) == 0 {
		return rows, sources, nil
	}

	if _, err = os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	var opts []storage.ReaderOption
	switch {
	case config.MinSNR != nil && config.MaxSNR != nil:
		opts = append(opts, storage.WithSNRRange(*config.MinSNR, *config.MaxSNR))
	case config.MinSNR != nil:
		opts = append(opts, storage.WithMinSNR(*config.MinSNR))
	case config.MaxSNR != nil:
		opts = append(opts, storage.WithMaxSNR(*config.MaxSNR))
	}

	for _, id := range config.SessionIDs {
		sessionRows, err := store.Rows(ctx, id, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("reading session %d: %w", id, err)
		}

		rows = append(rows, sessionRows...)
		sources = append(sources, fmt.Sprintf("session #%d", id))
	}
	return rows, sources, nil
}

// filterSNR applies the SNR bounds to rows read from result files
func filterSNR(rows []teb.Row, minSNR, maxSNR *float64) []teb.Row {
	if minSNR == nil && maxSNR == nil {
		return rows
	}
	return slices.DeleteFunc(rows, func(row teb.Row) bool {
		return (minSNR != nil && row.SNR < *minSNR) || (maxSNR != nil && row.SNR > *maxSNR)
	})
}
