package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "teb_sweep.sqlite"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func outcome(snr float64, codeur bool, value float64, err error) teb.Outcome {
	return teb.Outcome{
		Invocation: teb.Invocation{
			Modulation:    teb.ModulationRZ,
			SNR:           snr,
			Codeur:        codeur,
			MessageLength: 1000,
			SamplesPerBit: 30,
		},
		TEB:      value,
		Err:      err,
		Duration: 1500 * time.Millisecond,
	}
}

func TestSqliteStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	config := map[string]any{"snrMin": -10, "snrMax": 20}
	first, err := s.CreateSession(ctx, teb.ModulationNRZ, config)
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, teb.ModulationRZ, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	sess, err := s.Session(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, sess.ID)
	assert.Equal(t, teb.ModulationNRZ, sess.Modulation)
	require.NotNil(t, sess.Config)
	assert.JSONEq(t, `{"snrMin": -10, "snrMax": 20}`, *sess.Config)
	assert.WithinDuration(t, time.Now(), sess.StartTime, time.Minute)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].ID)
	assert.Equal(t, teb.ModulationRZ, sessions[1].Modulation)
	assert.Nil(t, sessions[1].Config)

	_, err = s.Session(ctx, 42)
	assert.Error(t, err)

	_, err = s.CreateSession(ctx, "QPSK", nil)
	assert.Error(t, err)
}

func TestSqliteStore_Invocations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, teb.ModulationRZ, `{"workers": 4}`)
	require.NoError(t, err)

	require.NoError(t, s.StoreInvocation(ctx, id, outcome(-9, true, 0.02, nil)))
	require.NoError(t, s.StoreInvocation(ctx, id, outcome(-10, false, 0, errors.New("simulator exited with status 1"))))
	require.NoError(t, s.StoreInvocation(ctx, id, outcome(-10, true, 0.03, nil)))

	records, err := s.Invocations(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Ordered by SNR then codeur
	failed := records[0]
	assert.Equal(t, -10.0, failed.SNR)
	assert.False(t, failed.Codeur)
	assert.True(t, failed.Failed())
	assert.Nil(t, failed.TEB)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "simulator exited with status 1", *failed.Error)

	ok := records[2]
	assert.Equal(t, -9.0, ok.SNR)
	assert.True(t, ok.Codeur)
	assert.False(t, ok.Failed())
	require.NotNil(t, ok.TEB)
	assert.Equal(t, 0.02, *ok.TEB)
	assert.Equal(t, 1000, ok.MessageLength)
	assert.Equal(t, 1500*time.Millisecond, ok.Duration)
}

func TestSqliteStore_Rows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, teb.ModulationNRZT, nil)
	require.NoError(t, err)

	rows := []teb.Row{
		{Modulation: teb.ModulationNRZT, SNR: 1, TEBWithout: 0.1, TEBWithCodeur: 0.01},
		{Modulation: teb.ModulationNRZT, SNR: -0.5, TEBWithout: 0.3, TEBWithCodeur: 0.2},
		{Modulation: teb.ModulationNRZT, SNR: 0, TEBWithout: 0.2, TEBWithCodeur: 0.05},
	}
	require.NoError(t, s.StoreRows(ctx, id, rows[:2]))
	require.NoError(t, s.StoreRows(ctx, id, rows[2:]))
	require.NoError(t, s.StoreRows(ctx, id, nil))

	got, err := s.Rows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []teb.Row{rows[1], rows[2], rows[0]}, got)

	got, err = s.Rows(ctx, id, WithSNRRange(0, 1))
	require.NoError(t, err)
	assert.Equal(t, []teb.Row{rows[2], rows[0]}, got)

	got, err = s.Rows(ctx, id, WithMaxSNR(0))
	require.NoError(t, err)
	assert.Equal(t, []teb.Row{rows[1], rows[2]}, got)

	_, err = s.Rows(ctx, id, WithSNRRange(2, 1))
	assert.Error(t, err)

	// The same SNR twice in a session is rejected and the batch rolled back
	err = s.StoreRows(ctx, id, []teb.Row{
		{Modulation: teb.ModulationNRZT, SNR: 5, TEBWithout: 0.1, TEBWithCodeur: 0.1},
		{Modulation: teb.ModulationNRZT, SNR: 1, TEBWithout: 0.1, TEBWithCodeur: 0.1},
	})
	require.Error(t, err)

	got, err = s.Rows(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSqliteStore_RowsEmptySession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, teb.ModulationNRZ, nil)
	require.NoError(t, err)

	rows, err := s.Rows(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.ReadRows(ctx, id)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSqliteRowReader(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, teb.ModulationRZ, nil)
	require.NoError(t, err)
	require.NoError(t, s.StoreRows(ctx, id, []teb.Row{
		{Modulation: teb.ModulationRZ, SNR: -10, TEBWithout: 0.4, TEBWithCodeur: 0.3},
		{Modulation: teb.ModulationRZ, SNR: -9.9, TEBWithout: 0.39, TEBWithCodeur: 0.28},
	}))

	reader, err := s.ReadRows(ctx, id)
	require.NoError(t, err)
	defer func() { require.NoError(t, reader.Close()) }()

	assert.Equal(t, teb.ModulationRZ, reader.Session().Modulation)

	var snrs []float64
	for reader.Next(ctx) {
		snrs = append(snrs, reader.Current().SNR)
		assert.Equal(t, teb.ModulationRZ, reader.Current().Modulation)
	}
	require.NoError(t, reader.Error())
	assert.Equal(t, []float64{-10, -9.9}, snrs)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	reader2, err := s.ReadRows(ctx, id)
	require.NoError(t, err)
	defer func() { _ = reader2.Close() }()

	assert.False(t, reader2.Next(cancelled))
	assert.ErrorIs(t, reader2.Error(), context.Canceled)
}

func TestSqliteStore_Close(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "teb_sweep.sqlite"))

	_, err := s.CreateSession(context.Background(), teb.ModulationNRZ, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSessionWriter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	w, err := NewSessionWriter(ctx, s, teb.ModulationNRZ, map[string]int{"workers": 2})
	require.NoError(t, err)

	require.NoError(t, w.RecordOutcome(ctx, outcome(-10, false, 0.01, nil)))
	require.NoError(t, w.RecordOutcome(ctx, outcome(-10, true, 0.001, nil)))
	require.NoError(t, w.WriteRow(teb.Row{Modulation: teb.ModulationNRZ, SNR: -10, TEBWithout: 0.01, TEBWithCodeur: 0.001}))

	// Nothing stored before Flush
	rows, err := s.Rows(ctx, w.SessionID())
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Flush(ctx))

	rows, err = s.Rows(ctx, w.SessionID())
	require.NoError(t, err)
	assert.Equal(t, []teb.Row{{Modulation: teb.ModulationNRZ, SNR: -10, TEBWithout: 0.01, TEBWithCodeur: 0.001}}, rows)

	records, err := s.Invocations(ctx, w.SessionID())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
