//go:build unix

package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/teb-sweep/internal/results"
	"github.com/roman-kulish/teb-sweep/internal/simulator"
	"github.com/roman-kulish/teb-sweep/internal/storage"
	"github.com/roman-kulish/teb-sweep/internal/teb"
)

const resultHeader = "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig sweeps -10..-9 dB with a stub simulator executing body
func testConfig(t *testing.T, body string, modulations ...teb.Modulation) *Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "simulateur")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	c := NewConfig()
	c.Simulator.Path = path
	c.Sweep.Modulations = modulations
	c.Sweep.SNRMin, c.Sweep.SNRMax, c.Sweep.SNRStep = -10, -9, 1
	c.Sweep.MessageLength = 100
	c.Output.Directory = filepath.Join(dir, "resultats")
	c.Storage.DataDirectory = dir
	require.NoError(t, c.Validate())
	return c
}

func newOrchestrator(t *testing.T, c *Config, options ...func(*Orchestrator)) *Orchestrator {
	t.Helper()

	runner, err := simulator.New(&c.Simulator)
	require.NoError(t, err)
	return NewOrchestrator(c, runner, discardLogger(), options...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	p, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(p)
}

func TestOrchestrator_ResultFilePerModulation(t *testing.T) {
	// Reports a TEB derived from the modulation so files can be told apart
	c := testConfig(t, `
case "$*" in
  *"-form RZ"*) echo "TEB : 2.0E-2" ;;
  *) echo "TEB : 1.0E-2" ;;
esac`, teb.ModulationNRZ, teb.ModulationRZ)

	var progress bytes.Buffer
	summaries, err := newOrchestrator(t, c, WithProgress(&progress)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t,
		resultHeader+"NRZ,-10,0.01,0.01\nNRZ,-9,0.01,0.01\n",
		readFile(t, ResultPath(c.Output.Directory, teb.ModulationNRZ)))
	assert.Equal(t,
		resultHeader+"RZ,-10,0.02,0.02\nRZ,-9,0.02,0.02\n",
		readFile(t, ResultPath(c.Output.Directory, teb.ModulationRZ)))

	assert.NoFileExists(t, ResultPath(c.Output.Directory, teb.ModulationNRZT))
	assert.Contains(t, progress.String(), "Progress: 100% (4/4)")
}

func TestOrchestrator_TooManyFailures(t *testing.T) {
	// The encoder run always fails: every row of every modulation is dropped
	c := testConfig(t, `
for arg in "$@"; do
  [ "$arg" = "-codeur" ] && exit 3
done
echo "TEB : 1.0E-2"`, teb.ModulationNRZ, teb.ModulationNRZT)

	summaries, err := newOrchestrator(t, c).Run(context.Background())
	require.ErrorIs(t, err, ErrTooManyFailures)

	// Both modulations ran before the failure was reported
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.Equal(t, 2, s.Dropped)
		assert.Equal(t, 0, s.Rows)
	}
	assert.Equal(t, resultHeader, readFile(t, ResultPath(c.Output.Directory, teb.ModulationNRZT)))
}

func TestOrchestrator_DropRateWithinLimit(t *testing.T) {
	// Only SNR = -10 fails: half of the rows are dropped, which is tolerated at 0.5
	c := testConfig(t, `
case "$*" in
  *"-snrpb -10 "*) echo "teb: abc" ;;
  *) echo "TEB : 1.0E-2" ;;
esac`, teb.ModulationNRZ)

	summaries, err := newOrchestrator(t, c).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0.5, summaries[0].DropRate())

	rows, err := results.Read(ResultPath(c.Output.Directory, teb.ModulationNRZ))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, -9.0, rows[0].SNR)

	c.Settings.MaxFailureRate = 0.25
	_, err = newOrchestrator(t, c).Run(context.Background())
	assert.ErrorIs(t, err, ErrTooManyFailures)
}

func TestOrchestrator_Store(t *testing.T) {
	c := testConfig(t, `echo "TEB : 1.0E-2"`, teb.ModulationNRZ, teb.ModulationRZ)

	store := storage.NewSqliteStore(filepath.Join(t.TempDir(), "teb_sweep.sqlite"))
	defer func() { require.NoError(t, store.Close()) }()

	_, err := newOrchestrator(t, c, WithStore(store)).Run(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, teb.ModulationNRZ, sessions[0].Modulation)
	assert.Equal(t, teb.ModulationRZ, sessions[1].Modulation)
	require.NotNil(t, sessions[0].Config)
	assert.Contains(t, *sessions[0].Config, `"snrStep":1`)

	rows, err := store.Rows(ctx, sessions[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []teb.Row{
		{Modulation: teb.ModulationRZ, SNR: -10, TEBWithout: 0.01, TEBWithCodeur: 0.01},
		{Modulation: teb.ModulationRZ, SNR: -9, TEBWithout: 0.01, TEBWithCodeur: 0.01},
	}, rows)

	invocations, err := store.Invocations(ctx, sessions[0].ID)
	require.NoError(t, err)
	assert.Len(t, invocations, 4)
}

func TestOrchestrator_Cancelled(t *testing.T) {
	c := testConfig(t, `echo "TEB : 1.0E-2"`, teb.ModulationNRZ)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newOrchestrator(t, c).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The result file exists with its header even though nothing ran
	assert.Equal(t, resultHeader, readFile(t, ResultPath(c.Output.Directory, teb.ModulationNRZ)))
}

func TestRun_Storage(t *testing.T) {
	c := testConfig(t, `echo "TEB : 1.0E-2"`, teb.ModulationNRZT)
	c.Storage.Enabled = true

	require.NoError(t, Run(context.Background(), c, discardLogger()))

	matches, err := filepath.Glob(filepath.Join(c.Storage.DataDirectory, "teb_sweep_*.sqlite"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.FileExists(t, ResultPath(c.Output.Directory, teb.ModulationNRZT))
}

func TestRun_MissingStorageDirectory(t *testing.T) {
	c := testConfig(t, `echo "TEB : 1.0E-2"`, teb.ModulationNRZ)
	c.Storage.Enabled = true
	c.Storage.DataDirectory = filepath.Join(t.TempDir(), "missing")

	assert.Error(t, Run(context.Background(), c, discardLogger()))
}

func TestRun_MissingSimulator(t *testing.T) {
	c := testConfig(t, `echo "TEB : 1.0E-2"`, teb.ModulationNRZ)
	c.Simulator.Path = filepath.Join(t.TempDir(), "simulateur")

	assert.Error(t, Run(context.Background(), c, discardLogger()))
}
