package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\n", buf.String())

	require.NoError(t, w.WriteRow(teb.Row{Modulation: teb.ModulationNRZ, SNR: -10, TEBWithout: 0.01, TEBWithCodeur: 0.01}))
	require.NoError(t, w.WriteRow(teb.Row{Modulation: teb.ModulationNRZ, SNR: -9.7, TEBWithout: 3.2e-5, TEBWithCodeur: 0}))

	assert.Equal(t, 2, w.Written())
	assert.Equal(t, strings.Join([]string{
		"Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur",
		"NRZ,-10,0.01,0.01",
		"NRZ,-9.7,3.2e-05,0",
		"",
	}, "\n"), buf.String())
}

func TestReadRows_RoundTrip(t *testing.T) {
	rows := []teb.Row{
		{Modulation: teb.ModulationRZ, SNR: -45, TEBWithout: 0.49, TEBWithCodeur: 0.5},
		{Modulation: teb.ModulationRZ, SNR: 0.1, TEBWithout: 1.0e-4, TEBWithCodeur: 2.5e-6},
	}

	path := filepath.Join(t.TempDir(), "resultats_RZ.csv")
	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := NewWriter(f)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, f.Close())

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadRows_DecimalNotation(t *testing.T) {
	// Older result files write floats as "-10.0"
	in := "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\r\nNRZT,-10.0,0.2105,0.1893\r\n"

	got, err := ReadRows(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, teb.Row{Modulation: teb.ModulationNRZT, SNR: -10, TEBWithout: 0.2105, TEBWithCodeur: 0.1893}, got[0])
}

func TestReadRows_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"wrong header":   "Modulation,SNR(dB),TEB\nNRZ,1,2\n",
		"bad modulation": "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\nAMI,1,0.1,0.1\n",
		"bad snr":        "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\nNRZ,x,0.1,0.1\n",
		"bad teb":        "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\nNRZ,1,0.1,y\n",
		"missing column": "Modulation,SNR(dB),TEB Without Codeur,TEB With Codeur\nNRZ,1,0.1\n",
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadRows(strings.NewReader(in))
			assert.Error(t, err)
		})
	}

	_, err := ReadRows(strings.NewReader("a,b,c,d\n"))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestParseSamples(t *testing.T) {
	got, err := ParseSamples(strings.NewReader("0.5\n-0.25\n\n1.0E-3\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.25, 1e-3}, got)

	_, err = ParseSamples(strings.NewReader("0.5\nnoise\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadSamples_Missing(t *testing.T) {
	_, err := ReadSamples(filepath.Join(t.TempDir(), "bruit.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
