package sweep

import (
	"fmt"
	"math"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

const (
	DefaultWorkers       = 4
	DefaultRepetitions   = 1
	DefaultSamplesPerBit = 30

	// gridTolerance absorbs representation error so that e.g. (20 - -10) / 0.1 keeps its inclusive upper bound
	gridTolerance = 1e-9

	// snrDecimals is the precision SNR values are rounded to after min + i*step
	snrDecimals = 1e9

	// Upper bounds on the size of a single sweep
	MaxGridSize    = 1_000_000
	MaxInvocations = 10_000_000
)

// Config describes one sweep of a single modulation. It must not be modified once a sweep starts.
type Config struct {
	Modulation    teb.Modulation `yaml:"modulation" json:"modulation"`
	SNRMin        float64        `yaml:"snrMin" json:"snrMin"`               // dB
	SNRMax        float64        `yaml:"snrMax" json:"snrMax"`               // dB, inclusive
	SNRStep       float64        `yaml:"snrStep" json:"snrStep"`             // dB
	MessageLength int            `yaml:"messageLength" json:"messageLength"` // bits per simulated message
	Repetitions   int            `yaml:"repetitions" json:"repetitions"`     // invocation pairs per SNR value
	SamplesPerBit int            `yaml:"samplesPerBit" json:"samplesPerBit"`
	Workers       int            `yaml:"workers" json:"workers"` // simultaneous simulator processes
}

// WithDefaults returns a copy of c with zero optional fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.Repetitions == 0 {
		c.Repetitions = DefaultRepetitions
	}
	if c.SamplesPerBit == 0 {
		c.SamplesPerBit = DefaultSamplesPerBit
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

func (c Config) Validate() error {
	if err := c.Modulation.Validate(); err != nil {
		return fmt.Errorf("sweep.Config: %w", err)
	}
	if math.IsNaN(c.SNRMin) || math.IsInf(c.SNRMin, 0) || math.IsNaN(c.SNRMax) || math.IsInf(c.SNRMax, 0) {
		return fmt.Errorf("sweep.Config: SNR bounds must be finite: [%g, %g]", c.SNRMin, c.SNRMax)
	}
	if c.SNRMax < c.SNRMin {
		return fmt.Errorf("sweep.Config: SNR max must not be lower than min: %g < %g", c.SNRMax, c.SNRMin)
	}
	if !(c.SNRStep > 0) || math.IsInf(c.SNRStep, 0) {
		return fmt.Errorf("sweep.Config: SNR step must be positive: %g", c.SNRStep)
	}
	if span := (c.SNRMax - c.SNRMin) / c.SNRStep; math.IsNaN(span) || math.IsInf(span, 0) || span+1 > MaxGridSize {
		return fmt.Errorf("sweep.Config: SNR step %g is too small for [%g, %g]: more than %d grid points",
			c.SNRStep, c.SNRMin, c.SNRMax, MaxGridSize)
	}
	if c.MessageLength <= 0 {
		return fmt.Errorf("sweep.Config: message length must be positive: %d", c.MessageLength)
	}
	if c.Repetitions < 1 {
		return fmt.Errorf("sweep.Config: repetitions must be at least 1: %d", c.Repetitions)
	}
	if c.Repetitions > MaxInvocations/(2*c.GridSize()) {
		return fmt.Errorf("sweep.Config: %d repetitions exceed %d invocations", c.Repetitions, MaxInvocations)
	}
	if c.SamplesPerBit <= 0 {
		return fmt.Errorf("sweep.Config: samples per bit must be positive: %d", c.SamplesPerBit)
	}
	if c.Workers < 1 {
		return fmt.Errorf("sweep.Config: workers must be at least 1: %d", c.Workers)
	}
	return nil
}

// GridSize returns the number of SNR values: floor((max-min)/step) + 1.
func (c Config) GridSize() int {
	return int(math.Floor((c.SNRMax-c.SNRMin)/c.SNRStep+gridTolerance)) + 1
}

// Grid enumerates the SNR values from min to max inclusive.
func (c Config) Grid() []float64 {
	size := c.GridSize()
	values := make([]float64, size)
	for i := range values {
		values[i] = math.Round((c.SNRMin+float64(i)*c.SNRStep)*snrDecimals) / snrDecimals
	}
	return values
}

// Total returns the number of simulator invocations a sweep performs.
func (c Config) Total() int {
	return c.GridSize() * c.Repetitions * 2
}

func (c Config) invocation(snr float64, repetition int, codeur bool) teb.Invocation {
	return teb.Invocation{
		Modulation:    c.Modulation,
		SNR:           snr,
		Codeur:        codeur,
		MessageLength: c.MessageLength,
		SamplesPerBit: c.SamplesPerBit,
		Repetition:    repetition,
	}
}
