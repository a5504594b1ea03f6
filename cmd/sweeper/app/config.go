package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/teb-sweep/internal/simulator"
	"github.com/roman-kulish/teb-sweep/internal/sweep"
	"github.com/roman-kulish/teb-sweep/internal/teb"
)

const (
	defaultSNRMin         = -10.0
	defaultSNRMax         = 20.0
	defaultSNRStep        = 0.1
	defaultMessageLength  = 100000
	defaultMaxFailureRate = 0.5
	defaultOutputDir      = "resultats"
	defaultDataDir        = "data"
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings         `yaml:"settings" json:"settings"`
	Simulator simulator.Config `yaml:"simulator" json:"simulator"`
	Sweep     SweepConfig      `yaml:"sweep" json:"sweep"`
	Output    OutputConfig     `yaml:"output" json:"output"`
	Storage   StorageConfig    `yaml:"storage" json:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel" json:"logLevel"`

	// MaxFailureRate is the fraction of dropped rows per modulation above which
	// the run is reported as failed
	MaxFailureRate float64 `yaml:"maxFailureRate" json:"maxFailureRate"`
}

// SweepConfig holds the sweep parameters shared by all modulations
type SweepConfig struct {
	Modulations   []teb.Modulation `yaml:"modulations" json:"modulations"`
	SNRMin        float64          `yaml:"snrMin" json:"snrMin"`
	SNRMax        float64          `yaml:"snrMax" json:"snrMax"`
	SNRStep       float64          `yaml:"snrStep" json:"snrStep"`
	MessageLength int              `yaml:"messageLength" json:"messageLength"`
	Repetitions   int              `yaml:"repetitions" json:"repetitions"`
	SamplesPerBit int              `yaml:"samplesPerBit" json:"samplesPerBit"`
	Workers       int              `yaml:"workers" json:"workers"`
}

// For returns the sweep configuration of a single modulation
func (c *SweepConfig) For(modulation teb.Modulation) sweep.Config {
	return sweep.Config{
		Modulation:    modulation,
		SNRMin:        c.SNRMin,
		SNRMax:        c.SNRMax,
		SNRStep:       c.SNRStep,
		MessageLength: c.MessageLength,
		Repetitions:   c.Repetitions,
		SamplesPerBit: c.SamplesPerBit,
		Workers:       c.Workers,
	}.WithDefaults()
}

// OutputConfig represents result file settings
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	DataDirectory string `yaml:"dataDirectory" json:"dataDirectory"`
}

// NewConfig returns a configuration populated with the defaults
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel:       slog.LevelInfo,
			MaxFailureRate: defaultMaxFailureRate,
		},
		Simulator: simulator.Config{
			Path: simulator.DefaultPath,
		},
		Sweep: SweepConfig{
			Modulations:   teb.Modulations(),
			SNRMin:        defaultSNRMin,
			SNRMax:        defaultSNRMax,
			SNRStep:       defaultSNRStep,
			MessageLength: defaultMessageLength,
			Repetitions:   sweep.DefaultRepetitions,
			SamplesPerBit: sweep.DefaultSamplesPerBit,
			Workers:       sweep.DefaultWorkers,
		},
		Output: OutputConfig{
			Directory: defaultOutputDir,
		},
		Storage: StorageConfig{
			DataDirectory: defaultDataDir,
		},
	}
}

// LoadConfig reads, schema-checks and decodes the YAML configuration at path.
// Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	c := NewConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Settings.MaxFailureRate < 0 || c.Settings.MaxFailureRate > 1 {
		return fmt.Errorf("settings: maxFailureRate must be within [0, 1]: %g", c.Settings.MaxFailureRate)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	if len(c.Sweep.Modulations) == 0 {
		return fmt.Errorf("sweep: at least one modulation is required")
	}

	seen := make(map[teb.Modulation]struct{}, len(c.Sweep.Modulations))
	for _, m := range c.Sweep.Modulations {
		if _, ok := seen[m]; ok {
			return fmt.Errorf("sweep: modulation %s listed twice", m)
		}
		seen[m] = struct{}{}

		if err := c.Sweep.For(m).Validate(); err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
	}

	if strings.TrimSpace(c.Output.Directory) == "" {
		return fmt.Errorf("output: directory is required")
	}
	if c.Storage.Enabled && strings.TrimSpace(c.Storage.DataDirectory) == "" {
		return fmt.Errorf("storage: dataDirectory is required when storage is enabled")
	}
	return nil
}
