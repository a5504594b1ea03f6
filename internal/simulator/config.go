package simulator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// DefaultPath is the simulator launcher expected in the working directory.
const DefaultPath = "./simulateur"

type TimeDuration time.Duration

func NewTimeDuration(d time.Duration) TimeDuration {
	return TimeDuration(d)
}

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("simulator.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *TimeDuration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("simulator.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d TimeDuration) Validate() error {
	if time.Duration(d) < 0 {
		return fmt.Errorf("simulator.TimeDuration: must not be negative: %s", time.Duration(d))
	}
	return nil
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

/*
Example: the Java simulator shipped as classes

	simulator:
	  path: java
	  args: ["-cp", "bin", "simulateur.Simulateur"]
	  workDir: ./sit213

	// Executes: java -cp bin simulateur.Simulateur -mess 100000 -form NRZ -snrpb -9.7 -nbEch 30 -codeur
*/

// Config is the simulator launcher configuration
type Config struct {
	Path    string       `yaml:"path" json:"path"`                           // Program to execute (default ./simulateur)
	Args    []string     `yaml:"args,omitempty" json:"args,omitempty"`       // Leading arguments placed before the sweep flags
	WorkDir string       `yaml:"workDir,omitempty" json:"workDir,omitempty"` // Working directory of the process (default: inherited)
	Timeout TimeDuration `yaml:"timeout,omitempty" json:"timeout,omitempty"` // Per-invocation timeout, 0 disables it
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("simulator.Config: path is required")
	}
	if err := c.Timeout.Validate(); err != nil {
		return fmt.Errorf("simulator.Config: invalid timeout: %w", err)
	}
	return nil
}

// InvocationArgs returns the command line arguments for a single invocation:
//
//	[leading args...] -mess <int> -form <modulation> -snrpb <float> -nbEch <int> [-codeur]
func (c *Config) InvocationArgs(inv teb.Invocation) ([]string, error) {
	if err := inv.Modulation.Validate(); err != nil {
		return nil, err
	}
	if inv.MessageLength <= 0 {
		return nil, fmt.Errorf("simulator: message length must be positive: %d", inv.MessageLength)
	}
	if inv.SamplesPerBit <= 0 {
		return nil, fmt.Errorf("simulator: samples per bit must be positive: %d", inv.SamplesPerBit)
	}

	args := make([]string, 0, len(c.Args)+9)
	args = append(args, c.Args...)
	args = append(args,
		"-mess", strconv.Itoa(inv.MessageLength),
		"-form", inv.Modulation.String(),
		"-snrpb", FormatSNR(inv.SNR),
		"-nbEch", strconv.Itoa(inv.SamplesPerBit),
	)

	if inv.Codeur {
		args = append(args, "-codeur")
	}

	return args, nil
}

// FormatSNR renders an SNR the way it is passed on the command line and written to result files.
func FormatSNR(snr float64) string {
	return strconv.FormatFloat(snr, 'f', -1, 64)
}

func (c *Config) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}
