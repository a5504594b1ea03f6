package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

func TestConfig_InvocationArgs(t *testing.T) {
	c := Config{Path: "java", Args: []string{"-cp", "bin", "simulateur.Simulateur"}}

	args, err := c.InvocationArgs(teb.Invocation{
		Modulation:    teb.ModulationNRZT,
		SNR:           -9.7,
		MessageLength: 100000,
		SamplesPerBit: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"-cp", "bin", "simulateur.Simulateur",
		"-mess", "100000", "-form", "NRZT", "-snrpb", "-9.7", "-nbEch", "30",
	}, args)

	args, err = c.InvocationArgs(teb.Invocation{
		Modulation:    teb.ModulationRZ,
		SNR:           3,
		Codeur:        true,
		MessageLength: 10,
		SamplesPerBit: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "-codeur", args[len(args)-1])
	assert.Contains(t, args, "3")
}

func TestConfig_InvocationArgs_Invalid(t *testing.T) {
	c := Config{Path: DefaultPath}

	_, err := c.InvocationArgs(teb.Invocation{Modulation: "AMI", MessageLength: 1, SamplesPerBit: 1})
	assert.Error(t, err)

	_, err = c.InvocationArgs(teb.Invocation{Modulation: teb.ModulationNRZ, MessageLength: 0, SamplesPerBit: 1})
	assert.Error(t, err)

	_, err = c.InvocationArgs(teb.Invocation{Modulation: teb.ModulationNRZ, MessageLength: 1, SamplesPerBit: -3})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Path: "x", Timeout: NewTimeDuration(-time.Second)}).Validate())
	assert.NoError(t, (&Config{Path: "x", Timeout: NewTimeDuration(time.Minute)}).Validate())
}

func TestConfig_YAML(t *testing.T) {
	var c Config
	err := yaml.Unmarshal([]byte("path: ./simulateur\nargs: [\"-v\"]\ntimeout: 90s\n"), &c)
	require.NoError(t, err)

	assert.Equal(t, "./simulateur", c.Path)
	assert.Equal(t, []string{"-v"}, c.Args)
	assert.Equal(t, 90*time.Second, time.Duration(c.Timeout))

	err = yaml.Unmarshal([]byte("path: x\ntimeout: soon\n"), &c)
	assert.Error(t, err)
}

func TestFormatSNR(t *testing.T) {
	assert.Equal(t, "-10", FormatSNR(-10))
	assert.Equal(t, "-9.7", FormatSNR(-9.7))
	assert.Equal(t, "0.25", FormatSNR(0.25))
}
