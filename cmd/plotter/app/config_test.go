package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestParseLanguage(t *testing.T) {
	tests := map[string]language.Tag{
		"fr":    language.French,
		"fr-CA": language.French,
		"en":    language.English,
		"en-GB": language.English,
	}
	for s, want := range tests {
		t.Run(s, func(t *testing.T) {
			got, err := ParseLanguage(s)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseLanguage("not a language")
	assert.Error(t, err)
}

func TestConfig_OutputPath(t *testing.T) {
	c := NewConfig()
	c.OutputFile = "courbes"
	assert.Equal(t, "courbes.png", c.OutputPath())

	c.Format = ImageJPEG
	assert.Equal(t, "courbes.jpeg", c.OutputPath())

	c.OutputFile = "out/histogramme.png"
	assert.Equal(t, "out/histogramme.png", c.OutputPath())
}

func TestCurvesConfig_Validate(t *testing.T) {
	valid := func() *CurvesConfig {
		c := NewCurvesConfig()
		c.OutputFile = "courbes"
		c.Files = []string{"resultats_NRZ.csv"}
		return c
	}
	require.NoError(t, valid().Validate())

	minSNR, maxSNR := 5.0, 1.0
	tests := map[string]func(*CurvesConfig){
		"no output":      func(c *CurvesConfig) { c.OutputFile = "" },
		"bad format":     func(c *CurvesConfig) { c.Format = "gif" },
		"bad size":       func(c *CurvesConfig) { c.Width = 0 },
		"no sources":     func(c *CurvesConfig) { c.Files = nil },
		"session no db":  func(c *CurvesConfig) { c.SessionIDs = []int64{1} },
		"bad session":    func(c *CurvesConfig) { c.DBPath, c.SessionIDs = "db.sqlite", []int64{0} },
		"inverted range": func(c *CurvesConfig) { c.MinSNR, c.MaxSNR = &minSNR, &maxSNR },
		"zero window":    func(c *CurvesConfig) { c.Window = 0 },
		"negative trim":  func(c *CurvesConfig) { c.Trim = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestHistogramConfig_Validate(t *testing.T) {
	c := NewHistogramConfig()
	c.OutputFile = "histogramme"
	c.InputFile = "bruit.txt"
	require.NoError(t, c.Validate())
	assert.Equal(t, 100, c.Bins)
	assert.Equal(t, language.French, c.Language)

	c.Bins = 0
	assert.Error(t, c.Validate())

	c.Bins = 25
	c.Min, c.Max = 1, -1
	assert.Error(t, c.Validate())
}
