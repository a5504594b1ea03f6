package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultWidth  = 960
	defaultHeight = 576

	defaultWindow = 5
	defaultTrim   = 5

	defaultBins         = 100
	defaultHistogramMin = -1.0
	defaultHistogramMax = 1.0
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

var supportedLanguages = []language.Tag{language.French, language.English}

// ParseLanguage maps a BCP 47 tag onto one of the supported chart languages
func ParseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language '%s': %w", s, err)
	}

	_, index, confidence := language.NewMatcher(supportedLanguages).Match(tag)
	if confidence == language.No {
		return language.Und, fmt.Errorf("unsupported language '%s'", s)
	}
	return supportedLanguages[index], nil
}

// Config holds the output options shared by every chart
type Config struct {
	OutputFile    string
	Format        ImageFormat
	Language      language.Tag
	Width         int // pixels
	Height        int // pixels
	NoAnnotations bool
}

func NewConfig() Config {
	return Config{
		Format:   ImagePNG,
		Language: language.French,
		Width:    defaultWidth,
		Height:   defaultHeight,
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputFile) == "" {
		return errors.New("output file is required")
	}
	if _, ok := validImageFormats[c.Format]; !ok {
		return fmt.Errorf("invalid image format: %s", c.Format)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", c.Width, c.Height)
	}
	return nil
}

// OutputPath appends the image format extension unless the output file already has one
func (c *Config) OutputPath() string {
	if filepath.Ext(c.OutputFile) != "" {
		return c.OutputFile
	}
	return fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
}

// CurvesConfig selects the rows plotted as TEB curves. Rows come from
// result files, from store sessions, or from both.
type CurvesConfig struct {
	Config

	Files      []string
	DBPath     string
	SessionIDs []int64
	MinSNR     *float64
	MaxSNR     *float64

	Window int // moving average width, 1 disables smoothing
	Trim   int // trailing points dropped after smoothing
}

func NewCurvesConfig() *CurvesConfig {
	return &CurvesConfig{
		Config: NewConfig(),
		Window: defaultWindow,
		Trim:   defaultTrim,
	}
}

func (c *CurvesConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if len(c.Files) == 0 && len(c.SessionIDs) == 0 {
		return errors.New("at least one result file or session is required")
	}
	if len(c.SessionIDs) > 0 && c.DBPath == "" {
		return errors.New("db path is required to read sessions")
	}
	for _, id := range c.SessionIDs {
		if id <= 0 {
			return fmt.Errorf("invalid session id %d", id)
		}
	}
	if c.MinSNR != nil && c.MaxSNR != nil && *c.MinSNR > *c.MaxSNR {
		return fmt.Errorf("min SNR %g is greater than max SNR %g", *c.MinSNR, *c.MaxSNR)
	}
	if c.Window < 1 {
		return fmt.Errorf("invalid moving average window %d", c.Window)
	}
	if c.Trim < 0 {
		return fmt.Errorf("invalid trim %d", c.Trim)
	}
	return nil
}

// HistogramConfig describes the noise histogram
type HistogramConfig struct {
	Config

	InputFile string
	Bins      int
	Min       float64
	Max       float64
}

func NewHistogramConfig() *HistogramConfig {
	return &HistogramConfig{
		Config: NewConfig(),
		Bins:   defaultBins,
		Min:    defaultHistogramMin,
		Max:    defaultHistogramMax,
	}
}

func (c *HistogramConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.InputFile) == "" {
		return errors.New("input file is required")
	}
	if c.Bins <= 0 {
		return fmt.Errorf("invalid bin count %d", c.Bins)
	}
	if c.Min >= c.Max {
		return fmt.Errorf("invalid value range [%g, %g]", c.Min, c.Max)
	}
	return nil
}
