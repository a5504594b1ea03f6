package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

const (
	msgCurvesTitle    = "curves.title"
	msgSNRAxis        = "curves.axis.snr"
	msgTEBAxis        = "curves.axis.teb"
	msgWithCodeur     = "curves.legend.with"
	msgWithoutCodeur  = "curves.legend.without"
	msgHistogramTitle = "histogram.title"
	msgNoiseAxis      = "histogram.axis.values"
	msgFrequencyAxis  = "histogram.axis.frequency"
	msgInfoBar        = "info"
)

var translations = map[string]struct{ fr, en string }{
	msgCurvesTitle: {
		"TEB en fonction du SNR pour différentes modulations (Avec et Sans Codeur)",
		"TEB versus SNR for each modulation (with and without codeur)",
	},
	msgSNRAxis:        {"SNR (dB)", "SNR (dB)"},
	msgTEBAxis:        {"Taux d'Erreur Binaire (TEB)", "Bit error rate (TEB)"},
	msgWithCodeur:     {"%s (Avec Codeur)", "%s (with codeur)"},
	msgWithoutCodeur:  {"%s (Sans Codeur)", "%s (without codeur)"},
	msgHistogramTitle: {"Histogramme des valeurs continues", "Histogram of continuous values"},
	msgNoiseAxis:      {"Valeurs du bruit", "Noise values"},
	msgFrequencyAxis:  {"Fréquence d'apparition", "Frequency of occurrence"},
	msgInfoBar: {
		"Sources : %s; points : %d; généré le %s",
		"Sources: %s; points: %d; generated %s",
	},
}

var messages = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.French))
	for key, t := range translations {
		if err := b.SetString(language.French, key, t.fr); err != nil {
			panic(fmt.Sprintf("french message %q: %s", key, err))
		}
		if err := b.SetString(language.English, key, t.en); err != nil {
			panic(fmt.Sprintf("english message %q: %s", key, err))
		}
	}
	return b
}

// Labels renders chart text in a single language
type Labels struct {
	printer *message.Printer
}

func NewLabels(tag language.Tag) *Labels {
	return &Labels{printer: message.NewPrinter(tag, message.Catalog(messages))}
}

func (l *Labels) CurvesTitle() string    { return l.printer.Sprintf(msgCurvesTitle) }
func (l *Labels) SNRAxis() string        { return l.printer.Sprintf(msgSNRAxis) }
func (l *Labels) TEBAxis() string        { return l.printer.Sprintf(msgTEBAxis) }
func (l *Labels) HistogramTitle() string { return l.printer.Sprintf(msgHistogramTitle) }
func (l *Labels) NoiseAxis() string      { return l.printer.Sprintf(msgNoiseAxis) }
func (l *Labels) FrequencyAxis() string  { return l.printer.Sprintf(msgFrequencyAxis) }

func (l *Labels) Legend(m teb.Modulation, codeur bool) string {
	if codeur {
		return l.printer.Sprintf(msgWithCodeur, m)
	}
	return l.printer.Sprintf(msgWithoutCodeur, m)
}

func (l *Labels) InfoBar(sources []string, points int, generated time.Time) string {
	return l.printer.Sprintf(msgInfoBar, strings.Join(sources, ", "), points, generated.Format(time.DateTime))
}
