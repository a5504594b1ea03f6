package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roman-kulish/teb-sweep/cmd/plotter/app"
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(logger, &logLevel).ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "plotter",
		Short: "Render TEB curves and noise histograms",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logLevel.Set(slog.LevelDebug)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable more verbose output")
	cmd.AddCommand(newCurvesCmd(logger), newHistogramCmd(logger))

	return cmd
}

// outputFlags binds the options shared by every chart to flags
type outputFlags struct {
	format string
	lang   string
}

func addOutputFlags(flags *pflag.FlagSet, c *app.Config, of *outputFlags) {
	flags.StringVarP(&c.OutputFile, "output", "o", "", "Path to the output file")
	flags.StringVarP(&of.format, "format", "f", string(app.ImagePNG), "Output image format. [png, jpeg]")
	flags.StringVar(&of.lang, "lang", "fr", "Language of titles and labels. [fr, en]")
	flags.IntVar(&c.Width, "width", c.Width, "Chart width in pixels")
	flags.IntVar(&c.Height, "height", c.Height, "Chart height in pixels")
	flags.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable the information bar")
}

func (of *outputFlags) apply(c *app.Config) error {
	lang, err := app.ParseLanguage(of.lang)
	if err != nil {
		return err
	}

	c.Language = lang
	c.Format = app.ImageFormat(strings.ToLower(of.format))
	return nil
}

func newCurvesCmd(logger *slog.Logger) *cobra.Command {
	var (
		of             outputFlags
		minSNR, maxSNR float64
	)
	config := app.NewCurvesConfig()

	cmd := &cobra.Command{
		Use:   "curves -o courbes [--db file --session id] [result files...]",
		Short: "Plot TEB against SNR with and without the codeur",
		Long: `curves smooths the TEB of every modulation with a centred moving average
and plots it on a logarithmic scale. Dashed lines are runs without the codeur.

Examples:
  plotter curves -o courbes resultats/resultats_*.csv
  plotter curves -o courbes --db data/teb_sweep.sqlite --session 1 --session 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := of.apply(&config.Config); err != nil {
				return err
			}

			config.Files = args
			if cmd.Flags().Changed("min-snr") {
				config.MinSNR = &minSNR
			}
			if cmd.Flags().Changed("max-snr") {
				config.MaxSNR = &maxSNR
			}
			if err := config.Validate(); err != nil {
				return err
			}

			return app.RunCurves(cmd.Context(), config, logger)
		},
	}

	flags := cmd.Flags()
	addOutputFlags(flags, &config.Config, &of)
	flags.StringVar(&config.DBPath, "db", "", "Path to the database file")
	flags.Int64SliceVarP(&config.SessionIDs, "session", "s", nil, "Session ID, repeatable")
	flags.Float64Var(&minSNR, "min-snr", 0, "Ignore rows below this SNR (dB)")
	flags.Float64Var(&maxSNR, "max-snr", 0, "Ignore rows above this SNR (dB)")
	flags.IntVar(&config.Window, "window", config.Window, "Moving average window, 1 disables smoothing")
	flags.IntVar(&config.Trim, "trim", config.Trim, "Number of trailing points to drop after smoothing")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newHistogramCmd(logger *slog.Logger) *cobra.Command {
	var of outputFlags
	config := app.NewHistogramConfig()

	cmd := &cobra.Command{
		Use:   "histogram -i bruit.txt -o histogramme",
		Short: "Plot the distribution of noise samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := of.apply(&config.Config); err != nil {
				return err
			}
			if err := config.Validate(); err != nil {
				return err
			}

			return app.RunHistogram(cmd.Context(), config, logger)
		},
	}

	flags := cmd.Flags()
	addOutputFlags(flags, &config.Config, &of)
	flags.StringVarP(&config.InputFile, "input", "i", "bruit.txt", "File with one noise sample per line")
	flags.IntVar(&config.Bins, "bins", config.Bins, "Number of bins")
	flags.Float64Var(&config.Min, "min", config.Min, "Lower bound of the displayed values")
	flags.Float64Var(&config.Max, "max", config.Max, "Upper bound of the displayed values")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
