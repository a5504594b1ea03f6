package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/teb-sweep/cmd/sweeper/app"
	"github.com/roman-kulish/teb-sweep/internal/teb"
)

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(logger, &logLevel, os.Stderr).ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}

// newRootCmd builds the sweeper command. The progress line is written to progress, apart from the logs.
func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar, progress io.Writer) *cobra.Command {
	var (
		configPath  string
		level       string
		workers     int
		modulations []string
	)

	cmd := &cobra.Command{
		Use:   "sweeper -c sweeper.yaml",
		Short: "Measure TEB against SNR with an external simulator",
		Long: `sweeper runs the TEB simulator over an SNR grid, with and without the
channel encoder, and writes one result file per modulation.

Examples:
  sweeper -c sweeper.yaml
  sweeper -c sweeper.yaml --modulation RZ --workers 8`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := app.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration file '%s': %w", configPath, err)
			}

			if cmd.Flags().Changed("log-level") {
				if err = config.Settings.LogLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			if cmd.Flags().Changed("workers") {
				config.Sweep.Workers = workers
			}
			if cmd.Flags().Changed("modulation") {
				config.Sweep.Modulations = config.Sweep.Modulations[:0]
				for _, m := range modulations {
					modulation, err := teb.ParseModulation(m)
					if err != nil {
						return err
					}
					config.Sweep.Modulations = append(config.Sweep.Modulations, modulation)
				}
			}
			if err = config.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logLevel.Set(config.Settings.LogLevel)

			return app.Run(cmd.Context(), config, logger, app.WithProgress(progress))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	cmd.Flags().StringVar(&level, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of simultaneous simulator processes")
	cmd.Flags().StringSliceVarP(&modulations, "modulation", "m", nil, "Modulations to sweep (NRZ, NRZT, RZ)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
