package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"

	"github.com/roman-kulish/teb-sweep/internal/results"
)

// RunCurves plots TEB against SNR for every modulation found in the configured sources
func RunCurves(ctx context.Context, config *CurvesConfig, logger *slog.Logger) error {
	rows, sources, err := loadRows(ctx, config)
	if err != nil {
		return err
	}

	series := GroupRows(rows)
	for i, s := range series {
		series[i] = s.Smooth(config.Window, config.Trim)

		logger.Debug("series loaded",
			slog.String("modulation", s.Modulation.String()),
			slog.Int("rows", s.Len()),
			slog.Int("plotted", series[i].Len()))
	}

	logger.Info("finished reading rows",
		slog.Group("stats",
			slog.Any("sources", sources),
			slog.String("rows", humanize.Comma(int64(len(rows)))),
			slog.Int("modulations", len(series)),
			slog.Int("window", config.Window),
			slog.Int("trim", config.Trim),
		))

	labels := NewLabels(config.Language)
	p, points, err := newCurvesPlot(series, labels)
	if err != nil {
		return fmt.Errorf("plotting curves: %w", err)
	}

	return save(p, &config.Config, labels.InfoBar(sources, points, time.Now()), logger)
}

// RunHistogram plots the distribution of the noise samples in the input file
func RunHistogram(_ context.Context, config *HistogramConfig, logger *slog.Logger) error {
	samples, err := results.ReadSamples(config.InputFile)
	if err != nil {
		return err
	}

	logger.Info("finished reading samples",
		slog.Group("stats",
			slog.String("source", config.InputFile),
			slog.String("samples", humanize.Comma(int64(len(samples)))),
			slog.Int("bins", config.Bins),
		))

	labels := NewLabels(config.Language)
	p, err := newHistogramPlot(samples, config, labels)
	if err != nil {
		return fmt.Errorf("plotting histogram: %w", err)
	}

	info := labels.InfoBar([]string{filepath.Base(config.InputFile)}, len(samples), time.Now())
	return save(p, &config.Config, info, logger)
}

func save(p *plot.Plot, config *Config, info string, logger *slog.Logger) (err error) {
	img, err := render(p, config, info)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	path := config.OutputPath()
	if err = writeImage(path, img, config.Format); err != nil {
		return err
	}

	var size uint64
	if stat, err := os.Stat(path); err == nil {
		size = uint64(stat.Size())
	}

	logger.Info("chart saved",
		slog.Group("image",
			slog.String("destination", path),
			slog.String("format", string(config.Format)),
			slog.String("language", config.Language.String()),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
			slog.String("size", humanize.Bytes(size)),
		))
	return nil
}

func writeImage(path string, img image.Image, format ImageFormat) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	if err = encode(out, img, format); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}
