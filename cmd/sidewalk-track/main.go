// Package main is the sidewalk-track command: it runs a sequence of segmented frames through the tracking pipeline
// and writes a CSV report of tracked objects.
package main

import (
	"io"
	"os"

	"github.com/LdDl/sidewalk-go/config"
	"github.com/LdDl/sidewalk-go/frameio"
	"github.com/LdDl/sidewalk-go/pipeline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagManifest = "manifest"
	flagConfig   = "config"
	flagOut      = "out"
	flagLogLevel = "log-level"
	flagLogJSON  = "log-json"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newApp(os.Stdout, &logger).Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("sidewalk-track failed")
	}
}

// commonFlags are accepted by every command
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load tuning configuration from `FILE` (.json, .yaml or .yml)",
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "log level (trace, debug, info, warn, error). Overrides configuration",
		},
		&cli.BoolFlag{
			Name:  flagLogJSON,
			Usage: "write logs as JSON instead of console format",
		},
	}
}

// newApp builds the command line application. Reports without --out go to stdout.
// Logger is replaced once configuration of the invoked command is loaded.
func newApp(stdout io.Writer, logger *zerolog.Logger) *cli.App {
	return &cli.App{
		Name:  "sidewalk-track",
		Usage: "segment sidewalks on masked frames and track them across a sequence",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "process a sequence described by manifest",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     flagManifest,
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "sequence manifest `FILE` (YAML)",
					},
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Usage:   "write CSV report to `FILE` instead of stdout",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					*logger = newLogger(c, cfg)
					return runSequence(c, cfg, stdout, *logger)
				},
			},
			{
				Name:  "check-config",
				Usage: "validate tuning configuration and print effective values",
				Flags: commonFlags(),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					*logger = newLogger(c, cfg)
					logger.Info().
						Float64("depth_threshold", cfg.GetDepthThreshold()).
						Int("max_disappeared", cfg.GetMaxDisappeared()).
						Int("kernel_size", cfg.GetKernelSize()).
						Bool("trim_enabled", cfg.GetTrimEnabled()).
						Float64("trim_threshold", cfg.GetTrimThreshold()).
						Int("min_cluster_pixels", cfg.GetMinClusterPixels()).
						Float64("hfov_degrees", cfg.GetHFOVDegrees()).
						Float64("depth_scale", cfg.GetDepthScale()).
						Strs("classes", cfg.ClassNames()).
						Msg("configuration is valid")
					return nil
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.TuningConfig, error) {
	path := c.String(flagConfig)
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load configuration %s", path)
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg *config.TuningConfig) zerolog.Logger {
	level := cfg.ZerologLevel()
	if c.IsSet(flagLogLevel) {
		if parsed, err := zerolog.ParseLevel(c.String(flagLogLevel)); err == nil {
			level = parsed
		}
	}
	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if c.Bool(flagLogJSON) {
		writer = os.Stderr
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func runSequence(c *cli.Context, cfg *config.TuningConfig, stdout io.Writer, logger zerolog.Logger) error {
	manifest, err := frameio.LoadManifest(c.String(flagManifest))
	if err != nil {
		return err
	}

	out := stdout
	if path := c.String(flagOut); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "Can't create report file")
		}
		defer file.Close()
		out = file
	}
	report := frameio.NewReportWriter(out)

	processor, err := pipeline.NewProcessor(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	streamID := processor.StreamID().String()
	logger.Info().Str("stream", streamID).Int("frames", len(manifest.Frames)).Msg("processing sequence")

	for index, entry := range manifest.Frames {
		mask, err := frameio.LoadMask(entry.Mask)
		if err != nil {
			return errors.Wrapf(err, "frame %d", index)
		}
		depth, err := frameio.LoadDepth(entry.Depth, cfg.GetDepthScale())
		if err != nil {
			return errors.Wrapf(err, "frame %d", index)
		}
		result, err := processor.ProcessFrame(pipeline.Frame{
			Index:    index,
			Mask:     mask,
			Depth:    depth,
			Yaw:      entry.Yaw,
			Observer: entry.Observer(),
		})
		if err != nil {
			return err
		}
		if err := report.WriteFrame(streamID, index, result.Objects); err != nil {
			return err
		}
	}
	if err := report.Flush(); err != nil {
		return err
	}
	logger.Info().Str("stream", streamID).Int("objects", len(processor.Tracker().Objects)).Msg("sequence processed")
	return nil
}
