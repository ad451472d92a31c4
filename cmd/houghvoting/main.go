// Package main runs the pose estimator on a scene stored as JSON and prints the detections.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/ml/ops"
	"go.viam.com/houghvoting/rimage/transform"
	"go.viam.com/houghvoting/solver"
	"go.viam.com/houghvoting/vision/houghvoting"
)

const (
	// Flags.
	flagLogLevel   = "log-level"
	flagScene      = "scene"
	flagConfig     = "config"
	flagSeed       = "seed"
	flagOptimizer  = "optimizer"
	flagOverlay    = "overlay"
	flagScale      = "overlay-scale"
	flagIntrinsics = "intrinsics"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "houghvoting",
		Usage: "estimate object boxes and poses from class labels and center votes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "log level (debug, info, warn or error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the estimator on a scene",
				UsageText: "houghvoting run --scene <scene.json> [--config <config.json>] [--seed <seed>]",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     flagScene,
						Required: true,
						Usage:    "JSON file holding the images, extents and optional ground truth",
					},
					&cli.PathFlag{
						Name:  flagConfig,
						Usage: "JSON file with estimator settings",
					},
					&cli.PathFlag{
						Name:  flagIntrinsics,
						Usage: "JSON file with pinhole camera intrinsics replacing the metadata of every image",
					},
					&cli.Int64Flag{
						Name:  flagSeed,
						Usage: "root seed; overrides the config",
					},
					&cli.StringFlag{
						Name:  flagOptimizer,
						Usage: fmt.Sprintf("pose optimizer (%s or %s); overrides the config", solver.NelderMeadName, solver.NloptName),
					},
					&cli.PathFlag{
						Name:  flagOverlay,
						Usage: "directory to write one PNG per image showing the labels and detected boxes",
					},
					&cli.IntFlag{
						Name:  flagScale,
						Value: 4,
						Usage: "output pixels per label pixel in overlays",
					},
				},
				Action: RunCommand,
			},
			{
				Name:  "ops",
				Usage: "list the registered ops",
				Action: func(c *cli.Context) error {
					for _, name := range ops.RegisteredOps() {
						printf(c.App.Writer, "%s", name)
					}
					return nil
				},
			},
		},
	}
}

// RunCommand estimates the scene given by the flags and writes the detections as JSON.
func RunCommand(c *cli.Context) error {
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(logger.Sync)

	cfg := houghvoting.DefaultConfig()
	if path := c.Path(flagConfig); path != "" {
		if cfg, err = houghvoting.LoadConfig(path); err != nil {
			return err
		}
	}
	if c.IsSet(flagSeed) {
		cfg.Seed = c.Int64(flagSeed)
	}
	if c.IsSet(flagOptimizer) {
		cfg.Optimizer = c.String(flagOptimizer)
	}
	if err := cfg.CheckValid(); err != nil {
		return err
	}

	scene, err := loadScene(c.Path(flagScene))
	if err != nil {
		return err
	}
	if path := c.Path(flagIntrinsics); path != "" {
		intrinsics, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(path)
		if err != nil {
			return err
		}
		if err := intrinsics.CheckValid(); err != nil {
			return err
		}
		scene.setIntrinsics(intrinsics)
		logger.Debugw("using camera intrinsics", "path", path, "fx", intrinsics.Fx, "fy", intrinsics.Fy)
	}
	inputs, err := scene.inputs()
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := ops.Houghvoting(c.Context, inputs, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "estimation failed")
	}
	records, err := recordsFromOutputs(out)
	if err != nil {
		return err
	}
	logger.Infow("estimated scene", "images", len(scene.Images), "records", len(records), "elapsed", time.Since(start))

	if dir := c.Path(flagOverlay); dir != "" {
		if err := writeOverlays(dir, c.Int(flagScale), scene, records); err != nil {
			return err
		}
		logger.Debugw("wrote overlays", "dir", dir)
	}

	encoder := json.NewEncoder(c.App.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Records []outputRecord `json:"records"`
	}{records})
}

// newLogger logs to the app's error writer so the detections alone go to its writer.
func newLogger(c *cli.Context) (logging.Logger, error) {
	level, err := logging.LevelFromString(c.String(flagLogLevel))
	if err != nil {
		return nil, err
	}
	logger := logging.NewBlankLogger("houghvoting")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(level)
	return logger, nil
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
