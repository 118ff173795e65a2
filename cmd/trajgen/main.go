// Package main is the trajgen command, which generates, decomposes, inspects and simulates
// trajectories described by path files.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"go.viam.com/trajgen/logging"
)

const (
	// Flags.
	flagConfig     = "config"
	flagOut        = "out"
	flagFormat     = "format"
	flagIn         = "in"
	flagDrivetrain = "drivetrain"
	flagWidth      = "width"
	flagDepth      = "depth"
	flagMode       = "swerve-mode"
	flagEvery      = "every"
	flagSegments   = "segments"
	flagRealtime   = "realtime"
	flagImage      = "image"
	flagDebug      = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var logger logging.Logger

	formatFlag := &cli.StringFlag{
		Name:  flagFormat,
		Value: "csv",
		Usage: "output encoding: csv, binary or msgpack",
	}

	return &cli.App{
		Name:  "trajgen",
		Usage: "generate and follow jerk limited trajectories",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("trajgen")
			} else {
				logger = logging.NewLogger("trajgen")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "generate the centre and per-wheel trajectories of a path file",
				UsageText: "trajgen generate --config FILE --out BASE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "path file `FILE`",
					},
					&cli.StringFlag{
						Name:     flagOut,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "output file name without suffix",
					},
					formatFlag,
				},
				Action: func(c *cli.Context) error {
					return generateAction(c, logger)
				},
			},
			{
				Name:      "modify",
				Usage:     "decompose an existing centre trajectory for a drivetrain",
				UsageText: "trajgen modify --in FILE --drivetrain tank --width W --out BASE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagIn,
						Required: true,
						Usage:    "centre trajectory `FILE`",
					},
					&cli.StringFlag{
						Name:  flagDrivetrain,
						Value: "tank",
						Usage: "tank or swerve",
					},
					&cli.Float64Flag{
						Name:     flagWidth,
						Required: true,
						Usage:    "distance between left and right wheels",
					},
					&cli.Float64Flag{
						Name:  flagDepth,
						Usage: "distance between front and back modules (swerve)",
					},
					&cli.StringFlag{
						Name:  flagMode,
						Value: "default",
						Usage: "swerve mode: default, rear_lead or minimal_rotation",
					},
					&cli.StringFlag{
						Name:     flagOut,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "output file name without suffix",
					},
					formatFlag,
				},
				Action: func(c *cli.Context) error {
					return modifyAction(c, logger)
				},
			},
			{
				Name:      "info",
				Usage:     "summarize a trajectory file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagSegments,
						Usage: "also print segments",
					},
					&cli.IntFlag{
						Name:  flagEvery,
						Value: 10,
						Usage: "print every n-th segment",
					},
				},
				Action: infoAction,
			},
			{
				Name:  "simulate",
				Usage: "follow a path file on a simulated drive and report tracking error",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "path file `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "step at wall clock speed instead of as fast as possible",
					},
				},
				Action: func(c *cli.Context) error {
					return simulateAction(c, logger)
				},
			},
			{
				Name:      "plot",
				Usage:     "plot the paths of trajectory files and the profile of the first",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOut,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "image file name without suffix",
					},
					&cli.StringFlag{
						Name:  flagImage,
						Value: ".png",
						Usage: "image suffix: .png, .svg or .pdf",
					},
				},
				Action: plotAction,
			},
		},
	}
}
