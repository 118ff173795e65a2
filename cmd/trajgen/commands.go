package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/trajgen/config"
	"go.viam.com/trajgen/control"
	"go.viam.com/trajgen/drivetrain"
	"go.viam.com/trajgen/drivetrain/fake"
	"go.viam.com/trajgen/generator"
	"go.viam.com/trajgen/logging"
	"go.viam.com/trajgen/modifier"
	"go.viam.com/trajgen/serialize"
	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/visualize"
)

var (
	tankSuffixes   = []string{"_left", "_right"}
	swerveSuffixes = []string{"_fl", "_fr", "_bl", "_br"}
)

func extension(format string) (string, error) {
	switch format {
	case "csv":
		return serialize.CSVSuffix, nil
	case "binary", "bin":
		return ".bin", nil
	case "msgpack":
		return ".msgpack", nil
	default:
		return "", errors.Errorf("unknown format %q", format)
	}
}

func readConfig(path string) (*config.Config, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate("path"); err != nil {
		return nil, err
	}
	return cfg, nil
}

type output struct {
	name string
	traj *trajectory.Trajectory
}

// decompose splits source into per-wheel trajectories named with base.
func decompose(ctx context.Context, source *trajectory.Trajectory, dt config.Drivetrain, base string) ([]output, error) {
	if !dt.IsSwerve() {
		tank, err := modifier.Tank(ctx, source, dt.Width)
		if err != nil {
			return nil, err
		}
		return []output{{base + tankSuffixes[0], tank.Left}, {base + tankSuffixes[1], tank.Right}}, nil
	}
	mode, err := dt.Mode()
	if err != nil {
		return nil, err
	}
	swerve, err := modifier.Swerve(ctx, source, dt.Width, dt.Depth, mode)
	if err != nil {
		return nil, err
	}
	outs := make([]output, 0, len(swerveSuffixes))
	for m, traj := range swerve.All() {
		outs = append(outs, output{base + swerveSuffixes[m], traj})
	}
	return outs, nil
}

// writeAll writes every output concurrently and reports them in order once all succeed.
func writeAll(c *cli.Context, outs []output, ext string) error {
	var g errgroup.Group
	for _, out := range outs {
		g.Go(func() error {
			return serialize.WriteFile(out.name+ext, out.traj)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, out := range outs {
		fmt.Fprintf(c.App.Writer, "wrote %s (%d segments)\n", out.name+ext, out.traj.Len())
	}
	return nil
}

func generateAction(c *cli.Context, logger logging.Logger) error {
	ext, err := extension(c.String(flagFormat))
	if err != nil {
		return err
	}
	cfg, err := readConfig(c.String(flagConfig))
	if err != nil {
		return err
	}
	genCfg, err := cfg.Generation.TrajectoryConfig()
	if err != nil {
		return err
	}

	base := c.String(flagOut)
	source, err := generator.Generate(c.Context, cfg.Waypoints, genCfg, logger)
	if err != nil {
		return err
	}
	wheels, err := decompose(c.Context, source, cfg.Drivetrain, base)
	if err != nil {
		return err
	}
	return writeAll(c, append([]output{{base, source}}, wheels...), ext)
}

func modifyAction(c *cli.Context, logger logging.Logger) error {
	ext, err := extension(c.String(flagFormat))
	if err != nil {
		return err
	}
	source, err := serialize.ReadFile(c.String(flagIn))
	if err != nil {
		return err
	}
	dt := config.Drivetrain{
		Type:       c.String(flagDrivetrain),
		Width:      c.Float64(flagWidth),
		Depth:      c.Float64(flagDepth),
		SwerveMode: c.String(flagMode),
	}
	if err := dt.Validate(flagDrivetrain); err != nil {
		return err
	}
	logger.Debugw("decomposing trajectory", "in", c.String(flagIn), "drivetrain", dt.Type, "segments", source.Len())
	wheels, err := decompose(c.Context, source, dt, c.String(flagOut))
	if err != nil {
		return err
	}
	return writeAll(c, wheels, ext)
}

func infoAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one trajectory file")
	}
	traj, err := serialize.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, serialize.Summarize(traj))
	if c.Bool(flagSegments) {
		fmt.Fprintln(c.App.Writer, serialize.Table(traj, c.Int(flagEvery)))
	}
	return nil
}

func simulateAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := readConfig(c.String(flagConfig))
	if err != nil {
		return err
	}
	if cfg.Drivetrain.SpeedPerOutput <= 0 {
		return errors.New("drivetrain.speed_per_output is required to simulate")
	}
	genCfg, err := cfg.Generation.TrajectoryConfig()
	if err != nil {
		return err
	}
	source, err := generator.Generate(c.Context, cfg.Waypoints, genCfg, logger)
	if err != nil {
		return err
	}

	period := time.Duration(genCfg.DT * float64(time.Second))
	simCfg := fake.Config{
		Width:          cfg.Drivetrain.Width,
		SpeedPerOutput: cfg.Drivetrain.SpeedPerOutput,
		Period:         period,
		Encoder:        cfg.Encoder,
		Gyro:           true,
		InitialHeading: cfg.Waypoints[0].Angle,
	}

	var (
		stepper   drivetrain.Stepper
		followers []*wheelResult
	)
	if cfg.Drivetrain.IsSwerve() {
		mode, err := cfg.Drivetrain.Mode()
		if err != nil {
			return err
		}
		wheels, err := modifier.Swerve(c.Context, source, cfg.Drivetrain.Width, cfg.Drivetrain.Depth, mode)
		if err != nil {
			return err
		}
		// module steering is not simulated, so the body heading comes from the plan
		simCfg.Gyro = false
		drive := fake.NewSwerve(simCfg)
		follower, err := drivetrain.NewSwerveFollower(drive, wheels, cfg.SwerveConfig())
		if err != nil {
			return err
		}
		stepper = follower
		for m, f := range follower.Followers() {
			followers = append(followers, &wheelResult{
				name:     swerveSuffixes[m][1:],
				planned:  f.Trajectory().Length(),
				actual:   func() float64 { return drive.Distances()[m] },
				follower: f,
			})
		}
	} else {
		wheels, err := modifier.Tank(c.Context, source, cfg.Drivetrain.Width)
		if err != nil {
			return err
		}
		drive := fake.NewTank(simCfg)
		follower, err := drivetrain.NewTankFollower(drive, wheels, cfg.TankConfig())
		if err != nil {
			return err
		}
		stepper = follower
		left, right := follower.Followers()
		followers = []*wheelResult{
			{
				name:     "left",
				planned:  wheels.Left.Length(),
				actual:   func() float64 { l, _ := drive.Distances(); return l },
				follower: left,
			},
			{
				name:     "right",
				planned:  wheels.Right.Length(),
				actual:   func() float64 { _, r := drive.Distances(); return r },
				follower: right,
			},
		}
	}

	rec := &recorder{Stepper: stepper, wheels: followers}
	if err := runLoop(c.Context, c.Bool(flagRealtime), period, rec, logger); err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Wheel", "Planned", "Travelled", "Error", "RMS tracking", "Peak tracking"})
	for _, w := range followers {
		actual := w.actual()
		rms, peak, err := w.trackingError()
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{
			w.name,
			fmt.Sprintf("%.4f", w.planned),
			fmt.Sprintf("%.4f", actual),
			fmt.Sprintf("%+.4f", w.planned-actual),
			fmt.Sprintf("%.4f", rms),
			fmt.Sprintf("%.4f", peak),
		})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

type wheelResult struct {
	name     string
	planned  float64
	actual   func() float64
	follower *control.EncoderFollower
	samples  stats.Float64Data
}

func (w *wheelResult) trackingError() (rms, peak float64, err error) {
	if len(w.samples) == 0 {
		return 0, 0, nil
	}
	if rms, err = stats.RootMeanSquare(w.samples); err != nil {
		return 0, 0, err
	}
	abs := make(stats.Float64Data, len(w.samples))
	for i, e := range w.samples {
		abs[i] = math.Abs(e)
	}
	if peak, err = abs.Max(); err != nil {
		return 0, 0, err
	}
	return rms, peak, nil
}

// recorder samples each wheel's position error after every step.
type recorder struct {
	drivetrain.Stepper
	wheels []*wheelResult
}

func (r *recorder) Step(ctx context.Context) error {
	if err := r.Stepper.Step(ctx); err != nil {
		return err
	}
	for _, w := range r.wheels {
		w.samples = append(w.samples, w.follower.LastError())
	}
	return nil
}

// runLoop drives stepper with the wall clock, or with a mock clock advanced as fast as the
// loop consumes ticks.
func runLoop(ctx context.Context, realtime bool, period time.Duration, stepper drivetrain.Stepper, logger logging.Logger) error {
	if realtime {
		return drivetrain.Loop(ctx, clock.New(), period, stepper, logger)
	}
	mock := clock.NewMock()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				mock.Add(period)
			}
		}
	}()
	return drivetrain.Loop(ctx, mock, period, stepper, logger)
}

func plotAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("expected at least one trajectory file")
	}
	series := make([]visualize.Series, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		traj, err := serialize.ReadFile(path)
		if err != nil {
			return err
		}
		series = append(series, visualize.Series{Name: filepath.Base(path), Trajectory: traj})
	}
	out := c.String(flagOut)

	paths, err := visualize.Paths("paths", series...)
	if err != nil {
		return err
	}
	if err := visualize.Save(paths, out+"_paths"+c.String(flagImage)); err != nil {
		return err
	}
	profile, err := visualize.Profile(series[0].Name, series[0].Trajectory)
	if err != nil {
		return err
	}
	if err := visualize.Save(profile, out+"_profile"+c.String(flagImage)); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s_paths%s and %s_profile%s\n", out, c.String(flagImage), out, c.String(flagImage))
	return nil
}
