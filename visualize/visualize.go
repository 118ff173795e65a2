// Package visualize draws trajectories as plots for inspection.
package visualize

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"go.viam.com/trajgen/trajectory"
)

// Default image size used by Save.
const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// Series is a named trajectory to draw.
type Series struct {
	Name       string
	Trajectory *trajectory.Trajectory
}

// Profile plots velocity and acceleration of traj against time.
func Profile(title string, traj *trajectory.Trajectory) (*plot.Plot, error) {
	if traj.Empty() {
		return nil, errors.New("cannot plot an empty trajectory")
	}
	velocity := make(plotter.XYs, traj.Len())
	acceleration := make(plotter.XYs, traj.Len())
	var elapsed float64
	for i := 0; i < traj.Len(); i++ {
		seg := traj.At(i)
		if i > 0 {
			elapsed += seg.DT
		}
		velocity[i] = plotter.XY{X: elapsed, Y: seg.Velocity}
		acceleration[i] = plotter.XY{X: elapsed, Y: seg.Acceleration}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLines(p, "velocity", velocity, "acceleration", acceleration); err != nil {
		return nil, err
	}
	return p, nil
}

// Paths plots the x, y trace of each series on equal axes.
func Paths(title string, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, errors.New("nothing to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	lines := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		if s.Trajectory.Empty() {
			return nil, errors.Errorf("trajectory %q is empty", s.Name)
		}
		pts := make(plotter.XYs, s.Trajectory.Len())
		for i := range pts {
			seg := s.Trajectory.At(i)
			pts[i] = plotter.XY{X: seg.X, Y: seg.Y}
		}
		lines = append(lines, s.Name, pts)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, err
	}
	equalAxes(p)
	return p, nil
}

// equalAxes widens the narrower axis so one unit spans the same length on both.
func equalAxes(p *plot.Plot) {
	xSpan := p.X.Max - p.X.Min
	ySpan := p.Y.Max - p.Y.Min
	ratio := float64(Width / Height)
	if xSpan/ySpan < ratio {
		grow := (ySpan*ratio - xSpan) / 2
		p.X.Min -= grow
		p.X.Max += grow
	} else {
		grow := (xSpan/ratio - ySpan) / 2
		p.Y.Min -= grow
		p.Y.Max += grow
	}
}

// Save writes p to path at the default size. The image format follows the file extension
// (png, svg, pdf, ...).
func Save(p *plot.Plot, path string) error {
	return errors.Wrapf(p.Save(Width, Height, path), "saving plot to %s", path)
}
