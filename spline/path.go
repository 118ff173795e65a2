// Package spline fits a continuous, arc-length parameterized curve through a sequence of
// waypoints using cubic or quintic Hermite segments.
package spline

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/trajgen/trajectory"
)

// Path is a fitted curve through every waypoint. All lookups take an arc length measured from
// the first waypoint and are clamped to [0, Length()].
type Path struct {
	segments []*hermite
	// arc length at the start of each segment
	starts []float64
	length float64
}

// Fit builds a Path through waypoints. sampleCount is the number of sub-samples per segment
// used to integrate arc length.
func Fit(waypoints []trajectory.Waypoint, fit trajectory.FitMethod, sampleCount int) (*Path, error) {
	if err := trajectory.ValidateWaypoints(waypoints); err != nil {
		return nil, err
	}
	p := &Path{
		segments: make([]*hermite, 0, len(waypoints)-1),
		starts:   make([]float64, 0, len(waypoints)-1),
	}
	for i := 0; i < len(waypoints)-1; i++ {
		h, err := newHermite(waypoints[i], waypoints[i+1], fit, sampleCount)
		if err != nil {
			return nil, errors.Wrapf(err, "waypoints %d and %d", i, i+1)
		}
		p.segments = append(p.segments, h)
		p.starts = append(p.starts, p.length)
		p.length += h.length
	}
	return p, nil
}

// Length is the total arc length of the path.
func (p *Path) Length() float64 {
	return p.length
}

// Segments returns the number of Hermite segments, one per consecutive waypoint pair.
func (p *Path) Segments() int {
	return len(p.segments)
}

func (p *Path) locate(s float64) (*hermite, float64) {
	if s <= 0 {
		return p.segments[0], 0
	}
	if s >= p.length {
		last := p.segments[len(p.segments)-1]
		return last, last.knot
	}
	// index of the last segment starting at or before s
	i := sort.Search(len(p.starts), func(i int) bool { return p.starts[i] > s }) - 1
	h := p.segments[i]
	return h, h.xAt(s - p.starts[i])
}

// Point returns the position at arc length s.
func (p *Path) Point(s float64) r2.Point {
	h, x := p.locate(s)
	return h.point(x)
}

// Heading returns the tangent direction at arc length s, in [-pi, pi).
func (p *Path) Heading(s float64) float64 {
	h, x := p.locate(s)
	return h.heading(x)
}

// Curvature returns the signed curvature at arc length s. Positive values turn
// counter-clockwise.
func (p *Path) Curvature(s float64) float64 {
	h, x := p.locate(s)
	return h.localCurvature(x)
}

// Pose returns position and heading at arc length s with a single lookup.
func (p *Path) Pose(s float64) (r2.Point, float64) {
	h, x := p.locate(s)
	return h.point(x), h.heading(x)
}

// MaxAbsCurvature is the largest |curvature| found on the integration grid.
func (p *Path) MaxAbsCurvature() float64 {
	var peak float64
	for _, h := range p.segments {
		peak = math.Max(peak, h.maxCurvature)
	}
	return peak
}
