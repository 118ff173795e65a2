package spline

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

// maxRelativeAngle is the largest heading, relative to the chord between two waypoints, that
// a Hermite segment can represent as y(x).
const maxRelativeAngle = math.Pi/2 - 1e-6

// hermite is one polynomial segment between two waypoints. It is stored in a local frame whose
// origin is the first waypoint and whose x axis points at the second waypoint, so the curve is
// the graph of y(x) = a x^5 + b x^4 + c x^3 + d x^2 + e x on [0, knot].
type hermite struct {
	origin      r2.Point
	angleOffset float64
	knot        float64

	a, b, c, d, e float64

	// cumulative arc length at x = i*knot/(len(arc)-1)
	arc    []float64
	length float64
	// largest |curvature| seen on the sample grid
	maxCurvature float64
}

func newHermite(from, to trajectory.Waypoint, fit trajectory.FitMethod, samples int) (*hermite, error) {
	delta := r2.Point{X: to.X - from.X, Y: to.Y - from.Y}
	h := &hermite{
		origin:      r2.Point{X: from.X, Y: from.Y},
		angleOffset: math.Atan2(delta.Y, delta.X),
		knot:        delta.Norm(),
	}

	angle0 := utils.BoundRadians(from.Angle - h.angleOffset)
	angle1 := utils.BoundRadians(to.Angle - h.angleOffset)
	if math.Abs(angle0) > maxRelativeAngle || math.Abs(angle1) > maxRelativeAngle {
		return nil, errors.Wrapf(trajectory.ErrInvalidInput,
			"headings %.4f and %.4f point away from the segment between %v and %v", from.Angle, to.Angle, from, to)
	}
	slope0, slope1 := math.Tan(angle0), math.Tan(angle1)
	k := h.knot

	switch fit {
	case trajectory.FitHermiteCubic:
		h.c = (slope0 + slope1) / (k * k)
		h.d = -(2*slope0 + slope1) / k
		h.e = slope0
	case trajectory.FitHermiteQuintic:
		h.a = -(3 * (slope0 + slope1)) / (k * k * k * k)
		h.b = (8*slope0 + 7*slope1) / (k * k * k)
		h.c = -(6*slope0 + 4*slope1) / (k * k)
		h.e = slope0
	default:
		return nil, errors.Wrapf(trajectory.ErrInvalidInput, "unknown fit method %v", fit)
	}

	h.integrate(samples)
	return h, nil
}

// integrate builds the arc-length lookup table from `samples` sub-intervals.
func (h *hermite) integrate(samples int) {
	if samples < 2 {
		samples = 2
	}
	dx := h.knot / float64(samples)
	xs := make([]float64, samples+1)
	speed := make([]float64, samples+1)
	for i := range xs {
		xs[i] = float64(i) * dx
		slope := h.slope(xs[i])
		speed[i] = math.Sqrt(1 + slope*slope)
		if curv := math.Abs(h.localCurvature(xs[i])); curv > h.maxCurvature {
			h.maxCurvature = curv
		}
	}

	steps := make([]float64, samples+1)
	for i := 1; i <= samples; i++ {
		steps[i] = dx * (speed[i-1] + speed[i]) / 2
	}
	h.arc = floats.CumSum(steps, steps)

	// Simpson's rule is more accurate than the trapezoid table for the total; keep the table's
	// shape but pin its end to the better estimate.
	h.length = integrate.Simpsons(xs, speed)
	if trapezoid := h.arc[samples]; trapezoid > 0 {
		floats.Scale(h.length/trapezoid, h.arc)
	}
	h.arc[samples] = h.length
}

func (h *hermite) value(x float64) float64 {
	return ((((h.a*x+h.b)*x+h.c)*x+h.d)*x + h.e) * x
}

func (h *hermite) slope(x float64) float64 {
	return (((5*h.a*x+4*h.b)*x+3*h.c)*x+2*h.d)*x + h.e
}

func (h *hermite) secondDerivative(x float64) float64 {
	return ((20*h.a*x+12*h.b)*x+6*h.c)*x + 2*h.d
}

func (h *hermite) localCurvature(x float64) float64 {
	slope := h.slope(x)
	return h.secondDerivative(x) / math.Pow(1+slope*slope, 1.5)
}

// xAt maps an arc length within this segment to the local x coordinate.
func (h *hermite) xAt(s float64) float64 {
	if s <= 0 {
		return 0
	}
	if s >= h.length {
		return h.knot
	}
	n := len(h.arc) - 1
	i := sort.SearchFloat64s(h.arc, s)
	if i == 0 {
		return 0
	}
	lo, hi := h.arc[i-1], h.arc[i]
	frac := 0.0
	if hi > lo {
		frac = (s - lo) / (hi - lo)
	}
	return (float64(i-1) + frac) * h.knot / float64(n)
}

func (h *hermite) point(x float64) r2.Point {
	local := r2.Point{X: x, Y: h.value(x)}
	sin, cos := math.Sincos(h.angleOffset)
	rotated := r2.Point{X: local.X*cos - local.Y*sin, Y: local.X*sin + local.Y*cos}
	return h.origin.Add(rotated)
}

func (h *hermite) heading(x float64) float64 {
	return utils.BoundRadians(math.Atan(h.slope(x)) + h.angleOffset)
}
