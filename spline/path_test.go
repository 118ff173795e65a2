package spline

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/trajgen/trajectory"
)

func TestFitStraightLine(t *testing.T) {
	for _, fit := range []trajectory.FitMethod{trajectory.FitHermiteCubic, trajectory.FitHermiteQuintic} {
		t.Run(fit.String(), func(t *testing.T) {
			p, err := Fit([]trajectory.Waypoint{{X: 0, Y: 0, Angle: 0}, {X: 10, Y: 0, Angle: 0}}, fit, trajectory.SamplesFast)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, p.Segments(), test.ShouldEqual, 1)
			test.That(t, p.Length(), test.ShouldAlmostEqual, 10, 1e-9)

			pt := p.Point(2.5)
			test.That(t, pt.X, test.ShouldAlmostEqual, 2.5, 1e-9)
			test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 1e-9)
			test.That(t, p.Heading(2.5), test.ShouldAlmostEqual, 0, 1e-12)
			test.That(t, p.Curvature(7), test.ShouldAlmostEqual, 0, 1e-12)
			test.That(t, p.MaxAbsCurvature(), test.ShouldAlmostEqual, 0, 1e-12)

			// lookups clamp to the ends
			test.That(t, p.Point(-1).X, test.ShouldAlmostEqual, 0, 1e-12)
			test.That(t, p.Point(50).X, test.ShouldAlmostEqual, 10, 1e-9)
		})
	}
}

func TestFitPassesThroughWaypoints(t *testing.T) {
	waypoints := []trajectory.Waypoint{
		{X: -4, Y: -1, Angle: -math.Pi / 4},
		{X: -2, Y: -2, Angle: 0},
		{X: 0, Y: 0, Angle: math.Pi / 4},
		{X: 3, Y: 1, Angle: 0},
	}
	for _, fit := range []trajectory.FitMethod{trajectory.FitHermiteCubic, trajectory.FitHermiteQuintic} {
		t.Run(fit.String(), func(t *testing.T) {
			p, err := Fit(waypoints, fit, trajectory.SamplesLow)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, p.Segments(), test.ShouldEqual, 3)
			for i, start := range p.starts {
				pt, heading := p.Pose(start)
				test.That(t, pt.X, test.ShouldAlmostEqual, waypoints[i].X, 1e-9)
				test.That(t, pt.Y, test.ShouldAlmostEqual, waypoints[i].Y, 1e-9)
				test.That(t, heading, test.ShouldAlmostEqual, waypoints[i].Angle, 1e-9)
			}
			end, heading := p.Pose(p.Length())
			test.That(t, end.X, test.ShouldAlmostEqual, 3, 1e-9)
			test.That(t, end.Y, test.ShouldAlmostEqual, 1, 1e-9)
			test.That(t, heading, test.ShouldAlmostEqual, 0, 1e-9)

			// arc length is at least the chord length
			test.That(t, p.Length(), test.ShouldBeGreaterThan, math.Hypot(2, 1)+math.Hypot(2, 2)+math.Hypot(3, 1))
		})
	}
}

func TestFitCurvature(t *testing.T) {
	waypoints := []trajectory.Waypoint{{X: 0, Y: 0, Angle: 0}, {X: 1, Y: 1, Angle: math.Pi / 2}}

	cubic, err := Fit(waypoints, trajectory.FitHermiteCubic, trajectory.SamplesLow)
	test.That(t, err, test.ShouldBeNil)
	for s := 0.0; s <= cubic.Length(); s += cubic.Length() / 50 {
		test.That(t, cubic.Curvature(s), test.ShouldBeGreaterThan, 0)
	}
	test.That(t, cubic.MaxAbsCurvature(), test.ShouldBeGreaterThan, 0)

	quintic, err := Fit(waypoints, trajectory.FitHermiteQuintic, trajectory.SamplesLow)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, quintic.Curvature(0), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, quintic.Curvature(quintic.Length()), test.ShouldAlmostEqual, 0, 1e-9)
	// the quintic pays for zero end curvature with a sharper middle
	test.That(t, quintic.MaxAbsCurvature(), test.ShouldBeGreaterThan, cubic.MaxAbsCurvature())
}

func TestArcLengthConverges(t *testing.T) {
	waypoints := []trajectory.Waypoint{{X: 0, Y: 0, Angle: 0}, {X: 1, Y: 1, Angle: math.Pi / 2}}
	fast, err := Fit(waypoints, trajectory.FitHermiteCubic, trajectory.SamplesFast)
	test.That(t, err, test.ShouldBeNil)
	high, err := Fit(waypoints, trajectory.FitHermiteCubic, trajectory.SamplesHigh)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fast.Length(), test.ShouldAlmostEqual, high.Length(), 1e-6)

	// lookups are monotonic in arc length
	prev := -1.0
	for s := 0.0; s <= high.Length(); s += 0.01 {
		x := high.Point(s).X
		test.That(t, x, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = x
	}
}

func TestFitErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		waypoints []trajectory.Waypoint
	}{
		{"none", nil},
		{"one", []trajectory.Waypoint{{X: 1, Y: 1}}},
		{"coincident", []trajectory.Waypoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0, Angle: 1}}},
		{"perpendicular exit", []trajectory.Waypoint{{X: 0, Y: 0, Angle: math.Pi / 2}, {X: 1, Y: 0}}},
		{"reversed entry", []trajectory.Waypoint{{X: 0, Y: 0}, {X: 1, Y: 0, Angle: math.Pi}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Fit(tc.waypoints, trajectory.FitHermiteCubic, trajectory.SamplesFast)
			test.That(t, p, test.ShouldBeNil)
			test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
		})
	}
}

func TestFitErrorNamesWaypoints(t *testing.T) {
	waypoints := []trajectory.Waypoint{{X: 0, Y: 0}, {X: 1, Y: 1, Angle: 1.5}, {X: 2, Y: 0, Angle: -1.5}}
	_, err := Fit(waypoints, trajectory.FitHermiteQuintic, trajectory.SamplesFast)
	test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "waypoints 1 and 2")
}
