package modifier

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/trajgen/generator"
	"go.viam.com/trajgen/logging"
	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

func testConfig() trajectory.Config {
	return trajectory.Config{
		Fit:             trajectory.FitHermiteCubic,
		SampleCount:     trajectory.SamplesFast,
		DT:              0.02,
		MaxVelocity:     1.5,
		MaxAcceleration: 2,
		MaxJerk:         60,
	}
}

func generate(t *testing.T, waypoints ...trajectory.Waypoint) *trajectory.Trajectory {
	t.Helper()
	traj, err := generator.Generate(context.Background(), waypoints, testConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return traj
}

func straight(t *testing.T) *trajectory.Trajectory {
	return generate(t, trajectory.Waypoint{X: 0, Y: 0}, trajectory.Waypoint{X: 4, Y: 0})
}

// leftTurn is a quarter turn to the left.
func leftTurn(t *testing.T) *trajectory.Trajectory {
	return generate(t, trajectory.Waypoint{X: 0, Y: 0, Angle: 0}, trajectory.Waypoint{X: 2, Y: 2, Angle: math.Pi / 2})
}

func TestTankStraight(t *testing.T) {
	source := straight(t)
	tank, err := Tank(context.Background(), source, 0.6)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tank.Source, test.ShouldEqual, source)
	test.That(t, tank.Left.Equals(source), test.ShouldBeTrue)
	test.That(t, tank.Right.Equals(source), test.ShouldBeTrue)
}

func TestTankTurn(t *testing.T) {
	const width = 0.6
	source := leftTurn(t)
	tank, err := Tank(context.Background(), source, width)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tank.Left.Len(), test.ShouldEqual, source.Len())
	test.That(t, tank.Right.Len(), test.ShouldEqual, source.Len())

	for i := 0; i < source.Len(); i++ {
		centre, left, right := source.At(i), tank.Left.At(i), tank.Right.At(i)
		test.That(t, right.Velocity, test.ShouldBeGreaterThanOrEqualTo, left.Velocity)
		test.That(t, left.DT, test.ShouldEqual, centre.DT)
		test.That(t, right.Heading, test.ShouldEqual, centre.Heading)
		test.That(t, left.X, test.ShouldEqual, centre.X)
		test.That(t, (left.Velocity+right.Velocity)/2, test.ShouldAlmostEqual, centre.Velocity, 1e-9)
	}

	left, _ := tank.Left.Last()
	right, _ := tank.Right.Last()
	centre, _ := source.Last()
	test.That(t, right.Position-left.Position, test.ShouldAlmostEqual, width*math.Pi/2, 1e-6)
	test.That(t, (left.Position+right.Position)/2, test.ShouldAlmostEqual, centre.Position, 1e-9)
}

func TestTankInvalidWidth(t *testing.T) {
	source := straight(t)
	for _, w := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Tank(context.Background(), source, w)
		test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
	}
}

func TestTankEmpty(t *testing.T) {
	tank, err := Tank(context.Background(), trajectory.New(nil), 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tank.Left.Empty(), test.ShouldBeTrue)
	test.That(t, tank.Right.Empty(), test.ShouldBeTrue)
}

func TestSwerveStraight(t *testing.T) {
	const width, depth = 0.6, 0.8
	source := straight(t)
	swerve, err := Swerve(context.Background(), source, width, depth, SwerveModeDefault)
	test.That(t, err, test.ShouldBeNil)

	offsets := [4][2]float64{{depth / 2, width / 2}, {depth / 2, -width / 2}, {-depth / 2, width / 2}, {-depth / 2, -width / 2}}
	for m, wheel := range swerve.All() {
		test.That(t, wheel.Len(), test.ShouldEqual, source.Len())
		for i := 0; i < source.Len(); i++ {
			centre, seg := source.At(i), wheel.At(i)
			test.That(t, seg.Velocity, test.ShouldEqual, centre.Velocity)
			test.That(t, seg.Acceleration, test.ShouldEqual, centre.Acceleration)
			test.That(t, seg.Position, test.ShouldAlmostEqual, centre.Position, 1e-9)
			test.That(t, seg.Heading, test.ShouldAlmostEqual, 0, 1e-12)
			test.That(t, seg.X, test.ShouldAlmostEqual, centre.X+offsets[m][0], 1e-12)
			test.That(t, seg.Y, test.ShouldAlmostEqual, centre.Y+offsets[m][1], 1e-12)
		}
	}
}

func TestSwerveRearLead(t *testing.T) {
	const width, depth = 0.6, 0.8
	source := straight(t)
	swerve, err := Swerve(context.Background(), source, width, depth, SwerveModeRearLead)
	test.That(t, err, test.ShouldBeNil)

	// the body faces backwards, so the front left module trails on the right
	for i := 0; i < source.Len(); i++ {
		centre, fl := source.At(i), swerve.FrontLeft.At(i)
		test.That(t, fl.X, test.ShouldAlmostEqual, centre.X-depth/2, 1e-12)
		test.That(t, fl.Y, test.ShouldAlmostEqual, centre.Y-width/2, 1e-12)
		test.That(t, fl.Velocity, test.ShouldEqual, centre.Velocity)
		test.That(t, utils.AngleDiff(fl.Heading, centre.Heading), test.ShouldAlmostEqual, 0, 1e-12)
	}
}

func TestSwerveTurn(t *testing.T) {
	source := leftTurn(t)
	swerve, err := Swerve(context.Background(), source, 0.6, 0.6, SwerveModeDefault)
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < source.Len(); i++ {
		test.That(t, swerve.FrontRight.At(i).Velocity, test.ShouldBeGreaterThanOrEqualTo, swerve.FrontLeft.At(i).Velocity)
		test.That(t, swerve.BackRight.At(i).Velocity, test.ShouldBeGreaterThanOrEqualTo, swerve.BackLeft.At(i).Velocity)
	}
	fl, _ := swerve.FrontLeft.Last()
	fr, _ := swerve.FrontRight.Last()
	test.That(t, fr.Position, test.ShouldBeGreaterThan, fl.Position)
}

func TestSwerveMinimalRotation(t *testing.T) {
	// a sharp spin that swings the front left module past a right angle between samples
	source := trajectory.New([]trajectory.Segment{
		{DT: 0.1, Position: 0, Velocity: 1, Heading: 0},
		{DT: 0.1, Position: 1, Velocity: 1, Heading: 0},
		{DT: 0.1, Position: 1.1, Velocity: 1, Heading: 0.3},
		{DT: 0.1, Position: 1.2, Velocity: 1, Heading: 0.6},
	})
	ctx := context.Background()
	plain, err := Swerve(ctx, source, 2, 2, SwerveModeDefault)
	test.That(t, err, test.ShouldBeNil)
	minimal, err := Swerve(ctx, source, 2, 2, SwerveModeMinimalRotation)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, math.Abs(utils.AngleDiff(plain.FrontLeft.At(1).Heading, plain.FrontLeft.At(2).Heading)),
		test.ShouldBeGreaterThan, math.Pi/2)

	for m, wheel := range minimal.All() {
		for i := 1; i < wheel.Len(); i++ {
			step := utils.AngleDiff(wheel.At(i-1).Heading, wheel.At(i).Heading)
			test.That(t, math.Abs(step), test.ShouldBeLessThanOrEqualTo, math.Pi/2)

			p, q := plain.All()[m].At(i), wheel.At(i)
			if q.Velocity == p.Velocity {
				test.That(t, q.Heading, test.ShouldAlmostEqual, p.Heading, 1e-12)
			} else {
				test.That(t, q.Velocity, test.ShouldAlmostEqual, -p.Velocity, 1e-12)
				test.That(t, math.Abs(utils.AngleDiff(p.Heading, q.Heading)), test.ShouldAlmostEqual, math.Pi, 1e-9)
			}
		}
	}
	test.That(t, minimal.FrontLeft.At(2).Velocity, test.ShouldBeLessThan, 0)
}

func TestSwerveInvalid(t *testing.T) {
	source := straight(t)
	ctx := context.Background()
	_, err := Swerve(ctx, source, 0, 1, SwerveModeDefault)
	test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
	_, err = Swerve(ctx, source, 1, -1, SwerveModeDefault)
	test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
	_, err = Swerve(ctx, source, 1, math.NaN(), SwerveModeDefault)
	test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
	_, err = Swerve(ctx, source, 1, 1, SwerveMode(7))
	test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
}

func TestParseSwerveMode(t *testing.T) {
	for _, m := range []SwerveMode{SwerveModeDefault, SwerveModeRearLead, SwerveModeMinimalRotation} {
		parsed, err := ParseSwerveMode(m.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, m)
	}
	parsed, err := ParseSwerveMode("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parsed, test.ShouldEqual, SwerveModeDefault)
	_, err = ParseSwerveMode("sideways")
	test.That(t, errors.Is(err, trajectory.ErrInvalidInput), test.ShouldBeTrue)
}
