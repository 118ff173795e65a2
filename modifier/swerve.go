package modifier

import (
	"context"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

// SwerveMode picks how the body is oriented along the path and how modules steer.
type SwerveMode int

const (
	// SwerveModeDefault drives with the front pair of modules leading.
	SwerveModeDefault SwerveMode = iota
	// SwerveModeRearLead drives the body backwards along the path, so the back pair leads.
	SwerveModeRearLead
	// SwerveModeMinimalRotation keeps each module within 90 degrees of its previous angle and
	// reverses the module's drive direction instead of turning it further.
	SwerveModeMinimalRotation
)

func (m SwerveMode) String() string {
	switch m {
	case SwerveModeDefault:
		return "default"
	case SwerveModeRearLead:
		return "rear_lead"
	case SwerveModeMinimalRotation:
		return "minimal_rotation"
	default:
		return "unknown"
	}
}

// ParseSwerveMode is the inverse of SwerveMode.String. The empty string is the default mode.
func ParseSwerveMode(s string) (SwerveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return SwerveModeDefault, nil
	case "rear_lead":
		return SwerveModeRearLead, nil
	case "minimal_rotation":
		return SwerveModeMinimalRotation, nil
	default:
		return 0, errors.Wrapf(trajectory.ErrInvalidInput, "unknown swerve mode %q", s)
	}
}

// Module indexes the four corners of a swerve drive.
type Module int

// Corner order of SwerveTrajectories.All.
const (
	FrontLeft Module = iota
	FrontRight
	BackLeft
	BackRight
)

// SwerveTrajectories holds one trajectory per module. Each module's Heading is its steering
// angle in the world frame; X and Y are the module's position.
type SwerveTrajectories struct {
	Source     *trajectory.Trajectory
	Mode       SwerveMode
	FrontLeft  *trajectory.Trajectory
	FrontRight *trajectory.Trajectory
	BackLeft   *trajectory.Trajectory
	BackRight  *trajectory.Trajectory
}

// All returns the module trajectories in FrontLeft, FrontRight, BackLeft, BackRight order.
func (s SwerveTrajectories) All() [4]*trajectory.Trajectory {
	return [4]*trajectory.Trajectory{s.FrontLeft, s.FrontRight, s.BackLeft, s.BackRight}
}

// BodyHeading is the planned heading of the drive base at segment i of Source.
func (s SwerveTrajectories) BodyHeading(i int) float64 {
	h := s.Source.At(i).Heading
	if s.Mode == SwerveModeRearLead {
		h = utils.BoundRadians(h + math.Pi)
	}
	return h
}

// corner returns the module offset in the body frame (x forward, y left).
func corner(m Module, width, depth float64) r2.Point {
	x, y := depth/2, width/2
	switch m {
	case FrontRight:
		y = -y
	case BackLeft:
		x = -x
	case BackRight:
		x, y = -x, -y
	case FrontLeft:
	}
	return r2.Point{X: x, Y: y}
}

// Swerve derives one trajectory per module of a swerve drive whose modules sit at
// (+/-depth/2, +/-width/2) from the centre. A module moving with the body at curvature k
// travels along (1 - k*y, k*x) in the body frame per unit of centre speed; the length of that
// vector scales velocity, acceleration and jerk, and its direction is the steering angle.
func Swerve(
	ctx context.Context,
	source *trajectory.Trajectory,
	wheelbaseWidth, wheelbaseDepth float64,
	mode SwerveMode,
) (SwerveTrajectories, error) {
	_, span := trace.StartSpan(ctx, "modifier::Swerve")
	defer span.End()

	if err := validateDimension("width", wheelbaseWidth); err != nil {
		return SwerveTrajectories{}, err
	}
	if err := validateDimension("depth", wheelbaseDepth); err != nil {
		return SwerveTrajectories{}, err
	}
	if mode < SwerveModeDefault || mode > SwerveModeMinimalRotation {
		return SwerveTrajectories{}, errors.Wrapf(trajectory.ErrInvalidInput, "unknown swerve mode %d", int(mode))
	}

	segs := source.Segments()
	tr := estimateTurning(segs)
	forward, bodyOffset := 1.0, 0.0
	if mode == SwerveModeRearLead {
		forward, bodyOffset = -1, math.Pi
	}

	var out [4]*trajectory.Trajectory
	for m := FrontLeft; m <= BackRight; m++ {
		offset := corner(m, wheelbaseWidth, wheelbaseDepth)
		wheel := make([]trajectory.Segment, len(segs))
		var prevGain, prevAngle float64
		for i, seg := range segs {
			k := tr.curvature[i]
			dir := r2.Point{X: forward - k*offset.Y, Y: k * offset.X}
			gain := dir.Norm()
			body := seg.Heading + bodyOffset
			angle := utils.BoundRadians(body + math.Atan2(dir.Y, dir.X))

			sign := 1.0
			if mode == SwerveModeMinimalRotation && i > 0 {
				if math.Abs(utils.AngleDiff(prevAngle, angle)) > math.Pi/2 {
					angle = utils.BoundRadians(angle + math.Pi)
					sign = -1
				}
			}

			sin, cos := math.Sincos(body)
			w := seg
			w.X = seg.X + offset.X*cos - offset.Y*sin
			w.Y = seg.Y + offset.X*sin + offset.Y*cos
			w.Velocity = sign * gain * seg.Velocity
			w.Acceleration = sign * gain * seg.Acceleration
			w.Jerk = sign * gain * seg.Jerk
			w.Heading = angle
			if i == 0 {
				w.Position = 0
			} else {
				step := seg.Position - segs[i-1].Position
				w.Position = wheel[i-1].Position + sign*step*(prevGain+gain)/2
			}
			wheel[i] = w
			prevGain, prevAngle = gain, angle
		}
		out[m] = trajectory.New(wheel)
	}

	return SwerveTrajectories{
		Source:     source,
		Mode:       mode,
		FrontLeft:  out[FrontLeft],
		FrontRight: out[FrontRight],
		BackLeft:   out[BackLeft],
		BackRight:  out[BackRight],
	}, nil
}
