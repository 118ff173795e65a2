package modifier

import (
	"context"

	"go.opencensus.io/trace"

	"go.viam.com/trajgen/trajectory"
)

// TankTrajectories are the two sides of a differential drive, plus the centre trajectory
// they were derived from.
type TankTrajectories struct {
	Source *trajectory.Trajectory
	Left   *trajectory.Trajectory
	Right  *trajectory.Trajectory
}

// Tank derives left and right wheel trajectories for a drive base whose wheel sets are
// wheelbaseWidth apart. Each side's velocity, acceleration and jerk are the centre's scaled by
// (1 -/+ width/2 * curvature); positions are offset by width/2 times the heading change since
// the start. Heading, time step and coordinates are shared with the centre, so a straight
// source yields two copies of itself.
func Tank(ctx context.Context, source *trajectory.Trajectory, wheelbaseWidth float64) (TankTrajectories, error) {
	_, span := trace.StartSpan(ctx, "modifier::Tank")
	defer span.End()

	if err := validateDimension("width", wheelbaseWidth); err != nil {
		return TankTrajectories{}, err
	}
	segs := source.Segments()
	tr := estimateTurning(segs)
	half := wheelbaseWidth / 2

	left := make([]trajectory.Segment, len(segs))
	right := make([]trajectory.Segment, len(segs))
	for i, seg := range segs {
		offset := half * tr.heading[i]
		leftScale := 1 - half*tr.curvature[i]
		rightScale := 1 + half*tr.curvature[i]

		l, r := seg, seg
		l.Position = seg.Position - offset
		l.Velocity = seg.Velocity * leftScale
		l.Acceleration = seg.Acceleration * leftScale
		l.Jerk = seg.Jerk * leftScale
		r.Position = seg.Position + offset
		r.Velocity = seg.Velocity * rightScale
		r.Acceleration = seg.Acceleration * rightScale
		r.Jerk = seg.Jerk * rightScale
		left[i], right[i] = l, r
	}
	return TankTrajectories{
		Source: source,
		Left:   trajectory.New(left),
		Right:  trajectory.New(right),
	}, nil
}
