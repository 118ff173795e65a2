// Package profile turns a fitted path into a time-sampled, jerk-limited velocity profile.
//
// The profile is the pointwise minimum of three velocity bounds: a forward ramp that leaves
// rest under the acceleration and jerk limits, a backward ramp that arrives at rest at the end
// of the path, and a cruise cap. The cruise cap is chosen so that the two ramps meet with zero
// acceleration, which keeps the combined profile inside the jerk limit where they join.
package profile

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

// bisectIterations bounds the search for the cruise velocity of paths too short to reach
// the velocity limit.
const bisectIterations = 200

// Curve is the geometry the profiler walks.
type Curve interface {
	Length() float64
	// Pose returns position and heading at arc length s.
	Pose(s float64) (r2.Point, float64)
	MaxAbsCurvature() float64
}

// Limits bounds the profile.
type Limits struct {
	MaxVelocity     float64
	MaxAcceleration float64
	MaxJerk         float64
}

func (l Limits) validate() error {
	if !utils.IsFinite(l.MaxVelocity, l.MaxAcceleration, l.MaxJerk) ||
		l.MaxVelocity <= 0 || l.MaxAcceleration <= 0 || l.MaxJerk <= 0 {
		return errors.Wrapf(trajectory.ErrInfeasibleProfile, "limits must be positive: %+v", l)
	}
	return nil
}

// Profile is a planned motion along a path of known length.
type Profile struct {
	length     float64
	ramp       ramp
	cruiseTime float64
	duration   float64
}

// Plan builds the profile for a path of the given length.
func Plan(length float64, limits Limits) (*Profile, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}
	if !utils.IsFinite(length) || length <= 0 {
		return nil, errors.Wrapf(trajectory.ErrInvalidInput, "path length must be positive, got %g", length)
	}

	cruise := limits.MaxVelocity
	r := newRamp(cruise, limits.MaxAcceleration, limits.MaxJerk)
	if 2*r.distance > length {
		// Too short to reach the velocity limit: find the fastest cruise whose ramps fit.
		lo, hi := 0.0, cruise
		for i := 0; i < bisectIterations && hi-lo > 1e-15*cruise; i++ {
			mid := (lo + hi) / 2
			if 2*newRamp(mid, limits.MaxAcceleration, limits.MaxJerk).distance > length {
				hi = mid
			} else {
				lo = mid
			}
		}
		cruise = lo
		r = newRamp(cruise, limits.MaxAcceleration, limits.MaxJerk)
	}

	p := &Profile{length: length, ramp: r}
	if cruise > 0 {
		p.cruiseTime = math.Max(0, (length-2*r.distance)/cruise)
	}
	p.duration = 2*r.duration + p.cruiseTime
	return p, nil
}

// Duration is the time from rest to rest.
func (p *Profile) Duration() float64 {
	return p.duration
}

// CruiseVelocity is the highest velocity reached.
func (p *Profile) CruiseVelocity() float64 {
	return p.ramp.cruise
}

// Length is the distance covered.
func (p *Profile) Length() float64 {
	return p.length
}

// At returns the state t seconds after the start.
func (p *Profile) At(t float64) State {
	if t >= p.duration {
		return State{Position: p.length}
	}
	forward := p.ramp.state(t)
	back := p.ramp.state(p.duration - t)
	if back.Velocity < forward.Velocity {
		// mirrored in time: acceleration flips sign, jerk does not
		return State{
			Position:     p.length - back.Position,
			Velocity:     back.Velocity,
			Acceleration: -back.Acceleration,
			Jerk:         back.Jerk,
		}
	}
	return forward
}

// Sample evaluates the profile every dt seconds from 0, plus a final sample at Duration().
// The final interval is at most dt.
func (p *Profile) Sample(dt float64) []State {
	intervals := int(math.Ceil(p.duration/dt - 1e-9))
	if intervals < 1 {
		intervals = 1
	}
	states := make([]State, intervals+1)
	for i := 0; i < intervals; i++ {
		states[i] = p.At(float64(i) * dt)
	}
	states[intervals] = State{Position: p.length}
	return states
}

// Build profiles curve under cfg and samples it into a trajectory. Each segment's position,
// heading and coordinates come from the curve at that segment's arc length.
func Build(curve Curve, cfg trajectory.Config) (*trajectory.Trajectory, *Profile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	limits := Limits{
		MaxVelocity:     cfg.MaxVelocity,
		MaxAcceleration: cfg.MaxAcceleration,
		MaxJerk:         cfg.MaxJerk,
	}
	if cfg.LimitCurvature {
		if k := curve.MaxAbsCurvature(); k > 0 {
			limits.MaxVelocity = math.Min(limits.MaxVelocity, math.Sqrt(cfg.MaxAcceleration/k))
		}
	}
	p, err := Plan(curve.Length(), limits)
	if err != nil {
		return nil, nil, err
	}

	states := p.Sample(cfg.DT)
	segs := make([]trajectory.Segment, len(states))
	var prevPos float64
	for i, st := range states {
		pos := utils.Clamp(st.Position, prevPos, p.length)
		pt, heading := curve.Pose(pos)
		dt := cfg.DT
		if i == len(states)-1 && i > 0 {
			dt = p.duration - float64(i-1)*cfg.DT
		}
		segs[i] = trajectory.Segment{
			DT:           dt,
			X:            pt.X,
			Y:            pt.Y,
			Position:     pos,
			Velocity:     st.Velocity,
			Acceleration: st.Acceleration,
			Jerk:         st.Jerk,
			Heading:      heading,
		}
		prevPos = pos
	}
	return trajectory.New(segs), p, nil
}
