package profile

import "math"

// State is the kinematic state of the profile at one instant.
type State struct {
	Position     float64
	Velocity     float64
	Acceleration float64
	Jerk         float64
}

// ramp is a jerk-limited acceleration from rest to a cruise velocity: jerk up, hold
// acceleration, jerk down. When the cruise velocity is too low to reach the acceleration
// limit the hold phase vanishes and acceleration peaks below the limit.
type ramp struct {
	jerk   float64
	accel  float64 // peak acceleration actually reached
	cruise float64

	tJerk  float64 // duration of each jerk phase
	tConst float64 // duration of the constant acceleration phase

	duration float64
	distance float64
}

func newRamp(cruise, maxAccel, maxJerk float64) ramp {
	r := ramp{jerk: maxJerk, cruise: cruise}
	if cruise >= maxAccel*maxAccel/maxJerk {
		r.tJerk = maxAccel / maxJerk
		r.accel = maxAccel
		r.tConst = cruise/maxAccel - r.tJerk
	} else {
		r.tJerk = math.Sqrt(cruise / maxJerk)
		r.accel = maxJerk * r.tJerk
	}
	r.duration = 2*r.tJerk + r.tConst
	// acceleration is symmetric about the midpoint, so the mean velocity is half the cruise
	r.distance = cruise * r.duration / 2
	return r
}

// state evaluates the ramp t seconds after leaving rest. Past the end of the ramp the
// state continues at cruise velocity.
func (r ramp) state(t float64) State {
	if t <= 0 {
		return State{Jerk: r.jerk}
	}
	j := r.jerk
	t1 := r.tJerk
	if t < t1 {
		return State{
			Position:     j * t * t * t / 6,
			Velocity:     j * t * t / 2,
			Acceleration: j * t,
			Jerk:         j,
		}
	}
	v1 := j * t1 * t1 / 2
	s1 := j * t1 * t1 * t1 / 6
	if t < t1+r.tConst {
		tau := t - t1
		return State{
			Position:     s1 + v1*tau + r.accel*tau*tau/2,
			Velocity:     v1 + r.accel*tau,
			Acceleration: r.accel,
		}
	}
	tc := r.tConst
	v2 := v1 + r.accel*tc
	s2 := s1 + v1*tc + r.accel*tc*tc/2
	if t < r.duration {
		tau := t - t1 - tc
		return State{
			Position:     s2 + v2*tau + r.accel*tau*tau/2 - j*tau*tau*tau/6,
			Velocity:     v2 + r.accel*tau - j*tau*tau/2,
			Acceleration: r.accel - j*tau,
			Jerk:         -j,
		}
	}
	return State{
		Position: r.distance + r.cruise*(t-r.duration),
		Velocity: r.cruise,
	}
}
