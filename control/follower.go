// Package control tracks a single wheel's trajectory with encoder feedback. One
// EncoderFollower drives one wheel; it is stepped once per control period by its owner and
// holds no timer of its own.
package control

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

var (
	// ErrNoTrajectory is returned by Step when no trajectory has been bound.
	ErrNoTrajectory = errors.New("control: no trajectory bound")
	// ErrEncoderNotConfigured is returned by Step when tick readings cannot be converted to
	// distance yet.
	ErrEncoderNotConfigured = errors.New("control: encoder not configured")
)

// State is the tracking state of an EncoderFollower.
type State int

// Follower states.
const (
	// Idle means no trajectory, or an empty one, is bound.
	Idle State = iota
	Tracking
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Gains are the feedback and feedforward coefficients of the control law
//
//	u = Kp*e + Kd*(e - e_prev)/dt + Kv*v + Ka*a
//
// Ki is carried so configurations round trip, but the law has no integral term and Ki has no
// effect on the output.
type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
	Kv float64 `json:"kv" yaml:"kv"`
	Ka float64 `json:"ka" yaml:"ka"`
}

// EncoderConfig maps raw encoder ticks to linear wheel distance:
// distance = (tick - InitialOffset) / TicksPerRevolution * pi * WheelDiameter.
type EncoderConfig struct {
	InitialOffset      int64   `json:"initial_offset" yaml:"initial_offset"`
	TicksPerRevolution int     `json:"ticks_per_revolution" yaml:"ticks_per_revolution"`
	WheelDiameter      float64 `json:"wheel_diameter" yaml:"wheel_diameter"`
}

// Validate returns an error wrapping trajectory.ErrInvalidInput if the mapping is degenerate.
func (c EncoderConfig) Validate() error {
	if c.TicksPerRevolution <= 0 {
		return errors.Wrapf(trajectory.ErrInvalidInput, "ticks per revolution must be positive, got %d", c.TicksPerRevolution)
	}
	if !utils.IsFinite(c.WheelDiameter) || c.WheelDiameter <= 0 {
		return errors.Wrapf(trajectory.ErrInvalidInput, "wheel diameter must be positive, got %g", c.WheelDiameter)
	}
	return nil
}

// DistancePerTick is the linear distance covered by one encoder tick.
func (c EncoderConfig) DistancePerTick() float64 {
	return math.Pi * c.WheelDiameter / float64(c.TicksPerRevolution)
}

// An EncoderFollower walks a trajectory one segment per Step, comparing the planned position
// against the distance reported by the wheel encoder.
//
// An EncoderFollower is not safe for concurrent use. The trajectory it holds is immutable, so
// several followers may share one.
type EncoderFollower struct {
	traj            *trajectory.Trajectory
	gains           Gains
	encoder         EncoderConfig
	distancePerTick float64

	index     int
	lastError float64
	heading   float64
	last      trajectory.Segment
	stepped   bool
}

// NewEncoderFollower returns an Idle follower.
func NewEncoderFollower() *EncoderFollower {
	return &EncoderFollower{}
}

// NewEncoderFollowerFor returns a follower bound to traj.
func NewEncoderFollowerFor(traj *trajectory.Trajectory) *EncoderFollower {
	f := NewEncoderFollower()
	f.Bind(traj)
	return f
}

// Bind replaces the tracked trajectory and restarts from its first segment. Gains and
// encoder calibration are kept.
func (f *EncoderFollower) Bind(traj *trajectory.Trajectory) {
	f.traj = traj
	f.Reset()
}

// Trajectory returns the bound trajectory, or nil.
func (f *EncoderFollower) Trajectory() *trajectory.Trajectory {
	return f.traj
}

// ConfigureGains sets the controller coefficients.
func (f *EncoderFollower) ConfigureGains(g Gains) {
	f.gains = g
}

// Gains returns the configured coefficients.
func (f *EncoderFollower) Gains() Gains {
	return f.gains
}

// ConfigureEncoder sets the tick to distance mapping. On error the previous mapping is kept.
func (f *EncoderFollower) ConfigureEncoder(cfg EncoderConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.encoder = cfg
	f.distancePerTick = cfg.DistancePerTick()
	return nil
}

// Distance converts an encoder reading to distance travelled since the initial offset.
func (f *EncoderFollower) Distance(tick int64) float64 {
	return float64(tick-f.encoder.InitialOffset) * f.distancePerTick
}

// Step consumes one encoder reading and returns the motor command for this control period,
// advancing to the next segment. Past the end of the trajectory it returns 0 and changes
// nothing. The output is not clamped.
func (f *EncoderFollower) Step(tick int64) (float64, error) {
	if f.traj == nil {
		return 0, ErrNoTrajectory
	}
	if f.index >= f.traj.Len() {
		return 0, nil
	}
	if f.distancePerTick == 0 {
		return 0, ErrEncoderNotConfigured
	}
	return f.StepDistance(f.Distance(tick))
}

// StepDistance is Step for callers that measure distance directly.
func (f *EncoderFollower) StepDistance(distance float64) (float64, error) {
	if f.traj == nil {
		return 0, ErrNoTrajectory
	}
	if f.index >= f.traj.Len() {
		return 0, nil
	}
	seg := f.traj.At(f.index)
	e := seg.Position - distance
	var derivative float64
	if seg.DT > 0 {
		derivative = (e - f.lastError) / seg.DT
	}
	out := f.gains.Kp*e + f.gains.Kd*derivative + f.gains.Kv*seg.Velocity + f.gains.Ka*seg.Acceleration

	f.lastError = e
	f.heading = seg.Heading
	f.last = seg
	f.stepped = true
	f.index++
	return out, nil
}

// Heading is the desired heading recorded by the most recent Step, or 0 before any step.
func (f *EncoderFollower) Heading() float64 {
	return f.heading
}

// Segment returns the segment consumed by the most recent Step.
func (f *EncoderFollower) Segment() (trajectory.Segment, bool) {
	return f.last, f.stepped
}

// Index is the number of segments consumed since the last Bind or Reset.
func (f *EncoderFollower) Index() int {
	return f.index
}

// LastError is the position error computed by the most recent Step.
func (f *EncoderFollower) LastError() float64 {
	return f.lastError
}

// IsFinished reports whether every segment of the bound trajectory has been consumed. A
// follower with nothing bound is not finished; one bound to an empty trajectory is.
func (f *EncoderFollower) IsFinished() bool {
	return f.traj != nil && f.index >= f.traj.Len()
}

// State reports where the follower is in its lifecycle.
func (f *EncoderFollower) State() State {
	switch {
	case f.traj.Empty():
		return Idle
	case f.index >= f.traj.Len():
		return Finished
	default:
		return Tracking
	}
}

// Reset restarts tracking of the bound trajectory from its first segment.
func (f *EncoderFollower) Reset() {
	f.index = 0
	f.lastError = 0
	f.heading = 0
	f.last = trajectory.Segment{}
	f.stepped = false
}
