// Package trajectory defines the waypoints, generation settings and time-indexed segments
// shared by the fitting, profiling, decomposition and following packages.
package trajectory

import (
	"fmt"
	"math"
	"strings"
)

// fuzzyEpsilon is the per-field tolerance used by FuzzyEquals.
const fuzzyEpsilon = 1e-4

// Waypoint is a pose the generated path must pass through. Angle is the exit heading in
// radians, measured counter-clockwise from the +X axis.
type Waypoint struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Angle float64 `json:"angle" yaml:"angle"`
}

func (w Waypoint) String() string {
	return fmt.Sprintf("Waypoint{x=%g, y=%g, angle=%g}", w.X, w.Y, w.Angle)
}

// Segment is one sample of a trajectory. Position is the cumulative arc length travelled
// since the first segment.
type Segment struct {
	DT           float64
	X            float64
	Y            float64
	Position     float64
	Velocity     float64
	Acceleration float64
	Jerk         float64
	Heading      float64
}

// Equals compares every field exactly.
func (s Segment) Equals(other Segment) bool {
	return s == other
}

// FuzzyEquals compares every field with an absolute tolerance of 1e-4.
func (s Segment) FuzzyEquals(other Segment) bool {
	return near(s.DT, other.DT) &&
		near(s.X, other.X) && near(s.Y, other.Y) &&
		near(s.Position, other.Position) && near(s.Velocity, other.Velocity) &&
		near(s.Acceleration, other.Acceleration) && near(s.Jerk, other.Jerk) &&
		near(s.Heading, other.Heading)
}

// Fields returns the segment as an ordered array, in the column order used by every codec.
func (s Segment) Fields() [8]float64 {
	return [8]float64{s.DT, s.X, s.Y, s.Position, s.Velocity, s.Acceleration, s.Jerk, s.Heading}
}

// SegmentFromFields is the inverse of Fields.
func SegmentFromFields(f [8]float64) Segment {
	return Segment{
		DT:           f[0],
		X:            f[1],
		Y:            f[2],
		Position:     f[3],
		Velocity:     f[4],
		Acceleration: f[5],
		Jerk:         f[6],
		Heading:      f[7],
	}
}

func (s Segment) String() string {
	return fmt.Sprintf(
		"Segment{dt=%g, x=%g, y=%g, position=%g, velocity=%g, acceleration=%g, jerk=%g, heading=%g}",
		s.DT, s.X, s.Y, s.Position, s.Velocity, s.Acceleration, s.Jerk, s.Heading,
	)
}

func near(a, b float64) bool {
	return math.Abs(a-b) < fuzzyEpsilon
}

// Trajectory is an immutable, time-ordered sequence of segments. The zero value is an empty
// trajectory. A Trajectory never exposes its backing slice, so it is safe to share between
// goroutines once created.
type Trajectory struct {
	segments []Segment
}

// New copies segs into a new Trajectory.
func New(segs []Segment) *Trajectory {
	owned := make([]Segment, len(segs))
	copy(owned, segs)
	return &Trajectory{segments: owned}
}

// Len returns the number of segments.
func (t *Trajectory) Len() int {
	if t == nil {
		return 0
	}
	return len(t.segments)
}

// Empty reports whether the trajectory has no segments.
func (t *Trajectory) Empty() bool {
	return t.Len() == 0
}

// At returns the i-th segment. It panics if i is out of range, like a slice index.
func (t *Trajectory) At(i int) Segment {
	return t.segments[i]
}

// Last returns the final segment, or false if the trajectory is empty.
func (t *Trajectory) Last() (Segment, bool) {
	if t.Empty() {
		return Segment{}, false
	}
	return t.segments[len(t.segments)-1], true
}

// Segments returns a copy of the segments.
func (t *Trajectory) Segments() []Segment {
	out := make([]Segment, t.Len())
	if t != nil {
		copy(out, t.segments)
	}
	return out
}

// Copy returns a deep, independent copy.
func (t *Trajectory) Copy() *Trajectory {
	return New(t.Segments())
}

// Duration is the sum of every segment's dt after the first, i.e. the time from the first
// sample to the last.
func (t *Trajectory) Duration() float64 {
	var total float64
	for i := 1; i < t.Len(); i++ {
		total += t.segments[i].DT
	}
	return total
}

// Length returns the position of the final segment.
func (t *Trajectory) Length() float64 {
	last, ok := t.Last()
	if !ok {
		return 0
	}
	return last.Position
}

// Equals compares two trajectories segment by segment, exactly.
func (t *Trajectory) Equals(other *Trajectory) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i := 0; i < t.Len(); i++ {
		if !t.segments[i].Equals(other.segments[i]) {
			return false
		}
	}
	return true
}

// FuzzyEquals compares two trajectories segment by segment with Segment.FuzzyEquals.
func (t *Trajectory) FuzzyEquals(other *Trajectory) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i := 0; i < t.Len(); i++ {
		if !t.segments[i].FuzzyEquals(other.segments[i]) {
			return false
		}
	}
	return true
}

func (t *Trajectory) String() string {
	var sb strings.Builder
	sb.WriteString("Trajectory{")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.segments[i].String())
	}
	sb.WriteString("}")
	return sb.String()
}
