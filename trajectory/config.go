package trajectory

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/trajgen/utils"
)

// FitMethod selects the interpolation basis used between consecutive waypoints.
type FitMethod int

const (
	// FitHermiteCubic matches position and tangent at every waypoint.
	FitHermiteCubic FitMethod = iota
	// FitHermiteQuintic additionally holds curvature at zero at every waypoint so the heading
	// rate is continuous across waypoints.
	FitHermiteQuintic
)

func (f FitMethod) String() string {
	switch f {
	case FitHermiteCubic:
		return "hermite_cubic"
	case FitHermiteQuintic:
		return "hermite_quintic"
	default:
		return "FitMethod(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFitMethod accepts "cubic", "quintic" or the full String() names.
func ParseFitMethod(s string) (FitMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cubic", "hermite_cubic":
		return FitHermiteCubic, nil
	case "quintic", "hermite_quintic":
		return FitHermiteQuintic, nil
	default:
		return 0, errors.Wrapf(ErrInvalidInput, "unknown fit method %q", s)
	}
}

// Sample counts used to approximate arc length. More samples give a more accurate
// arc length at linear cost; they do not change the number of output segments.
const (
	SamplesFast = 1000
	SamplesLow  = SamplesFast * 10
	SamplesHigh = SamplesLow * 10
)

// ParseSampleCount accepts "fast", "low", "high" or a positive integer.
func ParseSampleCount(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return SamplesFast, nil
	case "low":
		return SamplesLow, nil
	case "", "high":
		return SamplesHigh, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.Wrapf(ErrInvalidInput, "sample count must be fast, low, high or a positive integer, got %q", s)
	}
	return n, nil
}

// Defaults matching common small ground robots.
const (
	DefaultMaxAcceleration = 2.0
	DefaultMaxJerk         = 60.0
)

// Config holds the rules a generated trajectory must follow.
type Config struct {
	Fit FitMethod
	// SampleCount is the number of sub-samples per waypoint pair used to integrate arc length.
	SampleCount int
	// DT is the time between output segments, in seconds.
	DT              float64
	MaxVelocity     float64
	MaxAcceleration float64
	MaxJerk         float64
	// LimitCurvature additionally caps velocity so that v^2 * |curvature| never exceeds
	// MaxAcceleration anywhere on the path.
	LimitCurvature bool
}

// Validate reports an InvalidInput error for a bad sample count or dt, and an
// InfeasibleProfile error when the motion limits cannot be met by any profile.
func (c Config) Validate() error {
	if c.Fit != FitHermiteCubic && c.Fit != FitHermiteQuintic {
		return errors.Wrapf(ErrInvalidInput, "unknown fit method %d", int(c.Fit))
	}
	if c.SampleCount <= 0 {
		return errors.Wrapf(ErrInvalidInput, "sample count must be positive, got %d", c.SampleCount)
	}
	if !utils.IsFinite(c.DT) || c.DT <= 0 {
		return errors.Wrapf(ErrInvalidInput, "dt must be positive, got %g", c.DT)
	}
	for _, limit := range []struct {
		name  string
		value float64
	}{
		{"max velocity", c.MaxVelocity},
		{"max acceleration", c.MaxAcceleration},
		{"max jerk", c.MaxJerk},
	} {
		if !utils.IsFinite(limit.value) || limit.value <= 0 {
			return errors.Wrapf(ErrInfeasibleProfile, "%s must be positive, got %g", limit.name, limit.value)
		}
	}
	return nil
}
