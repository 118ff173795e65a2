package trajectory

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/trajgen/utils"
)

// minWaypointSpacing is the distance below which two waypoints are treated as the same point.
const minWaypointSpacing = 1e-9

var (
	// ErrInvalidInput is returned for malformed waypoints, sample counts, dt or drivetrain
	// geometry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInfeasibleProfile is returned when the requested motion limits cannot be satisfied.
	ErrInfeasibleProfile = errors.New("infeasible profile")
)

// ValidateWaypoints checks the count of a waypoint sequence and that consecutive
// waypoints do not coincide.
func ValidateWaypoints(waypoints []Waypoint) error {
	if len(waypoints) < 2 {
		return errors.Wrapf(ErrInvalidInput, "need at least 2 waypoints, got %d", len(waypoints))
	}
	for i, w := range waypoints {
		if !utils.IsFinite(w.X, w.Y, w.Angle) {
			return errors.Wrapf(ErrInvalidInput, "waypoint %d is not finite: %v", i, w)
		}
		if i == 0 {
			continue
		}
		prev := waypoints[i-1]
		if math.Hypot(w.X-prev.X, w.Y-prev.Y) < minWaypointSpacing {
			return errors.Wrapf(ErrInvalidInput, "waypoints %d and %d are coincident", i-1, i)
		}
	}
	return nil
}
