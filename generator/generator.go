// Package generator produces trajectories from waypoints by fitting a spline and profiling
// velocity along it.
package generator

import (
	"context"

	"go.opencensus.io/trace"

	"go.viam.com/trajgen/logging"
	"go.viam.com/trajgen/profile"
	"go.viam.com/trajgen/spline"
	"go.viam.com/trajgen/trajectory"
)

// Generate fits a path through waypoints and profiles it under cfg. It either returns a
// complete trajectory or an error wrapping trajectory.ErrInvalidInput or
// trajectory.ErrInfeasibleProfile; it never returns a partial trajectory.
//
// Generation cost grows linearly with cfg.SampleCount, so it should run when a path is loaded
// rather than inside a control loop.
func Generate(
	ctx context.Context,
	waypoints []trajectory.Waypoint,
	cfg trajectory.Config,
	logger logging.Logger,
) (*trajectory.Trajectory, error) {
	_, span := trace.StartSpan(ctx, "generator::Generate")
	defer span.End()

	// limits are checked before the (comparatively expensive) fit
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path, err := spline.Fit(waypoints, cfg.Fit, cfg.SampleCount)
	if err != nil {
		return nil, err
	}
	traj, plan, err := profile.Build(path, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debugw("generated trajectory",
		"waypoints", len(waypoints),
		"fit", cfg.Fit.String(),
		"length", path.Length(),
		"cruise_velocity", plan.CruiseVelocity(),
		"duration", plan.Duration(),
		"segments", traj.Len(),
	)
	return traj, nil
}
