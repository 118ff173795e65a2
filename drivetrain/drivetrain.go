// Package drivetrain connects per-wheel encoder followers to drive hardware. Hardware is
// reached only through the TankDrive and SwerveDrive interfaces, and followers are stepped by
// their owner (directly or through Loop) once per control period.
package drivetrain

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/trajgen/logging"
)

// TankDrive is a differential drive with one encoder per side.
type TankDrive interface {
	LeftEncoderTicks(ctx context.Context) (int64, error)
	RightEncoderTicks(ctx context.Context) (int64, error)
	// SetMotors applies unclamped motor commands to each side.
	SetMotors(ctx context.Context, left, right float64) error
	// Heading returns the measured heading in radians, counter-clockwise positive, or NaN if
	// the drive has no gyro.
	Heading(ctx context.Context) (float64, error)
}

// ModuleCommand drives one swerve module.
type ModuleCommand struct {
	// Drive is the unclamped drive motor command.
	Drive float64
	// Angle is the steering angle relative to the drive base, in radians.
	Angle float64
}

// SwerveDrive is a four module swerve drive. Modules are ordered front left, front right,
// back left, back right.
type SwerveDrive interface {
	EncoderTicks(ctx context.Context) ([4]int64, error)
	SetModules(ctx context.Context, commands [4]ModuleCommand) error
	// Heading returns the measured heading in radians, or NaN if the drive has no gyro.
	Heading(ctx context.Context) (float64, error)
}

// A Stepper is advanced once per control period until it is finished.
type Stepper interface {
	Step(ctx context.Context) error
	IsFinished() bool
	// Stop brings the drive to rest.
	Stop(ctx context.Context) error
}

// Loop steps s once per period of clk until s is finished, then stops it. If ctx is done
// first the drive is still stopped and ctx's error is returned.
func Loop(ctx context.Context, clk clock.Clock, period time.Duration, s Stepper, logger logging.Logger) (err error) {
	if period <= 0 {
		return errors.Errorf("loop period must be positive, got %v", period)
	}
	defer func() {
		if stopErr := s.Stop(context.WithoutCancel(ctx)); stopErr != nil && err == nil {
			err = errors.Wrap(stopErr, "stopping drive")
		}
	}()

	ticker := clk.Ticker(period)
	defer ticker.Stop()

	steps := 0
	for !s.IsFinished() {
		if err := s.Step(ctx); err != nil {
			return errors.Wrapf(err, "step %d", steps)
		}
		steps++
		if s.IsFinished() {
			break
		}
		if !goutils.SelectContextOrWaitChan(ctx, ticker.C) {
			logger.Debugw("follower loop cancelled", "steps", steps)
			return ctx.Err()
		}
	}
	logger.Debugw("follower loop finished", "steps", steps)
	return nil
}
