package drivetrain

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/trajgen/control"
	"go.viam.com/trajgen/modifier"
	"go.viam.com/trajgen/utils"
)

// TankConfig configures a TankFollower. Both sides share Gains.
type TankConfig struct {
	Gains        control.Gains
	LeftEncoder  control.EncoderConfig
	RightEncoder control.EncoderConfig
	// HeadingGain scales the heading error (radians) into a motor command difference. Zero
	// disables heading correction.
	HeadingGain float64
}

// TankFollower tracks the left and right trajectories of a differential drive.
type TankFollower struct {
	drive       TankDrive
	left        *control.EncoderFollower
	right       *control.EncoderFollower
	headingGain float64
}

// NewTankFollower binds one encoder follower per side of drive.
func NewTankFollower(drive TankDrive, wheels modifier.TankTrajectories, cfg TankConfig) (*TankFollower, error) {
	left := control.NewEncoderFollowerFor(wheels.Left)
	right := control.NewEncoderFollowerFor(wheels.Right)
	if err := multierr.Combine(
		errors.Wrap(left.ConfigureEncoder(cfg.LeftEncoder), "left encoder"),
		errors.Wrap(right.ConfigureEncoder(cfg.RightEncoder), "right encoder"),
	); err != nil {
		return nil, err
	}
	left.ConfigureGains(cfg.Gains)
	right.ConfigureGains(cfg.Gains)
	return &TankFollower{drive: drive, left: left, right: right, headingGain: cfg.HeadingGain}, nil
}

// Step reads both encoders, steps both followers and applies the motor commands. When the
// drive reports a heading, the difference from the planned heading is corrected by
// speeding up one side and slowing the other.
func (t *TankFollower) Step(ctx context.Context) error {
	leftTicks, err := t.drive.LeftEncoderTicks(ctx)
	if err != nil {
		return errors.Wrap(err, "reading left encoder")
	}
	rightTicks, err := t.drive.RightEncoderTicks(ctx)
	if err != nil {
		return errors.Wrap(err, "reading right encoder")
	}
	actual, err := t.drive.Heading(ctx)
	if err != nil {
		return errors.Wrap(err, "reading heading")
	}

	l, err := t.left.Step(leftTicks)
	if err != nil {
		return err
	}
	r, err := t.right.Step(rightTicks)
	if err != nil {
		return err
	}

	if t.headingGain != 0 && !math.IsNaN(actual) {
		turn := t.headingGain * utils.AngleDiff(t.left.Heading(), actual)
		l += turn
		r -= turn
	}
	return t.drive.SetMotors(ctx, l, r)
}

// IsFinished reports whether both sides have reached the end of their trajectories.
func (t *TankFollower) IsFinished() bool {
	return t.left.IsFinished() && t.right.IsFinished()
}

// Stop sets both motors to zero.
func (t *TankFollower) Stop(ctx context.Context) error {
	return t.drive.SetMotors(ctx, 0, 0)
}

// Reset restarts both sides from the beginning of their trajectories.
func (t *TankFollower) Reset() {
	t.left.Reset()
	t.right.Reset()
}

// Followers returns the left and right encoder followers.
func (t *TankFollower) Followers() (left, right *control.EncoderFollower) {
	return t.left, t.right
}
