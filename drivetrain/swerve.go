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

// SwerveConfig configures a SwerveFollower. All modules share Gains.
type SwerveConfig struct {
	Gains    control.Gains
	Encoders [4]control.EncoderConfig
}

// SwerveFollower tracks the four module trajectories of a swerve drive.
type SwerveFollower struct {
	drive     SwerveDrive
	wheels    modifier.SwerveTrajectories
	followers [4]*control.EncoderFollower
}

var moduleNames = [4]string{"front left", "front right", "back left", "back right"}

// NewSwerveFollower binds one encoder follower per module of drive.
func NewSwerveFollower(drive SwerveDrive, wheels modifier.SwerveTrajectories, cfg SwerveConfig) (*SwerveFollower, error) {
	s := &SwerveFollower{drive: drive, wheels: wheels}
	var err error
	for m, traj := range wheels.All() {
		f := control.NewEncoderFollowerFor(traj)
		err = multierr.Append(err, errors.Wrapf(f.ConfigureEncoder(cfg.Encoders[m]), "%s encoder", moduleNames[m]))
		f.ConfigureGains(cfg.Gains)
		s.followers[m] = f
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Step reads every module encoder, steps each follower and commands the modules. Module
// angles are given relative to the drive base, using the measured heading when the drive has
// one and the planned heading otherwise.
func (s *SwerveFollower) Step(ctx context.Context) error {
	ticks, err := s.drive.EncoderTicks(ctx)
	if err != nil {
		return errors.Wrap(err, "reading encoders")
	}
	body, err := s.drive.Heading(ctx)
	if err != nil {
		return errors.Wrap(err, "reading heading")
	}

	var commands [4]ModuleCommand
	for m, f := range s.followers {
		out, err := f.Step(ticks[m])
		if err != nil {
			return errors.Wrap(err, moduleNames[m])
		}
		commands[m] = ModuleCommand{Drive: out, Angle: f.Heading()}
	}
	if math.IsNaN(body) {
		body = s.plannedHeading()
	}
	for m := range commands {
		commands[m].Angle = utils.AngleDiff(body, commands[m].Angle)
	}
	return s.drive.SetModules(ctx, commands)
}

// plannedHeading is the body heading at the segment most recently stepped.
func (s *SwerveFollower) plannedHeading() float64 {
	i := s.followers[modifier.FrontLeft].Index() - 1
	if i < 0 || s.wheels.Source.Empty() {
		return 0
	}
	if n := s.wheels.Source.Len(); i >= n {
		i = n - 1
	}
	return s.wheels.BodyHeading(i)
}

// IsFinished reports whether every module has reached the end of its trajectory.
func (s *SwerveFollower) IsFinished() bool {
	for _, f := range s.followers {
		if !f.IsFinished() {
			return false
		}
	}
	return true
}

// Stop zeroes every drive motor, leaving modules at their last angle.
func (s *SwerveFollower) Stop(ctx context.Context) error {
	var commands [4]ModuleCommand
	for m, f := range s.followers {
		commands[m].Angle = f.Heading()
	}
	body, err := s.drive.Heading(ctx)
	if err != nil || math.IsNaN(body) {
		body = s.plannedHeading()
	}
	for m := range commands {
		commands[m].Angle = utils.AngleDiff(body, commands[m].Angle)
	}
	return s.drive.SetModules(ctx, commands)
}

// Reset restarts every module from the beginning of its trajectory.
func (s *SwerveFollower) Reset() {
	for _, f := range s.followers {
		f.Reset()
	}
}

// Followers returns the module followers in front left, front right, back left, back right
// order.
func (s *SwerveFollower) Followers() [4]*control.EncoderFollower {
	return s.followers
}
