// Package config reads path files: a YAML document holding the waypoints of a path, how to
// generate a trajectory through them, and the drive it will be followed on.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"go.viam.com/trajgen/control"
	"go.viam.com/trajgen/drivetrain"
	"go.viam.com/trajgen/modifier"
	"go.viam.com/trajgen/trajectory"
)

// Drivetrain types.
const (
	DrivetrainTank   = "tank"
	DrivetrainSwerve = "swerve"
)

// Generation configures trajectory generation. Zero acceleration and jerk limits take the
// trajectory package defaults.
type Generation struct {
	Fit             string  `yaml:"fit"`
	Samples         string  `yaml:"samples"`
	DT              float64 `yaml:"dt"`
	MaxVelocity     float64 `yaml:"max_velocity"`
	MaxAcceleration float64 `yaml:"max_acceleration"`
	MaxJerk         float64 `yaml:"max_jerk"`
	LimitCurvature  bool    `yaml:"limit_curvature"`
}

// Drivetrain describes the drive a trajectory is decomposed for.
type Drivetrain struct {
	Type       string  `yaml:"type"`
	Width      float64 `yaml:"width"`
	Depth      float64 `yaml:"depth"`
	SwerveMode string  `yaml:"swerve_mode"`
	// HeadingGain scales heading error into a tank side difference when following.
	HeadingGain float64 `yaml:"heading_gain"`
	// SpeedPerOutput is the wheel speed of a motor command of 1, used by simulation.
	SpeedPerOutput float64 `yaml:"speed_per_output"`
}

// Config is a whole path file.
type Config struct {
	Waypoints  []trajectory.Waypoint `yaml:"waypoints"`
	Generation Generation            `yaml:"generation"`
	Drivetrain Drivetrain            `yaml:"drivetrain"`
	Encoder    control.EncoderConfig `yaml:"encoder"`
	Gains      control.Gains         `yaml:"gains"`
}

// Read parses the path file at path. The result is not validated.
func Read(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read path file")
	}
	defer func() {
		goutils.UncheckedError(f.Close())
	}()
	return FromReader(f)
}

// FromReader parses a path file. Unknown keys are rejected.
func FromReader(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse path file")
	}
	return &cfg, nil
}

// Validate checks every section, reporting all problems found. path prefixes field names in
// error messages.
func (c *Config) Validate(path string) error {
	var err error
	if len(c.Waypoints) < 2 {
		err = multierr.Append(err, goutils.NewConfigValidationError(
			fieldPath(path, "waypoints"), errors.Errorf("at least two waypoints are required, got %d", len(c.Waypoints))))
	} else if wpErr := trajectory.ValidateWaypoints(c.Waypoints); wpErr != nil {
		err = multierr.Append(err, goutils.NewConfigValidationError(fieldPath(path, "waypoints"), wpErr))
	}
	err = multierr.Append(err, c.Generation.Validate(fieldPath(path, "generation")))
	err = multierr.Append(err, c.Drivetrain.Validate(fieldPath(path, "drivetrain")))
	err = multierr.Append(err, validateEncoder(fieldPath(path, "encoder"), c.Encoder))
	return err
}

// Validate checks the generation section.
func (g Generation) Validate(path string) error {
	var err error
	if g.DT == 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "dt"))
	}
	if g.MaxVelocity == 0 {
		err = multierr.Append(err, goutils.NewConfigValidationFieldRequiredError(path, "max_velocity"))
	}
	if err != nil {
		return err
	}
	if _, cfgErr := g.TrajectoryConfig(); cfgErr != nil {
		err = multierr.Append(err, goutils.NewConfigValidationError(path, cfgErr))
	}
	return err
}

// TrajectoryConfig converts the section to a validated trajectory.Config.
func (g Generation) TrajectoryConfig() (trajectory.Config, error) {
	fit, err := trajectory.ParseFitMethod(g.Fit)
	if err != nil {
		return trajectory.Config{}, err
	}
	samples, err := trajectory.ParseSampleCount(g.Samples)
	if err != nil {
		return trajectory.Config{}, err
	}
	cfg := trajectory.Config{
		Fit:             fit,
		SampleCount:     samples,
		DT:              g.DT,
		MaxVelocity:     g.MaxVelocity,
		MaxAcceleration: g.MaxAcceleration,
		MaxJerk:         g.MaxJerk,
		LimitCurvature:  g.LimitCurvature,
	}
	if cfg.MaxAcceleration == 0 {
		cfg.MaxAcceleration = trajectory.DefaultMaxAcceleration
	}
	if cfg.MaxJerk == 0 {
		cfg.MaxJerk = trajectory.DefaultMaxJerk
	}
	return cfg, cfg.Validate()
}

// Validate checks the drivetrain section.
func (d Drivetrain) Validate(path string) error {
	var err error
	switch strings.ToLower(d.Type) {
	case "":
		return goutils.NewConfigValidationFieldRequiredError(path, "type")
	case DrivetrainTank:
	case DrivetrainSwerve:
		if d.Depth <= 0 {
			err = multierr.Append(err, goutils.NewConfigValidationError(path,
				errors.Errorf("depth must be positive for a swerve drive, got %g", d.Depth)))
		}
		if _, modeErr := modifier.ParseSwerveMode(d.SwerveMode); modeErr != nil {
			err = multierr.Append(err, goutils.NewConfigValidationError(path, modeErr))
		}
	default:
		return goutils.NewConfigValidationError(path,
			errors.Errorf("type must be %q or %q, got %q", DrivetrainTank, DrivetrainSwerve, d.Type))
	}
	if d.Width <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("width must be positive, got %g", d.Width)))
	}
	if d.SpeedPerOutput < 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("speed_per_output cannot be negative, got %g", d.SpeedPerOutput)))
	}
	return err
}

// IsSwerve reports whether the section describes a swerve drive.
func (d Drivetrain) IsSwerve() bool {
	return strings.ToLower(d.Type) == DrivetrainSwerve
}

// Mode returns the parsed swerve mode.
func (d Drivetrain) Mode() (modifier.SwerveMode, error) {
	return modifier.ParseSwerveMode(d.SwerveMode)
}

// TankConfig builds follower configuration for a tank drive whose sides share one encoder
// calibration.
func (c *Config) TankConfig() drivetrain.TankConfig {
	return drivetrain.TankConfig{
		Gains:        c.Gains,
		LeftEncoder:  c.Encoder,
		RightEncoder: c.Encoder,
		HeadingGain:  c.Drivetrain.HeadingGain,
	}
}

// SwerveConfig builds follower configuration for a swerve drive whose modules share one
// encoder calibration.
func (c *Config) SwerveConfig() drivetrain.SwerveConfig {
	return drivetrain.SwerveConfig{
		Gains:    c.Gains,
		Encoders: [4]control.EncoderConfig{c.Encoder, c.Encoder, c.Encoder, c.Encoder},
	}
}

func validateEncoder(path string, e control.EncoderConfig) error {
	if e.TicksPerRevolution == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "ticks_per_revolution")
	}
	if e.WheelDiameter == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "wheel_diameter")
	}
	if err := e.Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

func fieldPath(path, field string) string {
	if path == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", path, field)
}
