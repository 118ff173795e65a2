// Package fake implements simulated drives that turn motor commands into encoder ticks. Each
// motor command is assumed to be held for one control period.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"go.viam.com/trajgen/control"
	"go.viam.com/trajgen/drivetrain"
	"go.viam.com/trajgen/utils"
)

// Config describes a simulated drive.
type Config struct {
	// Width is the distance between the left and right wheels. Only used by Tank.
	Width float64
	// SpeedPerOutput is the wheel speed produced by a motor command of 1.
	SpeedPerOutput float64
	// Period is how long each motor command is applied.
	Period  time.Duration
	Encoder control.EncoderConfig
	// Gyro makes Heading report the simulated heading instead of NaN.
	Gyro           bool
	InitialHeading float64
}

func (c Config) ticks(distance float64) int64 {
	return c.Encoder.InitialOffset + int64(math.Round(distance/c.Encoder.DistancePerTick()))
}

// Tank is a simulated differential drive.
type Tank struct {
	mu      sync.Mutex
	cfg     Config
	left    float64
	right   float64
	x, y    float64
	heading float64
	output  [2]float64
	calls   int
}

var _ drivetrain.TankDrive = (*Tank)(nil)

// NewTank returns a Tank at rest at the origin.
func NewTank(cfg Config) *Tank {
	return &Tank{cfg: cfg, heading: cfg.InitialHeading}
}

// LeftEncoderTicks returns the left encoder reading.
func (t *Tank) LeftEncoderTicks(ctx context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.ticks(t.left), nil
}

// RightEncoderTicks returns the right encoder reading.
func (t *Tank) RightEncoderTicks(ctx context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.ticks(t.right), nil
}

// SetMotors applies left and right for one period and moves the simulated base.
func (t *Tank) SetMotors(ctx context.Context, left, right float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output = [2]float64{left, right}
	t.calls++

	dt := t.cfg.Period.Seconds()
	dl := left * t.cfg.SpeedPerOutput * dt
	dr := right * t.cfg.SpeedPerOutput * dt
	t.left += dl
	t.right += dr

	turn := (dr - dl) / t.cfg.Width
	mid := t.heading + turn/2
	ds := (dl + dr) / 2
	t.x += ds * math.Cos(mid)
	t.y += ds * math.Sin(mid)
	t.heading = utils.BoundRadians(t.heading + turn)
	return nil
}

// Heading returns the simulated heading, or NaN without a gyro.
func (t *Tank) Heading(ctx context.Context) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cfg.Gyro {
		return math.NaN(), nil
	}
	return t.heading, nil
}

// Distances returns how far each side has travelled.
func (t *Tank) Distances() (left, right float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.left, t.right
}

// Pose returns the simulated position and heading of the centre of the base.
func (t *Tank) Pose() (x, y, heading float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x, t.y, t.heading
}

// LastOutput returns the most recent motor commands.
func (t *Tank) LastOutput() (left, right float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output[0], t.output[1]
}

// SetMotorsCount returns how many times SetMotors has been called.
func (t *Tank) SetMotorsCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Swerve is a simulated swerve drive. It tracks how far each module has driven; steering is
// recorded but not simulated.
type Swerve struct {
	mu       sync.Mutex
	cfg      Config
	distance [4]float64
	commands [4]drivetrain.ModuleCommand
	calls    int
}

var _ drivetrain.SwerveDrive = (*Swerve)(nil)

// NewSwerve returns a Swerve at rest.
func NewSwerve(cfg Config) *Swerve {
	return &Swerve{cfg: cfg}
}

// EncoderTicks returns every module's drive encoder reading.
func (s *Swerve) EncoderTicks(ctx context.Context) ([4]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ticks [4]int64
	for m, d := range s.distance {
		ticks[m] = s.cfg.ticks(d)
	}
	return ticks, nil
}

// SetModules applies commands for one period.
func (s *Swerve) SetModules(ctx context.Context, commands [4]drivetrain.ModuleCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = commands
	s.calls++
	dt := s.cfg.Period.Seconds()
	for m, c := range commands {
		s.distance[m] += c.Drive * s.cfg.SpeedPerOutput * dt
	}
	return nil
}

// Heading returns the configured initial heading, or NaN without a gyro.
func (s *Swerve) Heading(ctx context.Context) (float64, error) {
	if !s.cfg.Gyro {
		return math.NaN(), nil
	}
	return s.cfg.InitialHeading, nil
}

// Distances returns how far each module has driven.
func (s *Swerve) Distances() [4]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.distance
}

// LastCommands returns the most recent module commands.
func (s *Swerve) LastCommands() [4]drivetrain.ModuleCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}

// SetModulesCount returns how many times SetModules has been called.
func (s *Swerve) SetModulesCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
