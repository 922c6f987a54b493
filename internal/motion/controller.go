// Package motion drives the pan and tilt axes. Each axis is either in
// position mode (smoothed angle interpolation) or velocity mode (timed
// pulses around a calibrated neutral); the last command family issued
// selects the mode, never inference.
package motion

import (
	"time"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/hardware"
)

// Axis selects one of the two servo axes.
type Axis int

const (
	AxisPan Axis = iota
	AxisTilt
)

func (a Axis) String() string {
	if a == AxisPan {
		return "pan"
	}
	return "tilt"
}

// Mode is the active control mode for an axis.
type Mode int

const (
	ModePosition Mode = iota
	ModeVelocity
)

// Range is an inclusive angle range in degrees.
type Range struct {
	Min, Max int
}

// Clamp constrains v into the range.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Center returns the midpoint of the range.
func (r Range) Center() int { return (r.Min + r.Max) / 2 }

// Config holds the controller's tunables. Safe ranges are deliberately
// narrower than the servos' mechanical travel.
type Config struct {
	PanSafe, TiltSafe Range
	NeutralUs         int
	SpeedUs           int
	PulseDuration     time.Duration
	StepDelay         time.Duration
}

type axisState struct {
	servo         hardware.Servo
	safe          Range
	mode          Mode
	current       int
	target        int
	pulseDeadline time.Time
}

// Controller owns both axes. All methods must be called from the
// dispatcher goroutine; Step is driven by the same goroutine's ticker, so
// no locking is needed.
type Controller struct {
	cfg     Config
	axes    [2]*axisState
	enabled bool
	logger  *zap.Logger
}

// NewController creates a controller with both axes centered in their safe
// ranges and attached.
func NewController(cfg Config, pan, tilt hardware.Servo, logger *zap.Logger) *Controller {
	c := &Controller{
		cfg:     cfg,
		enabled: true,
		logger:  logger,
	}
	c.axes[AxisPan] = &axisState{
		servo:   pan,
		safe:    cfg.PanSafe,
		current: cfg.PanSafe.Center(),
		target:  cfg.PanSafe.Center(),
	}
	c.axes[AxisTilt] = &axisState{
		servo:   tilt,
		safe:    cfg.TiltSafe,
		current: cfg.TiltSafe.Center(),
		target:  cfg.TiltSafe.Center(),
	}
	return c
}

// SetTargets clamps both targets into their safe ranges and switches both
// axes to position mode. Returns the clamped values actually applied.
func (c *Controller) SetTargets(pan, tilt int) (int, int) {
	p := c.setTarget(AxisPan, pan)
	t := c.setTarget(AxisTilt, tilt)
	return p, t
}

// SetTarget clamps one axis target and switches it to position mode.
func (c *Controller) SetTarget(axis Axis, deg int) int {
	return c.setTarget(axis, deg)
}

func (c *Controller) setTarget(axis Axis, deg int) int {
	ax := c.axes[axis]
	ax.mode = ModePosition
	ax.pulseDeadline = time.Time{}
	ax.target = ax.safe.Clamp(deg)
	return ax.target
}

// Step advances the controller by one tick: position-mode axes move one
// degree toward their targets, and expired velocity pulses fall back to
// neutral. Call at the configured step cadence.
func (c *Controller) Step(now time.Time) {
	if !c.enabled {
		return
	}
	for _, ax := range c.axes {
		switch ax.mode {
		case ModePosition:
			if ax.current == ax.target {
				continue
			}
			if ax.current < ax.target {
				ax.current++
			} else {
				ax.current--
			}
			if err := ax.servo.WriteAngle(ax.current); err != nil {
				c.logger.Warn("servo write failed", zap.Error(err))
			}
		case ModeVelocity:
			if !ax.pulseDeadline.IsZero() && now.After(ax.pulseDeadline) {
				ax.pulseDeadline = time.Time{}
				if err := ax.servo.WriteMicroseconds(c.cfg.NeutralUs); err != nil {
					c.logger.Warn("servo neutral write failed", zap.Error(err))
				}
			}
		}
	}
}

// Pulse fires a velocity-mode pulse of neutral+offsetUs for the configured
// duration, then Step returns the axis to neutral. Direction is the sign
// of the offset, distance is the duration.
func (c *Controller) Pulse(axis Axis, offsetUs int) {
	if !c.enabled {
		return
	}
	ax := c.axes[axis]
	ax.mode = ModeVelocity
	ax.pulseDeadline = time.Now().Add(c.cfg.PulseDuration)
	if err := ax.servo.WriteMicroseconds(c.cfg.NeutralUs + offsetUs); err != nil {
		c.logger.Warn("servo pulse failed", zap.Stringer("axis", axis), zap.Error(err))
	}
}

// PanLeft, PanRight, TiltUp and TiltDown fire one pulse at the configured
// speed offset.
func (c *Controller) PanLeft()  { c.Pulse(AxisPan, -c.cfg.SpeedUs) }
func (c *Controller) PanRight() { c.Pulse(AxisPan, c.cfg.SpeedUs) }
func (c *Controller) TiltUp()   { c.Pulse(AxisTilt, c.cfg.SpeedUs) }
func (c *Controller) TiltDown() { c.Pulse(AxisTilt, -c.cfg.SpeedUs) }

// Calibrate sets the neutral pulse width. The value is volatile; it is
// lost on restart and recalibrated each session.
func (c *Controller) Calibrate(neutralUs int) {
	c.cfg.NeutralUs = neutralUs
	c.logger.Info("servo neutral calibrated", zap.Int("us", neutralUs))
}

// TestNeutral writes the current neutral to both axes without changing
// mode state, so an operator can verify the calibration visually.
func (c *Controller) TestNeutral() {
	for _, ax := range c.axes {
		if err := ax.servo.WriteMicroseconds(c.cfg.NeutralUs); err != nil {
			c.logger.Warn("servo neutral write failed", zap.Error(err))
		}
	}
}

// NeutralUs returns the active neutral calibration.
func (c *Controller) NeutralUs() int { return c.cfg.NeutralUs }

// SetSpeed sets the velocity-mode pulse offset in microseconds.
func (c *Controller) SetSpeed(us int) {
	if us < 0 {
		us = -us
	}
	c.cfg.SpeedUs = us
}

// SetPulseDuration sets how long a velocity pulse holds before neutral.
func (c *Controller) SetPulseDuration(d time.Duration) {
	if d > 0 {
		c.cfg.PulseDuration = d
	}
}

// EmergencyStop writes neutral to both axes immediately, regardless of
// mode, and cancels any pending pulses.
func (c *Controller) EmergencyStop() {
	for _, ax := range c.axes {
		ax.pulseDeadline = time.Time{}
		ax.target = ax.current
		if err := ax.servo.WriteMicroseconds(c.cfg.NeutralUs); err != nil {
			c.logger.Warn("servo stop write failed", zap.Error(err))
		}
	}
}

// Disable forces neutral, then releases hardware control entirely.
func (c *Controller) Disable() {
	c.EmergencyStop()
	for _, ax := range c.axes {
		if err := ax.servo.Detach(); err != nil {
			c.logger.Warn("servo detach failed", zap.Error(err))
		}
	}
	c.enabled = false
}

// Enable re-attaches both axes.
func (c *Controller) Enable() {
	for _, ax := range c.axes {
		if err := ax.servo.Attach(); err != nil {
			c.logger.Warn("servo attach failed", zap.Error(err))
		}
	}
	c.enabled = true
}

// Enabled reports whether the controller holds the hardware.
func (c *Controller) Enabled() bool { return c.enabled }

// ResetPosition rewrites the software notion of the current angles to the
// safe-range centers without issuing any motion. Used to re-synchronize
// after the head has been repositioned by hand.
func (c *Controller) ResetPosition() {
	for _, ax := range c.axes {
		ax.current = ax.safe.Center()
		ax.target = ax.current
	}
}

// Nudge writes a transient tilt offset for the talking animation without
// disturbing the interpolation state.
func (c *Controller) Nudge(delta int) {
	if !c.enabled {
		return
	}
	ax := c.axes[AxisTilt]
	if ax.mode != ModePosition {
		return
	}
	if err := ax.servo.WriteAngle(ax.safe.Clamp(ax.current + delta)); err != nil {
		c.logger.Warn("servo nudge failed", zap.Error(err))
	}
}

// Pan returns the current pan angle.
func (c *Controller) Pan() int { return c.axes[AxisPan].current }

// Tilt returns the current tilt angle.
func (c *Controller) Tilt() int { return c.axes[AxisTilt].current }

// Mode returns the active mode for an axis.
func (c *Controller) Mode(axis Axis) Mode { return c.axes[axis].mode }
