package command

import (
	"time"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/device"
	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/motion"
)

// AudioControl is the dispatcher's view of the audio pipelines: lazy init
// on start, matched teardown on stop.
type AudioControl interface {
	Start() error
	Stop()
}

// ReplyFunc delivers a reply line back to whichever transport the command
// arrived on. Most commands never reply.
type ReplyFunc func(line string)

var colorNames = map[string]hardware.RGB{
	"red":    hardware.ColorRed,
	"green":  hardware.ColorGreen,
	"blue":   hardware.ColorBlue,
	"yellow": hardware.ColorYellow,
	"orange": hardware.ColorOrange,
	"purple": hardware.ColorPurple,
	"pink":   hardware.ColorPink,
	"cyan":   hardware.ColorCyan,
	"white":  hardware.ColorWhite,
	"warm":   hardware.ColorWarm,
	"cool":   hardware.ColorCool,
}

// Dispatcher applies parsed commands to the device state, the motion
// controller and the audio pipelines. It is single-goroutine: all
// transports funnel their lines into the runtime loop that owns it.
type Dispatcher struct {
	state     *device.State
	animator  *device.Animator
	indicator hardware.Indicator
	motion    *motion.Controller
	audio     AudioControl
	bootID    string
	logger    *zap.Logger
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(
	state *device.State,
	animator *device.Animator,
	indicator hardware.Indicator,
	mc *motion.Controller,
	audio AudioControl,
	bootID string,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		state:     state,
		animator:  animator,
		indicator: indicator,
		motion:    mc,
		audio:     audio,
		bootID:    bootID,
		logger:    logger,
	}
}

// Dispatch parses one line and applies its effect. Unknown or malformed
// lines are dropped without a reply; only discovery, liveness and the
// chat transitions answer back.
func (d *Dispatcher) Dispatch(line string, reply ReplyFunc) {
	cmd, ok := Parse(line)
	if !ok {
		d.logger.Debug("dropped command", zap.String("line", line))
		return
	}
	d.Apply(cmd, reply)
}

// Apply executes a parsed command.
func (d *Dispatcher) Apply(cmd Command, reply ReplyFunc) {
	if reply == nil {
		reply = func(string) {}
	}

	switch cmd.Kind {
	case KindDiscover:
		reply("LUMINA_BODY " + d.bootID)

	case KindPing:
		reply("PONG")

	case KindPanTilt:
		d.motion.SetTargets(cmd.A, cmd.B)
		d.state.SetPositionLocked(true)

	case KindFace:
		d.state.SetMood(cmd.Mood)
		if cmd.Mood == device.MoodHappy {
			d.state.SetPositionLocked(true)
		}
		d.animator.Redraw()

	case KindTalkStart:
		d.state.SetTalking(true)
		d.animator.Redraw()

	case KindTalkStop:
		d.state.SetTalking(false)
		d.animator.Redraw()

	case KindBrightness:
		d.state.SetBrightness(cmd.A)

	case KindBrightnessPercent:
		d.state.SetBrightnessPercent(cmd.A)

	case KindColor:
		d.state.SetIndicatorColor(hardware.RGB{R: uint8(cmd.A), G: uint8(cmd.B), B: uint8(cmd.C)})

	case KindColorName:
		c, ok := colorNames[cmd.Name]
		if !ok {
			d.logger.Debug("unknown color name", zap.String("name", cmd.Name))
			return
		}
		d.state.SetIndicatorColor(c)
		d.indicator.Fill(c)

	case KindChatStart:
		d.setChatMode(true, reply)

	case KindChatStop:
		d.setChatMode(false, reply)

	case KindChatToggle:
		d.setChatMode(!d.state.ChatMode(), reply)

	case KindAudioStart:
		if err := d.audio.Start(); err != nil {
			d.logger.Error("audio start failed", zap.Error(err))
		}

	case KindAudioStop:
		d.audio.Stop()

	case KindServoEnable:
		d.motion.Enable()

	case KindServoDisable:
		d.motion.Disable()

	case KindServoStop:
		d.motion.EmergencyStop()

	case KindServoCal:
		if cmd.HasValue {
			d.motion.Calibrate(cmd.A)
		} else {
			d.motion.TestNeutral()
		}

	case KindServoPan:
		d.motion.Pulse(motion.AxisPan, cmd.A)

	case KindServoTilt:
		d.motion.Pulse(motion.AxisTilt, cmd.A)

	case KindPanLeft:
		d.motion.PanLeft()
	case KindPanRight:
		d.motion.PanRight()
	case KindTiltUp:
		d.motion.TiltUp()
	case KindTiltDown:
		d.motion.TiltDown()

	case KindServoSpeed:
		d.motion.SetSpeed(cmd.A)

	case KindServoDuration:
		d.motion.SetPulseDuration(time.Duration(cmd.A) * time.Millisecond)

	case KindResetPos:
		d.motion.ResetPosition()
	}
}

func (d *Dispatcher) setChatMode(on bool, reply ReplyFunc) {
	d.state.SetChatMode(on)
	d.animator.Redraw()
	if on {
		d.indicator.Fill(hardware.ColorGreen)
		reply("STATUS:LISTENING")
	} else {
		d.indicator.Fill(hardware.ColorRed)
		reply("STATUS:MUTE")
	}
}
