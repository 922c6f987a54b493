// Package body assembles the body unit: device state, dispatcher, motion
// controller, audio engine, transports and the monitor surface, all driven
// by one loop that owns the mutable state.
package body

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/audio"
	"github.com/shaveenudayanga/lumina/internal/command"
	"github.com/shaveenudayanga/lumina/internal/config"
	"github.com/shaveenudayanga/lumina/internal/device"
	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/monitor"
	"github.com/shaveenudayanga/lumina/internal/motion"
	"github.com/shaveenudayanga/lumina/internal/transport"
)

const (
	faceTickInterval      = 50 * time.Millisecond
	indicatorTickInterval = 20 * time.Millisecond
	snapshotInterval      = 200 * time.Millisecond
)

// Peripherals are the hardware handles the body unit drives. The audio
// factories are deferred so AUDIO_START owns the device lifecycle.
type Peripherals struct {
	Display    hardware.Display
	Indicator  hardware.Indicator
	PanServo   hardware.Servo
	TiltServo  hardware.Servo
	NewMic     func() (hardware.Microphone, error)
	NewSpeaker func() (hardware.Speaker, error)
}

// RestartFunc is the last-resort link recovery hook; in production it
// exits the process so the supervisor restarts it.
type RestartFunc func()

// Runtime is the assembled body unit.
type Runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	bootID string

	state      *device.State
	animator   *device.Animator
	motion     *motion.Controller
	engine     *audio.Engine
	dispatcher *command.Dispatcher
	peer       *transport.Peer
	udp        *transport.UDPChannel
	serial     *transport.SerialChannel
	hub        *monitor.Hub
}

// New wires the body unit. The serial channel may be nil when no local
// console is attached.
func New(cfg *config.Config, p Peripherals, serial *transport.SerialChannel, restart RestartFunc, logger *zap.Logger) (*Runtime, error) {
	bootID := uuid.NewString()

	state := device.NewState()
	animator := device.NewAnimator(state, p.Display, p.Indicator)

	mc := motion.NewController(motion.Config{
		PanSafe:       motion.Range{Min: cfg.PanSafeMin, Max: cfg.PanSafeMax},
		TiltSafe:      motion.Range{Min: cfg.TiltSafeMin, Max: cfg.TiltSafeMax},
		NeutralUs:     cfg.ServoNeutralUs,
		SpeedUs:       cfg.ServoSpeedUs,
		PulseDuration: cfg.ServoPulseDuration,
		StepDelay:     cfg.ServoStepDelay,
	}, p.PanServo, p.TiltServo, logger)
	animator.TalkWiggle = mc.Nudge

	peer := &transport.Peer{}
	udp, err := transport.ListenUDP(cfg.CommandPort, peer, cfg.LinkFailLimit, restart, logger)
	if err != nil {
		return nil, err
	}

	engine := audio.NewEngine(audio.EngineConfig{
		SampleRate:    cfg.SampleRate,
		BlockSize:     cfg.BlockSize,
		HighPassCoeff: cfg.HighPassCoeff,
		MicMidpoint:   cfg.MicMidpoint,
		InPort:        cfg.AudioInPort,
	}, p.NewMic, p.NewSpeaker, func() *net.UDPAddr {
		return peer.WithPort(cfg.AudioOutPort)
	}, state, logger)

	dispatcher := command.NewDispatcher(state, animator, p.Indicator, mc, engine, bootID, logger)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		bootID:     bootID,
		state:      state,
		animator:   animator,
		motion:     mc,
		engine:     engine,
		dispatcher: dispatcher,
		peer:       peer,
		udp:        udp,
		serial:     serial,
		hub:        monitor.NewHub(logger),
	}, nil
}

// BootID returns this boot's identity, included in the DISCOVER reply.
func (r *Runtime) BootID() string { return r.bootID }

// Hub exposes the monitor hub for the HTTP surface.
func (r *Runtime) Hub() *monitor.Hub { return r.hub }

// Run drives the body unit until the context is cancelled. All state
// mutation happens on this goroutine: command lines are funneled into it,
// and the animation, servo stepping, heartbeat and snapshot tickers all
// fire here. The audio pipelines are the only other writers in the
// system and they own no dispatcher state.
func (r *Runtime) Run(ctx context.Context) error {
	lines := make(chan transport.Line, 32)

	go r.hub.Run()
	go r.udp.Run(lines)
	if r.serial != nil {
		go r.serial.Run(lines)
	}

	r.animator.Redraw()
	r.logger.Info("body unit ready",
		zap.String("boot_id", r.bootID),
		zap.Int("command_port", r.cfg.CommandPort))

	faceTick := time.NewTicker(faceTickInterval)
	defer faceTick.Stop()
	indicatorTick := time.NewTicker(indicatorTickInterval)
	defer indicatorTick.Stop()
	stepTick := time.NewTicker(r.cfg.ServoStepDelay)
	defer stepTick.Stop()
	heartbeatTick := time.NewTicker(r.cfg.HeartbeatInterval)
	defer heartbeatTick.Stop()
	snapshotTick := time.NewTicker(snapshotInterval)
	defer snapshotTick.Stop()

	for {
		select {
		case <-ctx.Done():
			r.engine.Stop()
			r.udp.Close()
			return ctx.Err()

		case line := <-lines:
			r.dispatcher.Dispatch(line.Text, line.Reply)

		case now := <-faceTick.C:
			r.animator.TickFace(now)

		case <-indicatorTick.C:
			r.animator.TickIndicator()

		case now := <-stepTick.C:
			r.motion.Step(now)

		case <-heartbeatTick.C:
			r.udp.Heartbeat(r.state.ChatMode())

		case <-snapshotTick.C:
			r.hub.Publish(r.state.Snapshot(r.motion.Pan(), r.motion.Tilt()))
		}
	}
}

// NewMonitorServer builds the monitoring HTTP surface for a runtime.
func NewMonitorServer(rt *Runtime, logger *zap.Logger) *echo.Echo {
	return monitor.NewServer(rt.hub, rt.bootID, logger)
}

// BootFailure signals an unrecoverable peripheral init failure: a visible
// repeating red indicator pattern, then a fatal log. The device is
// unusable without its core peripherals, so there is no recovery path.
func BootFailure(indicator hardware.Indicator, logger *zap.Logger, err error) {
	for i := 0; i < 5; i++ {
		indicator.Fill(hardware.ColorRed)
		time.Sleep(200 * time.Millisecond)
		indicator.Fill(hardware.RGB{})
		time.Sleep(200 * time.Millisecond)
	}
	logger.Fatal("peripheral init failed", zap.Error(err))
}
