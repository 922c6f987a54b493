package audio

import (
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/hardware"
)

// EngineConfig holds the audio path tunables.
type EngineConfig struct {
	SampleRate    int
	BlockSize     int
	HighPassCoeff float64
	MicMidpoint   int
	// InPort is the dedicated playback receive port.
	InPort int
}

// Engine owns the lazy lifecycle of both pipelines. AUDIO_START creates the
// peripherals and both goroutines; AUDIO_STOP tears everything down and
// releases the devices so idle hardware stays silent. Start and Stop are
// only ever called from the dispatcher goroutine, so the engine needs no
// locking.
type Engine struct {
	cfg        EngineConfig
	newMic     func() (hardware.Microphone, error)
	newSpeaker func() (hardware.Speaker, error)
	peer       PeerFunc
	gate       Gate
	logger     *zap.Logger

	running      bool
	mic          hardware.Microphone
	speaker      hardware.Speaker
	captureConn  *net.UDPConn
	playbackConn *net.UDPConn
	capture      *Capture
	playback     *Playback
}

// NewEngine creates an engine. The factories defer hardware init until the
// first AUDIO_START.
func NewEngine(
	cfg EngineConfig,
	newMic func() (hardware.Microphone, error),
	newSpeaker func() (hardware.Speaker, error),
	peer PeerFunc,
	gate Gate,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		cfg:        cfg,
		newMic:     newMic,
		newSpeaker: newSpeaker,
		peer:       peer,
		gate:       gate,
		logger:     logger,
	}
}

// Start lazily initializes the peripherals and launches both pipelines.
// Calling Start while already streaming is a no-op.
func (e *Engine) Start() error {
	if e.running {
		return nil
	}

	mic, err := e.newMic()
	if err != nil {
		return fmt.Errorf("microphone init: %w", err)
	}
	speaker, err := e.newSpeaker()
	if err != nil {
		mic.Close()
		return fmt.Errorf("speaker init: %w", err)
	}

	captureConn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		mic.Close()
		speaker.Close()
		return fmt.Errorf("capture socket: %w", err)
	}
	playbackConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: e.cfg.InPort})
	if err != nil {
		captureConn.Close()
		mic.Close()
		speaker.Close()
		return fmt.Errorf("playback socket: %w", err)
	}

	cond := NewConditioner(e.cfg.MicMidpoint, e.cfg.HighPassCoeff)
	e.mic = mic
	e.speaker = speaker
	e.captureConn = captureConn
	e.playbackConn = playbackConn
	e.capture = NewCapture(mic, cond, captureConn, e.peer, e.cfg.BlockSize, e.logger)
	e.playback = NewPlayback(speaker, playbackConn, e.gate, e.logger)

	go e.capture.Run()
	go e.playback.Run()
	e.running = true

	e.logger.Info("audio streaming started",
		zap.Int("sample_rate", e.cfg.SampleRate),
		zap.Int("block_size", e.cfg.BlockSize),
		zap.Int("in_port", e.cfg.InPort))
	return nil
}

// Stop tears both pipelines down and releases the peripherals. Calling
// Stop while idle is a no-op. Every Start must be matched by a Stop before
// the peripherals may be reinitialized.
func (e *Engine) Stop() {
	if !e.running {
		return
	}

	e.capture.Stop()
	e.playback.Stop()
	e.captureConn.Close()
	e.playbackConn.Close()
	e.mic.Close()
	e.speaker.Close()

	e.capture = nil
	e.playback = nil
	e.mic = nil
	e.speaker = nil
	e.running = false

	e.logger.Info("audio streaming stopped")
}

// Running reports whether the pipelines are live.
func (e *Engine) Running() bool { return e.running }
