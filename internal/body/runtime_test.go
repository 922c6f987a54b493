package body

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/config"
	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/transport"
)

// syncWriter collects serial replies across goroutines.
type syncWriter struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func testConfig() *config.Config {
	return &config.Config{
		CommandPort:        0, // ephemeral, keeps parallel tests apart
		AudioOutPort:       0,
		AudioInPort:        0,
		SampleRate:         16000,
		BlockSize:          128,
		HighPassCoeff:      0.995,
		MicMidpoint:        2048,
		PanSafeMin:         10,
		PanSafeMax:         170,
		TiltSafeMin:        45,
		TiltSafeMax:        135,
		ServoNeutralUs:     1500,
		ServoSpeedUs:       200,
		ServoPulseDuration: 50 * time.Millisecond,
		ServoStepDelay:     time.Millisecond,
		HeartbeatInterval:  time.Hour, // never fires during the test
		LinkFailLimit:      10,
	}
}

func TestRuntimeDispatchesSerialCommands(t *testing.T) {
	logger := zap.NewNop()
	out := &syncWriter{}
	serial := transport.NewSerialChannel(
		strings.NewReader("DISCOVER\nPING\nCHAT_START\n"), out, logger)

	peripherals := Peripherals{
		Display:   hardware.NewSimDisplay(logger),
		Indicator: hardware.NewSimIndicator(),
		PanServo:  hardware.NewSimServo(90),
		TiltServo: hardware.NewSimServo(90),
		NewMic: func() (hardware.Microphone, error) {
			return hardware.NewSimMicrophone(16000, 128), nil
		},
		NewSpeaker: func() (hardware.Speaker, error) {
			return hardware.NewSimSpeaker(), nil
		},
	}

	rt, err := New(testConfig(), peripherals, serial, func() {}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "LUMINA_BODY "+rt.BootID()) &&
			strings.Contains(s, "PONG") &&
			strings.Contains(s, "STATUS:LISTENING")
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, rt.state.ChatMode())
	assert.True(t, rt.state.GateOpen())

	// A snapshot eventually reaches the monitor hub.
	assert.Eventually(t, func() bool {
		return rt.hub.Latest().ChatMode
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRuntimeMotionStepsTowardTargets(t *testing.T) {
	logger := zap.NewNop()
	serial := transport.NewSerialChannel(
		strings.NewReader("P120T60\n"), &syncWriter{}, logger)

	pan := hardware.NewSimServo(90)
	peripherals := Peripherals{
		Display:   hardware.NewSimDisplay(logger),
		Indicator: hardware.NewSimIndicator(),
		PanServo:  pan,
		TiltServo: hardware.NewSimServo(90),
		NewMic: func() (hardware.Microphone, error) {
			return hardware.NewSimMicrophone(16000, 128), nil
		},
		NewSpeaker: func() (hardware.Speaker, error) {
			return hardware.NewSimSpeaker(), nil
		},
	}

	rt, err := New(testConfig(), peripherals, serial, func() {}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return pan.Angle() == 120
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, 120, rt.motion.Pan())
	assert.Equal(t, 60, rt.motion.Tilt())
}
