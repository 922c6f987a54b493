package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for both units. Values come from
// LUMINA_* environment variables, optionally loaded from a .env file.
type Config struct {
	// Network
	CommandPort  int // UDP command channel (body)
	AudioOutPort int // capture frames flow to peer on this port
	AudioInPort  int // playback datagrams arrive on this port
	MonitorAddr  string
	EyesAddr     string

	// Audio
	SampleRate    int
	BlockSize     int
	HighPassCoeff float64
	MicMidpoint   int // raw ADC midpoint for unsigned-to-signed centering

	// Servos
	PanSafeMin, PanSafeMax   int
	TiltSafeMin, TiltSafeMax int
	ServoNeutralUs           int
	ServoSpeedUs             int
	ServoPulseDuration       time.Duration
	ServoStepDelay           time.Duration

	// Timing
	HeartbeatInterval time.Duration
	StreamIdleTimeout time.Duration
	LinkFailLimit     int
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present, but never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CommandPort:        5005,
		AudioOutPort:       5006,
		AudioInPort:        5007,
		MonitorAddr:        ":8090",
		EyesAddr:           ":8080",
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
		ServoPulseDuration: 300 * time.Millisecond,
		ServoStepDelay:     15 * time.Millisecond,
		HeartbeatInterval:  500 * time.Millisecond,
		StreamIdleTimeout:  10 * time.Second,
		LinkFailLimit:      10,
	}

	var err error
	if err = intVar(&cfg.CommandPort, "LUMINA_COMMAND_PORT"); err != nil {
		return nil, err
	}
	if err = intVar(&cfg.AudioOutPort, "LUMINA_AUDIO_OUT_PORT"); err != nil {
		return nil, err
	}
	if err = intVar(&cfg.AudioInPort, "LUMINA_AUDIO_IN_PORT"); err != nil {
		return nil, err
	}
	strVar(&cfg.MonitorAddr, "LUMINA_MONITOR_ADDR")
	strVar(&cfg.EyesAddr, "LUMINA_EYES_ADDR")
	if err = intVar(&cfg.SampleRate, "LUMINA_SAMPLE_RATE"); err != nil {
		return nil, err
	}
	if err = intVar(&cfg.BlockSize, "LUMINA_BLOCK_SIZE"); err != nil {
		return nil, err
	}
	if err = durVar(&cfg.StreamIdleTimeout, "LUMINA_STREAM_IDLE_TIMEOUT"); err != nil {
		return nil, err
	}
	if err = durVar(&cfg.HeartbeatInterval, "LUMINA_HEARTBEAT_INTERVAL"); err != nil {
		return nil, err
	}
	if err = intVar(&cfg.LinkFailLimit, "LUMINA_LINK_FAIL_LIMIT"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.PanSafeMin >= c.PanSafeMax {
		return fmt.Errorf("invalid pan safe range [%d, %d]", c.PanSafeMin, c.PanSafeMax)
	}
	if c.TiltSafeMin >= c.TiltSafeMax {
		return fmt.Errorf("invalid tilt safe range [%d, %d]", c.TiltSafeMin, c.TiltSafeMax)
	}
	if c.HighPassCoeff <= 0 || c.HighPassCoeff >= 1 {
		return fmt.Errorf("high-pass coefficient must be in (0, 1), got %f", c.HighPassCoeff)
	}
	return nil
}

// BlockInterval returns the capture cadence implied by the sample rate and
// block size (128 samples at 16 kHz is 8ms).
func (c *Config) BlockInterval() time.Duration {
	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}

func strVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func durVar(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
