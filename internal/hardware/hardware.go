// Package hardware defines the narrow interfaces the control core uses to
// drive peripherals. The core never talks to pins or buses directly; real
// drivers and the simulated implementations in this package both satisfy
// these interfaces.
package hardware

import "errors"

// ErrUnavailable is returned by peripherals that failed to initialize or
// have been released.
var ErrUnavailable = errors.New("hardware: peripheral unavailable")

// RGB is an indicator color triple.
type RGB struct {
	R, G, B uint8
}

// Common indicator colors, mirroring the body unit's palette.
var (
	ColorRed    = RGB{255, 0, 0}
	ColorGreen  = RGB{0, 255, 0}
	ColorBlue   = RGB{0, 0, 255}
	ColorYellow = RGB{255, 255, 0}
	ColorOrange = RGB{255, 165, 0}
	ColorPurple = RGB{128, 0, 128}
	ColorPink   = RGB{255, 20, 147}
	ColorCyan   = RGB{0, 255, 255}
	ColorWhite  = RGB{255, 255, 255}
	ColorWarm   = RGB{255, 200, 100}
	ColorCool   = RGB{200, 220, 255}
)

// Display is the face screen. Rendering primitives live behind the driver;
// the core only selects what to show.
type Display interface {
	// ShowFace renders the face for the given expression key with the
	// current animation frame (eyes open/closed, mouth state).
	ShowFace(face string, eyesOpen bool, mouthState int)
	// ShowText renders a short status message (boot, IP, errors).
	ShowText(lines ...string)
}

// Indicator is the addressable light strip.
type Indicator interface {
	SetColor(c RGB)
	SetBrightness(level uint8)
	// Fill immediately paints the whole strip, bypassing breathing.
	Fill(c RGB)
}

// Servo is a single hobby-servo axis.
type Servo interface {
	// WriteAngle moves to an absolute angle in degrees.
	WriteAngle(deg int) error
	// WriteMicroseconds drives the raw pulse width, used by velocity mode.
	WriteMicroseconds(us int) error
	// Detach releases the output entirely. Writes after Detach return
	// ErrUnavailable until Attach is called again.
	Detach() error
	Attach() error
}

// Microphone yields fixed-size blocks of raw unsigned samples. ReadBlock
// blocks until the next block is available at the hardware cadence.
type Microphone interface {
	ReadBlock(dst []uint16) error
	Close() error
}

// Speaker consumes signed 16-bit sample blocks. SetMuted gates the
// amplifier without tearing the device down.
type Speaker interface {
	Play(samples []int16) error
	SetMuted(muted bool)
	Close() error
}

// Camera produces encoded JPEG frames. NextFrame blocks briefly for the
// most recent frame; stale buffered frames are never returned.
type Camera interface {
	NextFrame() ([]byte, error)
	Close() error
}
