// Package device holds the body unit's state machine: mood, indicator,
// chat/talk flags and the audio output gate. The command dispatcher is the
// only writer; the animation refresh runs on the same goroutine. The two
// flags the audio pipelines read from their own goroutines are atomics.
package device

import (
	"sync/atomic"

	"github.com/shaveenudayanga/lumina/internal/hardware"
)

// Mood is the face expression state.
type Mood int

const (
	MoodSleep Mood = iota
	MoodHappy
	MoodTalking
	MoodListening
	MoodSad
	MoodLove
)

func (m Mood) String() string {
	switch m {
	case MoodSleep:
		return "sleep"
	case MoodHappy:
		return "happy"
	case MoodTalking:
		return "talking"
	case MoodListening:
		return "listening"
	case MoodSad:
		return "sad"
	case MoodLove:
		return "love"
	}
	return "unknown"
}

// State is the device state aggregate. Constructed once at boot, mutated
// only through its methods, never reallocated.
type State struct {
	mood           Mood
	positionLocked bool

	color      hardware.RGB
	brightness uint8

	// Cross-goroutine flags: written here, read by the audio pipelines.
	chatMode  atomic.Bool
	isTalking atomic.Bool
	gateOpen  atomic.Bool
}

// NewState returns the boot state: asleep, neutral blue indicator.
func NewState() *State {
	return &State{
		mood:       MoodSleep,
		color:      hardware.ColorBlue,
		brightness: 80,
	}
}

// Mood returns the current mood.
func (s *State) Mood() Mood { return s.mood }

// SetMood transitions the mood directly. Entering sleep also clears
// chat mode, the talking flag and the position lock, and restores the
// neutral indicator color.
func (s *State) SetMood(m Mood) {
	s.mood = m
	switch m {
	case MoodSleep:
		s.chatMode.Store(false)
		s.isTalking.Store(false)
		s.positionLocked = false
		s.color = hardware.ColorBlue
	case MoodTalking:
		s.isTalking.Store(true)
	case MoodListening:
		s.color = hardware.ColorGreen
	case MoodLove:
		s.color = hardware.ColorPink
	}
	s.refreshGate()
}

// ChatMode reports whether chat mode is on.
func (s *State) ChatMode() bool { return s.chatMode.Load() }

// SetChatMode toggles chat mode and re-evaluates the output gate.
func (s *State) SetChatMode(on bool) {
	s.chatMode.Store(on)
	if on {
		s.mood = MoodListening
		s.color = hardware.ColorGreen
	} else {
		s.isTalking.Store(false)
		s.mood = MoodSleep
		s.color = hardware.ColorBlue
	}
	s.refreshGate()
}

// Talking reports whether the talk flag is set.
func (s *State) Talking() bool { return s.isTalking.Load() }

// SetTalking sets the talk flag and re-evaluates the output gate.
func (s *State) SetTalking(on bool) {
	s.isTalking.Store(on)
	if on {
		s.mood = MoodTalking
	} else if s.mood == MoodTalking {
		s.mood = MoodHappy
	}
	s.refreshGate()
}

// refreshGate recomputes the audio output gate. The gate may only close
// when neither the talk flag nor chat mode holds; checking a single flag
// on stop is the classic bug this method exists to prevent.
func (s *State) refreshGate() {
	s.gateOpen.Store(s.isTalking.Load() || s.chatMode.Load())
}

// GateOpen reports whether the audio output gate is requested open.
// Safe to call from the playback pipeline's goroutine.
func (s *State) GateOpen() bool { return s.gateOpen.Load() }

// PositionLocked reports whether head tracking commands hold the position.
func (s *State) PositionLocked() bool { return s.positionLocked }

// SetPositionLocked marks the position as externally driven.
func (s *State) SetPositionLocked(locked bool) { s.positionLocked = locked }

// IndicatorColor returns the current indicator color.
func (s *State) IndicatorColor() hardware.RGB { return s.color }

// SetIndicatorColor sets the indicator color.
func (s *State) SetIndicatorColor(c hardware.RGB) { s.color = c }

// Brightness returns the indicator brightness.
func (s *State) Brightness() uint8 { return s.brightness }

// SetBrightness clamps and stores the indicator brightness.
func (s *State) SetBrightness(level int) {
	if level < 0 {
		level = 0
	}
	if level > 255 {
		level = 255
	}
	s.brightness = uint8(level)
}

// SetBrightnessPercent maps a 0-100 percentage onto the 0-255 scale.
func (s *State) SetBrightnessPercent(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.SetBrightness((percent*255 + 50) / 100)
}

// Snapshot is a point-in-time copy of the state for the monitor surface.
type Snapshot struct {
	Mood           string       `json:"mood"`
	ChatMode       bool         `json:"chat_mode"`
	IsTalking      bool         `json:"is_talking"`
	GateOpen       bool         `json:"gate_open"`
	PositionLocked bool         `json:"position_locked"`
	Color          hardware.RGB `json:"color"`
	Brightness     uint8        `json:"brightness"`
	Pan            int          `json:"pan"`
	Tilt           int          `json:"tilt"`
}

// Snapshot captures the state. Pan and tilt are supplied by the caller
// because the motion controller owns them.
func (s *State) Snapshot(pan, tilt int) Snapshot {
	return Snapshot{
		Mood:           s.mood.String(),
		ChatMode:       s.chatMode.Load(),
		IsTalking:      s.isTalking.Load(),
		GateOpen:       s.gateOpen.Load(),
		PositionLocked: s.positionLocked,
		Color:          s.color,
		Brightness:     s.brightness,
		Pan:            pan,
		Tilt:           tilt,
	}
}
