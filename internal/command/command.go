// Package command parses the line-oriented text protocol into a typed
// command set and applies command effects to the rest of the body unit.
// Parsing and effects are deliberately separate so both are testable on
// their own.
package command

import (
	"strconv"
	"strings"

	"github.com/shaveenudayanga/lumina/internal/device"
)

// Kind tags a parsed command variant.
type Kind int

const (
	KindDiscover Kind = iota
	KindPing
	KindPanTilt
	KindFace
	KindTalkStart
	KindTalkStop
	KindBrightness
	KindBrightnessPercent
	KindColor
	KindColorName
	KindChatStart
	KindChatStop
	KindChatToggle
	KindAudioStart
	KindAudioStop
	KindServoEnable
	KindServoDisable
	KindServoStop
	KindServoCal
	KindServoPan
	KindServoTilt
	KindPanLeft
	KindPanRight
	KindTiltUp
	KindTiltDown
	KindServoSpeed
	KindServoDuration
	KindResetPos
)

// Command is one parsed protocol line. It is constructed per received line
// and discarded after dispatch.
type Command struct {
	Kind Kind

	// A and B carry numeric parameters: pan/tilt, brightness, r (with
	// g/b in C), servo values.
	A, B, C int

	// Name carries the string parameter of COLOR:<name>.
	Name string

	// HasValue distinguishes SERVO_CAL from SERVO_CAL:<n>.
	HasValue bool

	// Mood is set for face commands.
	Mood device.Mood
}

var verbs = map[string]Command{
	"DISCOVER":      {Kind: KindDiscover},
	"PING":          {Kind: KindPing},
	"F_SLEEP":       {Kind: KindFace, Mood: device.MoodSleep},
	"F_HAPPY":       {Kind: KindFace, Mood: device.MoodHappy},
	"F_LISTENING":   {Kind: KindFace, Mood: device.MoodListening},
	"F_SAD":         {Kind: KindFace, Mood: device.MoodSad},
	"F_LOVE":        {Kind: KindFace, Mood: device.MoodLove},
	"F_TALK_START":  {Kind: KindTalkStart},
	"F_TALK_STOP":   {Kind: KindTalkStop},
	"CHAT_START":    {Kind: KindChatStart},
	"CHAT_STOP":     {Kind: KindChatStop},
	"CHAT_TOGGLE":   {Kind: KindChatToggle},
	"AUDIO_START":   {Kind: KindAudioStart},
	"AUDIO_STOP":    {Kind: KindAudioStop},
	"SERVO_ENABLE":  {Kind: KindServoEnable},
	"SERVO_DISABLE": {Kind: KindServoDisable},
	"SERVO_STOP":    {Kind: KindServoStop},
	"SERVO_CAL":     {Kind: KindServoCal},
	"PAN_LEFT":      {Kind: KindPanLeft},
	"PAN_RIGHT":     {Kind: KindPanRight},
	"TILT_UP":       {Kind: KindTiltUp},
	"TILT_DOWN":     {Kind: KindTiltDown},
	"RESET_POS":     {Kind: KindResetPos},
}

var prefixed = map[string]Kind{
	"SERVO_CAL":      KindServoCal,
	"SERVO_PAN":      KindServoPan,
	"SERVO_TILT":     KindServoTilt,
	"SERVO_SPEED":    KindServoSpeed,
	"SERVO_DURATION": KindServoDuration,
}

// Parse turns a trimmed protocol line into a Command. Unknown or malformed
// input yields ok=false; the dispatcher drops it silently.
func Parse(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}

	if cmd, ok := verbs[line]; ok {
		return cmd, true
	}

	// VERB:<int> forms.
	if verb, arg, found := strings.Cut(line, ":"); found {
		if verb == "COLOR" {
			name := strings.ToLower(strings.TrimSpace(arg))
			if name == "" {
				return Command{}, false
			}
			return Command{Kind: KindColorName, Name: name}, true
		}
		if kind, ok := prefixed[verb]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil {
				return Command{}, false
			}
			return Command{Kind: kind, A: n, HasValue: true}, true
		}
		return Command{}, false
	}

	// Compact two-field form: P<int>T<int>.
	if strings.HasPrefix(line, "P") {
		if ti := strings.IndexByte(line, 'T'); ti > 1 {
			pan, errP := strconv.Atoi(line[1:ti])
			tilt, errT := strconv.Atoi(line[ti+1:])
			if errP == nil && errT == nil {
				return Command{Kind: KindPanTilt, A: pan, B: tilt}, true
			}
		}
		return Command{}, false
	}

	// Indicator color: C<r>,<g>,<b>.
	if strings.HasPrefix(line, "C") && strings.Contains(line, ",") {
		parts := strings.Split(line[1:], ",")
		if len(parts) != 3 {
			return Command{}, false
		}
		var rgb [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return Command{}, false
			}
			rgb[i] = n
		}
		return Command{Kind: KindColor, A: rgb[0], B: rgb[1], C: rgb[2]}, true
	}

	// Indicator brightness: L<0-255> absolute, B<0-100> percent.
	if len(line) > 1 && (line[0] == 'L' || line[0] == 'B') {
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return Command{}, false
		}
		if line[0] == 'L' {
			return Command{Kind: KindBrightness, A: n}, true
		}
		return Command{Kind: KindBrightnessPercent, A: n}, true
	}

	return Command{}, false
}
