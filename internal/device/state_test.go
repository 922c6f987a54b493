package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaveenudayanga/lumina/internal/hardware"
)

func TestBootState(t *testing.T) {
	s := NewState()
	assert.Equal(t, MoodSleep, s.Mood())
	assert.False(t, s.ChatMode())
	assert.False(t, s.Talking())
	assert.False(t, s.GateOpen())
	assert.Equal(t, hardware.ColorBlue, s.IndicatorColor())
}

// Exhaustively walk short start/stop sequences and check the gate equals
// isTalking OR chatMode at every observation point.
func TestGateInvariantAcrossSequences(t *testing.T) {
	ops := []func(*State){
		func(s *State) { s.SetTalking(true) },
		func(s *State) { s.SetTalking(false) },
		func(s *State) { s.SetChatMode(true) },
		func(s *State) { s.SetChatMode(false) },
	}
	for i := range ops {
		for j := range ops {
			for k := range ops {
				s := NewState()
				for _, idx := range []int{i, j, k} {
					ops[idx](s)
					assert.Equal(t, s.Talking() || s.ChatMode(), s.GateOpen(),
						"sequence %d-%d-%d", i, j, k)
				}
			}
		}
	}
}

func TestChatStopMutesOnlyWhenTalkAlsoOff(t *testing.T) {
	s := NewState()
	s.SetChatMode(true)
	s.SetTalking(true)

	// Note SetChatMode(false) also drops the talk flag (sleep transition),
	// matching the firmware's CHAT_STOP behavior.
	s.SetChatMode(false)
	assert.False(t, s.GateOpen())
}

func TestTalkStopKeepsGateWhileChatting(t *testing.T) {
	s := NewState()
	s.SetChatMode(true)
	s.SetTalking(true)
	s.SetTalking(false)
	assert.True(t, s.GateOpen(), "chat mode must keep the gate open")
}

func TestSleepForcesFlagsOff(t *testing.T) {
	s := NewState()
	s.SetChatMode(true)
	s.SetTalking(true)
	s.SetMood(MoodSleep)

	assert.False(t, s.ChatMode())
	assert.False(t, s.Talking())
	assert.False(t, s.GateOpen())
	assert.Equal(t, hardware.ColorBlue, s.IndicatorColor())
}

func TestMoodColors(t *testing.T) {
	s := NewState()
	s.SetMood(MoodListening)
	assert.Equal(t, hardware.ColorGreen, s.IndicatorColor())
	s.SetMood(MoodLove)
	assert.Equal(t, hardware.ColorPink, s.IndicatorColor())
}

func TestBrightnessClamping(t *testing.T) {
	s := NewState()
	s.SetBrightness(300)
	assert.Equal(t, uint8(255), s.Brightness())
	s.SetBrightness(-5)
	assert.Equal(t, uint8(0), s.Brightness())

	s.SetBrightnessPercent(50)
	assert.Equal(t, uint8(128), s.Brightness())
	s.SetBrightnessPercent(200)
	assert.Equal(t, uint8(255), s.Brightness())
}

func TestSnapshot(t *testing.T) {
	s := NewState()
	s.SetChatMode(true)
	snap := s.Snapshot(120, 60)

	assert.Equal(t, "listening", snap.Mood)
	assert.True(t, snap.ChatMode)
	assert.True(t, snap.GateOpen)
	assert.Equal(t, 120, snap.Pan)
	assert.Equal(t, 60, snap.Tilt)
}
