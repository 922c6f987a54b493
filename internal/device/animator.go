package device

import (
	"math"
	"math/rand"
	"time"

	"github.com/shaveenudayanga/lumina/internal/hardware"
)

const (
	blinkInterval = 4 * time.Second
	blinkDuration = 200 * time.Millisecond
	talkInterval  = 150 * time.Millisecond
)

// Animator drives the idle face animation and the indicator breathing
// effect. It runs on the dispatcher goroutine and reads State directly;
// there is no cross-goroutine access here.
type Animator struct {
	state     *State
	display   hardware.Display
	indicator hardware.Indicator

	eyesOpen     bool
	mouthState   int
	breathPhase  float64
	lastBlink    time.Time
	lastTalkTick time.Time

	// TalkWiggle, when set, receives a small tilt offset on each talk
	// animation tick so the head bobs while speaking.
	TalkWiggle func(delta int)
}

// NewAnimator wires the animator to the peripherals it refreshes.
func NewAnimator(state *State, display hardware.Display, indicator hardware.Indicator) *Animator {
	return &Animator{
		state:     state,
		display:   display,
		indicator: indicator,
		eyesOpen:  true,
	}
}

// TickFace advances the blink/talk animation. Call at animation cadence.
func (a *Animator) TickFace(now time.Time) {
	if a.state.Talking() {
		if now.Sub(a.lastTalkTick) >= talkInterval {
			a.lastTalkTick = now
			a.mouthState = rand.Intn(3)
			if a.TalkWiggle != nil {
				a.TalkWiggle(rand.Intn(7) - 3)
			}
			a.display.ShowFace(a.state.Mood().String(), true, a.mouthState)
		}
		return
	}

	a.mouthState = 0
	if a.eyesOpen && now.Sub(a.lastBlink) >= blinkInterval {
		a.lastBlink = now
		a.eyesOpen = false
		a.display.ShowFace(a.state.Mood().String(), false, 0)
		return
	}
	if !a.eyesOpen && now.Sub(a.lastBlink) >= blinkDuration {
		a.eyesOpen = true
		a.display.ShowFace(a.state.Mood().String(), true, 0)
	}
}

// TickIndicator advances the breathing brightness curve. Call at LED
// refresh cadence.
func (a *Animator) TickIndicator() {
	a.breathPhase += 0.05
	// Scale between roughly one third and two thirds of full brightness.
	scale := (math.Sin(a.breathPhase)+1)/6 + 1.0/3
	level := float64(a.state.Brightness()) * scale
	a.indicator.SetColor(a.state.IndicatorColor())
	a.indicator.SetBrightness(uint8(level))
}

// Redraw forces an immediate face refresh, used after mood transitions.
func (a *Animator) Redraw() {
	a.display.ShowFace(a.state.Mood().String(), a.eyesOpen, a.mouthState)
}
