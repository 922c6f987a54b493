// Package audio implements the duplex audio path: microphone capture with
// signal conditioning and wire framing, and datagram playback with
// first-packet gating.
package audio

import "math"

// Conditioner turns raw unsigned microphone blocks into clean signed
// samples. The high-pass filter state persists across blocks; resetting it
// every cycle would reintroduce a click at each block boundary.
type Conditioner struct {
	midpoint float64
	coeff    float64
	prevIn   float64
	prevOut  float64
}

// NewConditioner creates a conditioner. midpoint is the raw ADC value that
// represents silence; coeff is the one-pole high-pass coefficient, close
// to 1 for a gentle sub-audio roll-off.
func NewConditioner(midpoint int, coeff float64) *Conditioner {
	return &Conditioner{midpoint: float64(midpoint), coeff: coeff}
}

// Process conditions one block in place of dst. Steps, in order: center
// around the ADC midpoint, subtract the block mean (tracks slow bias drift
// a fixed threshold cannot), run the persistent high-pass, clamp to the
// int16 range. len(dst) must equal len(raw).
func (c *Conditioner) Process(raw []uint16, dst []int16) {
	if len(raw) == 0 {
		return
	}

	centered := make([]float64, len(raw))
	var sum float64
	for i, v := range raw {
		centered[i] = float64(v) - c.midpoint
		sum += centered[i]
	}
	mean := sum / float64(len(centered))

	for i := range centered {
		x := centered[i] - mean
		y := c.coeff * (c.prevOut + x - c.prevIn)
		c.prevIn = x
		c.prevOut = y
		dst[i] = clampInt16(y)
	}
}

// Reset clears the filter state. Only called when a capture session tears
// down, never between blocks of a live session.
func (c *Conditioner) Reset() {
	c.prevIn = 0
	c.prevOut = 0
}

func clampInt16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
