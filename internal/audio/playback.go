package audio

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/metrics"
)

// playbackBufSamples is the fixed output buffer size. Datagrams larger
// than this are truncated, never rejected.
const playbackBufSamples = 512

// pollTimeout bounds each receive wait so the stop flag is observed
// promptly even when the peer goes quiet.
const pollTimeout = 200 * time.Millisecond

// Gate is the playback pipeline's view of the talk/chat output gate.
type Gate interface {
	GateOpen() bool
}

// Playback is the network-to-speaker pipeline. Datagrams in this
// direction carry no header: raw little-endian int16 samples, played in
// arrival order, loss and reordering accepted as-is.
type Playback struct {
	speaker hardware.Speaker
	conn    *net.UDPConn
	gate    Gate

	// receiving flips on the first datagram of the session and stays set
	// until teardown; it keeps the output enabled for the session even
	// when the talk/chat flags are both off.
	receiving bool

	stop chan struct{}
	done chan struct{}

	logger *zap.Logger
}

// NewPlayback creates a playback pipeline listening on conn.
func NewPlayback(speaker hardware.Speaker, conn *net.UDPConn, gate Gate, logger *zap.Logger) *Playback {
	return &Playback{
		speaker: speaker,
		conn:    conn,
		gate:    gate,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Run polls the receive port and drives the speaker until Stop.
func (p *Playback) Run() {
	defer close(p.done)

	raw := make([]byte, 4096)
	buf := make([]int16, playbackBufSamples)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		p.speaker.SetMuted(!(p.gate.GateOpen() || p.receiving))

		if err := p.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return
		}
		n, _, err := p.conn.ReadFromUDP(raw)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			p.logger.Debug("audio receive failed", zap.Error(err))
			continue
		}

		if !p.receiving {
			p.receiving = true
			p.speaker.SetMuted(false)
		}

		if n > 2*playbackBufSamples {
			metrics.AudioTruncated.Inc()
		}
		count := DecodePayload(raw[:n], buf)
		metrics.AudioBlocksReceived.Inc()

		if err := p.speaker.Play(buf[:count]); err != nil {
			p.logger.Debug("speaker write failed", zap.Error(err))
		}
	}
}

// Stop ends the session cooperatively. The output is muted afterwards
// unless chat mode independently still holds the gate open.
func (p *Playback) Stop() {
	close(p.stop)
	<-p.done
	p.receiving = false
	p.speaker.SetMuted(!p.gate.GateOpen())
}
