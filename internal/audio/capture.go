package audio

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/metrics"
)

// PeerFunc reports the discovered audio destination, or nil while no peer
// is known. The transport layer maintains the value atomically; a read
// that is one command behind is acceptable.
type PeerFunc func() *net.UDPAddr

// Capture is the microphone-to-network pipeline. One instance exists per
// AUDIO_START/AUDIO_STOP pairing; Run executes on its own goroutine and
// exits when Stop is called.
type Capture struct {
	mic       hardware.Microphone
	cond      *Conditioner
	conn      *net.UDPConn
	peer      PeerFunc
	blockSize int

	seq   uint32
	epoch time.Time

	stop chan struct{}
	done chan struct{}

	logger *zap.Logger
}

// NewCapture creates a capture pipeline. conn must be an unconnected UDP
// socket; every frame is addressed per send from the peer function.
func NewCapture(mic hardware.Microphone, cond *Conditioner, conn *net.UDPConn, peer PeerFunc, blockSize int, logger *zap.Logger) *Capture {
	return &Capture{
		mic:       mic,
		cond:      cond,
		conn:      conn,
		peer:      peer,
		blockSize: blockSize,
		epoch:     time.Now(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run samples, conditions, frames and transmits blocks until Stop. The
// microphone's ReadBlock paces the loop at the hardware cadence, so every
// blocking point here is bounded.
func (c *Capture) Run() {
	defer close(c.done)

	raw := make([]uint16, c.blockSize)
	samples := make([]int16, c.blockSize)
	frame := make([]byte, 0, HeaderSize+2*c.blockSize)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if err := c.mic.ReadBlock(raw); err != nil {
			if err == hardware.ErrUnavailable {
				return
			}
			// Transient acquisition failure: skip this cycle.
			c.logger.Debug("mic read failed", zap.Error(err))
			continue
		}

		c.cond.Process(raw, samples)

		peer := c.peer()
		if peer == nil {
			// No-op until the peer is discovered.
			continue
		}

		uptime := uint32(time.Since(c.epoch).Milliseconds())
		frame = EncodeFrame(frame[:0], c.seq, uptime, samples)
		c.seq++ // wraps at the uint32 bound, never reused out of order

		if _, err := c.conn.WriteToUDP(frame, peer); err != nil {
			// Best effort, no retransmission.
			c.logger.Debug("audio frame send failed", zap.Error(err))
			continue
		}
		metrics.AudioBlocksSent.Inc()
	}
}

// Stop requests a cooperative shutdown and waits for the loop to exit.
func (c *Capture) Stop() {
	close(c.stop)
	<-c.done
}
