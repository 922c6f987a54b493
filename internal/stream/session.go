// Package stream implements the eyes unit: a single-client MJPEG session
// manager over HTTP. One session may be active at a time; a second client
// is rejected immediately with a busy status and never queued.
package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/hardware"
	"github.com/shaveenudayanga/lumina/internal/metrics"
)

// ErrBusy is returned to a connection attempt while a session is active.
var ErrBusy = errors.New("stream: session already active")

// Boundary is the multipart frame separator.
const Boundary = "frame"

// throughputWindow is how many frames pass between throughput log lines.
const throughputWindow = 100

// Status is the observable session state for the status endpoint.
type Status struct {
	Active    bool      `json:"active"`
	SessionID string    `json:"session_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Frames    uint64    `json:"frames"`
	Bytes     uint64    `json:"bytes"`
}

// Manager owns the single session slot.
type Manager struct {
	camera      hardware.Camera
	idleTimeout time.Duration
	logger      *zap.Logger

	// active is the session lock; cancel is the externally raised
	// cooperative cancellation flag, checked once per loop iteration.
	active atomic.Bool
	cancel atomic.Bool

	mu     sync.Mutex
	status Status
}

// NewManager creates a manager around the camera.
func NewManager(camera hardware.Camera, idleTimeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		camera:      camera,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Serve runs a streaming session on w, which must support flushing.
// Returns ErrBusy without touching the active session if the slot is
// taken. Otherwise it blocks until the client disconnects, the session is
// cancelled, or the camera stalls past the inactivity timeout.
func (m *Manager) Serve(w http.ResponseWriter) error {
	if !m.active.CompareAndSwap(false, true) {
		metrics.StreamRejections.Inc()
		return ErrBusy
	}
	defer func() {
		m.cancel.Store(false)
		m.active.Store(false)
		m.clearStatus()
	}()

	id := uuid.NewString()
	m.setStatus(Status{Active: true, SessionID: id, StartedAt: time.Now()})
	m.logger.Info("stream session started", zap.String("session_id", id))

	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("stream: response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+Boundary)
	w.WriteHeader(http.StatusOK)

	err := m.run(w, flusher)
	m.logger.Info("stream session ended", zap.String("session_id", id), zap.Error(err))
	return err
}

func (m *Manager) run(w io.Writer, flusher http.Flusher) error {
	// The producer goroutine exits through sessDone when the session
	// ends; the camera's own latest-wins buffering bounds staleness to a
	// single frame.
	type frameResult struct {
		data []byte
		err  error
	}
	frames := make(chan frameResult)
	sessDone := make(chan struct{})
	defer close(sessDone)

	go func() {
		for {
			data, err := m.camera.NextFrame()
			select {
			case frames <- frameResult{data: data, err: err}:
				if err != nil {
					return
				}
			case <-sessDone:
				return
			}
		}
	}()

	var (
		frameCount  uint64
		byteCount   uint64
		windowStart = time.Now()
		windowBytes uint64
	)

	idle := time.NewTimer(m.idleTimeout)
	defer idle.Stop()

	for {
		if m.cancel.Load() {
			return nil
		}

		var fr frameResult
		select {
		case fr = <-frames:
		case <-idle.C:
			// A stalled camera must not hold the single slot forever.
			return fmt.Errorf("stream: no frame within %s", m.idleTimeout)
		}
		if fr.err != nil {
			return fmt.Errorf("stream: frame acquisition: %w", fr.err)
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(m.idleTimeout)

		// Three ordered writes: boundary, header, payload. Any failure
		// means the peer is gone and the session ends.
		if _, err := fmt.Fprintf(w, "\r\n--%s\r\n", Boundary); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(fr.data)); err != nil {
			return err
		}
		if _, err := w.Write(fr.data); err != nil {
			return err
		}
		flusher.Flush()

		frameCount++
		byteCount += uint64(len(fr.data))
		windowBytes += uint64(len(fr.data))
		metrics.StreamFramesServed.Inc()
		metrics.StreamBytesServed.Add(float64(len(fr.data)))
		m.touchStatus(frameCount, byteCount)

		if frameCount%throughputWindow == 0 {
			elapsed := time.Since(windowStart).Seconds()
			if elapsed > 0 {
				m.logger.Info("stream throughput",
					zap.Float64("fps", throughputWindow/elapsed),
					zap.Float64("kbps", float64(windowBytes)*8/1024/elapsed))
			}
			windowStart = time.Now()
			windowBytes = 0
		}
	}
}

// CancelActive raises the cancellation flag for the active session. No-op
// while idle.
func (m *Manager) CancelActive() bool {
	if !m.active.Load() {
		return false
	}
	m.cancel.Store(true)
	return true
}

// Active reports whether a session holds the slot.
func (m *Manager) Active() bool { return m.active.Load() }

// Status returns a copy of the observable session state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) touchStatus(frames, bytes uint64) {
	m.mu.Lock()
	m.status.Frames = frames
	m.status.Bytes = bytes
	m.mu.Unlock()
}

func (m *Manager) clearStatus() {
	m.mu.Lock()
	m.status = Status{}
	m.mu.Unlock()
}
