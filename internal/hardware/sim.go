package hardware

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SimDisplay logs face changes instead of drawing them. It deduplicates so
// animation ticks do not flood the log.
type SimDisplay struct {
	logger *zap.Logger

	mu       sync.Mutex
	lastFace string
}

func NewSimDisplay(logger *zap.Logger) *SimDisplay {
	return &SimDisplay{logger: logger}
}

func (d *SimDisplay) ShowFace(face string, eyesOpen bool, mouthState int) {
	d.mu.Lock()
	changed := face != d.lastFace
	d.lastFace = face
	d.mu.Unlock()
	if changed {
		d.logger.Info("display face", zap.String("face", face))
	}
}

func (d *SimDisplay) ShowText(lines ...string) {
	d.logger.Info("display text", zap.Strings("lines", lines))
}

// SimIndicator tracks the light strip state in memory.
type SimIndicator struct {
	mu         sync.Mutex
	color      RGB
	brightness uint8
}

func NewSimIndicator() *SimIndicator {
	return &SimIndicator{color: ColorBlue, brightness: 80}
}

func (i *SimIndicator) SetColor(c RGB) {
	i.mu.Lock()
	i.color = c
	i.mu.Unlock()
}

func (i *SimIndicator) SetBrightness(level uint8) {
	i.mu.Lock()
	i.brightness = level
	i.mu.Unlock()
}

func (i *SimIndicator) Fill(c RGB) {
	i.SetColor(c)
}

// Snapshot returns the current color and brightness.
func (i *SimIndicator) Snapshot() (RGB, uint8) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.color, i.brightness
}

// SimServo records the last written angle and pulse width.
type SimServo struct {
	mu       sync.Mutex
	attached bool
	angle    int
	pulseUs  int
}

func NewSimServo(centerDeg int) *SimServo {
	return &SimServo{attached: true, angle: centerDeg}
}

func (s *SimServo) WriteAngle(deg int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrUnavailable
	}
	s.angle = deg
	return nil
}

func (s *SimServo) WriteMicroseconds(us int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return ErrUnavailable
	}
	s.pulseUs = us
	return nil
}

func (s *SimServo) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	return nil
}

func (s *SimServo) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = true
	return nil
}

// Angle returns the last written angle.
func (s *SimServo) Angle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angle
}

// PulseUs returns the last written pulse width.
func (s *SimServo) PulseUs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulseUs
}

// Attached reports whether the servo output is held.
func (s *SimServo) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// SimMicrophone synthesizes a biased 440 Hz tone with slow bias drift,
// paced at the real block cadence. The bias and drift exercise the capture
// pipeline's DC removal the same way an electret module would.
type SimMicrophone struct {
	sampleRate int
	midpoint   float64
	phase      float64
	drift      float64
	ticker     *time.Ticker
	closed     chan struct{}
	closeOnce  sync.Once
}

func NewSimMicrophone(sampleRate, blockSize int) *SimMicrophone {
	interval := time.Duration(blockSize) * time.Second / time.Duration(sampleRate)
	return &SimMicrophone{
		sampleRate: sampleRate,
		midpoint:   2048,
		ticker:     time.NewTicker(interval),
		closed:     make(chan struct{}),
	}
}

func (m *SimMicrophone) ReadBlock(dst []uint16) error {
	select {
	case <-m.closed:
		return ErrUnavailable
	case <-m.ticker.C:
	}
	step := 2 * math.Pi * 440 / float64(m.sampleRate)
	for i := range dst {
		m.phase += step
		m.drift += 0.001
		v := m.midpoint + 60*math.Sin(m.drift/50) + 400*math.Sin(m.phase)
		if v < 0 {
			v = 0
		}
		if v > 4095 {
			v = 4095
		}
		dst[i] = uint16(v)
	}
	return nil
}

func (m *SimMicrophone) Close() error {
	m.closeOnce.Do(func() {
		m.ticker.Stop()
		close(m.closed)
	})
	return nil
}

// SimSpeaker keeps a bounded tail of played samples for inspection.
type SimSpeaker struct {
	mu     sync.Mutex
	muted  bool
	closed bool
	played int
	tail   []int16
}

func NewSimSpeaker() *SimSpeaker {
	return &SimSpeaker{muted: true}
}

func (s *SimSpeaker) Play(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	if s.muted {
		return nil
	}
	s.played += len(samples)
	s.tail = append(s.tail, samples...)
	if len(s.tail) > 4096 {
		s.tail = s.tail[len(s.tail)-4096:]
	}
	return nil
}

func (s *SimSpeaker) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
}

func (s *SimSpeaker) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Muted reports the amplifier gate.
func (s *SimSpeaker) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// PlayedSamples returns the total sample count accepted while unmuted.
func (s *SimSpeaker) PlayedSamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

// SimCamera renders small moving-gradient JPEG frames at a fixed rate.
// Only the latest frame is ever handed out.
type SimCamera struct {
	interval time.Duration
	frame    uint64
	closed   chan struct{}
	once     sync.Once
}

func NewSimCamera(fps int) *SimCamera {
	if fps <= 0 {
		fps = 15
	}
	return &SimCamera{
		interval: time.Second / time.Duration(fps),
		closed:   make(chan struct{}),
	}
}

func (c *SimCamera) NextFrame() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, ErrUnavailable
	case <-time.After(c.interval):
	}
	c.frame++
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	shift := uint8(c.frame * 7)
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x*4) + shift, uint8(y * 5), shift, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 40}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *SimCamera) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
