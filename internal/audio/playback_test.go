package audio

import (
	"encoding/binary"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/hardware"
)

type testGate struct {
	open atomic.Bool
}

func (g *testGate) GateOpen() bool { return g.open.Load() }

func payloadOf(samples ...int16) []byte {
	b := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		b = binary.LittleEndian.AppendUint16(b, uint16(s))
	}
	return b
}

func startPlayback(t *testing.T, gate Gate) (*Playback, *hardware.SimSpeaker, *net.UDPAddr) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	speaker := hardware.NewSimSpeaker()
	p := NewPlayback(speaker, conn, gate, zap.NewNop())
	go p.Run()
	t.Cleanup(func() {
		p.Stop()
		conn.Close()
	})
	return p, speaker, conn.LocalAddr().(*net.UDPAddr)
}

func TestPlaybackUnmutesOnFirstPacket(t *testing.T) {
	gate := &testGate{}
	_, speaker, addr := startPlayback(t, gate)

	assert.True(t, speaker.Muted(), "muted before the first datagram")

	client, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write(payloadOf(100, -100, 200))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return !speaker.Muted() && speaker.PlayedSamples() >= 3
	}, 2*time.Second, 10*time.Millisecond, "first datagram must open the gate")
}

func TestPlaybackStopMutesUnlessChatHolds(t *testing.T) {
	gate := &testGate{}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	speaker := hardware.NewSimSpeaker()

	p := NewPlayback(speaker, conn, gate, zap.NewNop())
	go p.Run()

	client, err := net.DialUDP("udp", nil, conn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()
	_, err = client.Write(payloadOf(1, 2, 3))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return !speaker.Muted() },
		2*time.Second, 10*time.Millisecond)

	p.Stop()
	assert.True(t, speaker.Muted(), "stop with no chat mode must mute")
}

func TestPlaybackStopKeepsGateForChat(t *testing.T) {
	gate := &testGate{}
	gate.open.Store(true)
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()
	speaker := hardware.NewSimSpeaker()

	p := NewPlayback(speaker, conn, gate, zap.NewNop())
	go p.Run()

	assert.Eventually(t, func() bool { return !speaker.Muted() },
		2*time.Second, 10*time.Millisecond, "open gate unmutes without packets")

	p.Stop()
	assert.False(t, speaker.Muted(), "chat mode still holds the gate open")
}

func TestPlaybackTruncatesOversizedDatagram(t *testing.T) {
	gate := &testGate{}
	_, speaker, addr := startPlayback(t, gate)

	client, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer client.Close()

	// Twice the fixed output buffer: must be truncated, not rejected.
	big := make([]int16, 2*playbackBufSamples)
	for i := range big {
		big[i] = int16(i)
	}
	_, err = client.Write(payloadOf(big...))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return speaker.PlayedSamples() == playbackBufSamples
	}, 2*time.Second, 10*time.Millisecond)
}
