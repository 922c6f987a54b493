package audio

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// pacedMic yields a fixed ramp block at a fast test cadence.
type pacedMic struct {
	closed atomic.Bool
}

func (m *pacedMic) ReadBlock(dst []uint16) error {
	if m.closed.Load() {
		return net.ErrClosed
	}
	time.Sleep(time.Millisecond)
	for i := range dst {
		dst[i] = uint16(2048 + i%32)
	}
	return nil
}

func (m *pacedMic) Close() error {
	m.closed.Store(true)
	return nil
}

func TestCaptureSequencesStrictlyIncrease(t *testing.T) {
	recv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer recv.Close()

	send, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer send.Close()

	peerAddr := recv.LocalAddr().(*net.UDPAddr)
	cap := NewCapture(&pacedMic{}, NewConditioner(2048, 0.995), send,
		func() *net.UDPAddr { return peerAddr }, 64, zap.NewNop())
	go cap.Run()
	defer cap.Stop()

	buf := make([]byte, 2048)
	var prev uint32
	for i := 0; i < 10; i++ {
		recv.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := recv.ReadFromUDP(buf)
		require.NoError(t, err)

		seq, _, samples, err := DecodeFrame(buf[:n])
		require.NoError(t, err)
		require.Len(t, samples, 64)
		if i > 0 {
			assert.Equal(t, prev+1, seq, "sequence numbers must strictly increase")
		}
		prev = seq
	}
}

func TestCaptureNoopUntilPeerDiscovered(t *testing.T) {
	recv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer recv.Close()

	send, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer send.Close()

	var peer atomic.Pointer[net.UDPAddr]
	cap := NewCapture(&pacedMic{}, NewConditioner(2048, 0.995), send,
		peer.Load, 64, zap.NewNop())
	go cap.Run()
	defer cap.Stop()

	// Undiscovered: nothing may arrive.
	recv.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 2048)
	_, _, err = recv.ReadFromUDP(buf)
	require.Error(t, err)

	// Discovery flips transmission on without restarting the pipeline.
	peer.Store(recv.LocalAddr().(*net.UDPAddr))
	recv.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = recv.ReadFromUDP(buf)
	assert.NoError(t, err)
}
