package transport

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPeerDiscovery(t *testing.T) {
	p := &Peer{}
	assert.False(t, p.Discovered())
	assert.Nil(t, p.Addr())
	assert.Nil(t, p.WithPort(5006))

	src := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 50), Port: 49123}
	p.Learn(src)
	require.True(t, p.Discovered())
	assert.Equal(t, src.String(), p.Addr().String())

	audio := p.WithPort(5006)
	require.NotNil(t, audio)
	assert.True(t, audio.IP.Equal(src.IP))
	assert.Equal(t, 5006, audio.Port)

	// Learn copies: mutating the source must not leak through.
	src.Port = 1
	assert.Equal(t, 49123, p.Addr().Port)

	p.Learn(nil)
	assert.True(t, p.Discovered(), "nil address must not forget the peer")

	p.Reset()
	assert.False(t, p.Discovered())
}

func TestPeerRelearnsMovedBrain(t *testing.T) {
	p := &Peer{}
	p.Learn(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4000})
	p.Learn(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 4001})
	assert.Equal(t, "10.0.0.2:4001", p.Addr().String())
}

func TestUDPChannelLearnsPeerAndQueuesLines(t *testing.T) {
	peer := &Peer{}
	ch, err := ListenUDP(0, peer, 10, nil, zap.NewNop())
	require.NoError(t, err)
	defer ch.Close()

	lines := make(chan Line, 4)
	go ch.Run(lines)

	client, err := net.DialUDP("udp", nil, ch.conn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("PING\n"))
	require.NoError(t, err)

	select {
	case ln := <-lines:
		assert.Equal(t, "PING", ln.Text, "lines are trimmed")
		assert.NotNil(t, ln.Reply)
	case <-time.After(time.Second):
		t.Fatal("no line received")
	}
	assert.True(t, peer.Discovered())

	// Blank datagrams are dropped before dispatch.
	_, err = client.Write([]byte("  \n"))
	require.NoError(t, err)
	_, err = client.Write([]byte("STATUS"))
	require.NoError(t, err)
	select {
	case ln := <-lines:
		assert.Equal(t, "STATUS", ln.Text)
	case <-time.After(time.Second):
		t.Fatal("no line received")
	}
}

func TestUDPSendTargetsCommandPort(t *testing.T) {
	// A listener standing in for the brain, bound on an ephemeral port
	// that plays the role of the fixed command port.
	brain, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer brain.Close()
	brainPort := brain.LocalAddr().(*net.UDPAddr).Port

	peer := &Peer{}
	ch, err := ListenUDP(0, peer, 10, nil, zap.NewNop())
	require.NoError(t, err)
	defer ch.Close()
	ch.cmdPort = brainPort

	// Undiscovered: Send is a silent no-op.
	ch.Send("STATUS:MUTE")

	// Discovered from a different source port; replies still go to the
	// command port, not the datagram's source port.
	peer.Learn(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 59999})
	ch.Heartbeat(true)

	buf := make([]byte, 64)
	require.NoError(t, brain.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err := brain.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "HEARTBEAT:LISTENING", string(buf[:n]))

	ch.Heartbeat(false)
	require.NoError(t, brain.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err = brain.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "HEARTBEAT:MUTE", string(buf[:n]))
}

func TestSerialChannelScansAndReplies(t *testing.T) {
	in := strings.NewReader("PING\n\n  F_HAPPY  \n")
	var out strings.Builder
	ch := NewSerialChannel(in, &out, zap.NewNop())

	lines := make(chan Line, 4)
	done := make(chan struct{})
	go func() {
		ch.Run(lines)
		close(done)
	}()

	ln := <-lines
	assert.Equal(t, "PING", ln.Text)
	assert.Equal(t, "serial", ln.Source)
	ln.Reply("PONG")

	ln = <-lines
	assert.Equal(t, "F_HAPPY", ln.Text, "whitespace trimmed, blanks skipped")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("serial channel did not stop at EOF")
	}
	assert.Equal(t, "PONG\n", out.String())
}
