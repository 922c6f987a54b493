package transport

import (
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/metrics"
)

// Line is one received command line plus the way back to its sender.
type Line struct {
	Text   string
	Source string
	Reply  func(string)
}

// UDPChannel is the network command channel. Inbound datagrams discover
// the peer; outbound status and heartbeats go to the peer's command port,
// matching the firmware's fixed-port reply convention.
type UDPChannel struct {
	conn    *net.UDPConn
	peer    *Peer
	cmdPort int
	logger  *zap.Logger

	// Consecutive send failures; at the limit the restart hook fires as
	// last-resort link recovery.
	failures  int
	failLimit int
	restart   func()
}

// ListenUDP opens the command socket.
func ListenUDP(port int, peer *Peer, failLimit int, restart func(), logger *zap.Logger) (*UDPChannel, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("command socket: %w", err)
	}
	return &UDPChannel{
		conn: conn,
		peer: peer,
		// Bound port, not the requested one, so an ephemeral bind still
		// replies to the right place.
		cmdPort:   conn.LocalAddr().(*net.UDPAddr).Port,
		logger:    logger,
		failLimit: failLimit,
		restart:   restart,
	}, nil
}

// Run reads datagrams into the dispatch queue until the socket closes.
// Runs on its own goroutine.
func (ch *UDPChannel) Run(lines chan<- Line) {
	buf := make([]byte, 512)
	for {
		n, addr, err := ch.conn.ReadFromUDP(buf)
		if err != nil {
			ch.logger.Debug("command socket closed", zap.Error(err))
			return
		}
		ch.peer.Learn(addr)

		text := strings.TrimSpace(string(buf[:n]))
		if text == "" {
			continue
		}
		metrics.CommandsDispatched.WithLabelValues("udp").Inc()
		lines <- Line{
			Text:   text,
			Source: addr.String(),
			Reply:  ch.Send,
		}
	}
}

// Send transmits one status line to the discovered peer. No-op while
// undiscovered. Repeated failures escalate to the restart hook; nothing
// else in the system restarts the process.
func (ch *UDPChannel) Send(line string) {
	addr := ch.peer.Addr()
	if addr == nil {
		return
	}
	dst := &net.UDPAddr{IP: addr.IP, Port: ch.cmdPort}
	if _, err := ch.conn.WriteToUDP([]byte(line), dst); err != nil {
		ch.failures++
		metrics.HeartbeatFailures.Inc()
		ch.logger.Warn("status send failed",
			zap.Int("consecutive", ch.failures),
			zap.Error(err))
		if ch.failLimit > 0 && ch.failures >= ch.failLimit && ch.restart != nil {
			ch.logger.Error("link failure limit reached, restarting")
			ch.restart()
		}
		return
	}
	ch.failures = 0
}

// Heartbeat sends the periodic liveness line reflecting chat mode.
func (ch *UDPChannel) Heartbeat(listening bool) {
	if listening {
		ch.Send("HEARTBEAT:LISTENING")
	} else {
		ch.Send("HEARTBEAT:MUTE")
	}
}

// Close shuts the socket down, unblocking Run.
func (ch *UDPChannel) Close() error {
	return ch.conn.Close()
}
