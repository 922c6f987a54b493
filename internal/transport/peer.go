// Package transport carries the text command protocol over its two
// channels: a UDP datagram socket and a local serial-like line stream.
// It also tracks the lazily discovered peer ("brain") endpoint.
package transport

import (
	"net"
	"sync/atomic"
)

// Peer holds the discovered counterpart endpoint. It is written from the
// UDP receive goroutine and read from the dispatcher and audio goroutines;
// the atomic pointer keeps those reads tear-free without a lock.
type Peer struct {
	addr atomic.Pointer[net.UDPAddr]
}

// Learn records the peer address. Called on every inbound command
// datagram, so a relocated brain is picked up automatically.
func (p *Peer) Learn(a *net.UDPAddr) {
	if a == nil {
		return
	}
	cp := *a
	p.addr.Store(&cp)
}

// Addr returns the command-channel endpoint, or nil while undiscovered.
func (p *Peer) Addr() *net.UDPAddr {
	return p.addr.Load()
}

// WithPort returns the peer's IP with the given port, for the dedicated
// audio sockets. Nil while undiscovered.
func (p *Peer) WithPort(port int) *net.UDPAddr {
	a := p.addr.Load()
	if a == nil {
		return nil
	}
	return &net.UDPAddr{IP: a.IP, Port: port}
}

// Discovered reports whether a peer endpoint is known.
func (p *Peer) Discovered() bool {
	return p.addr.Load() != nil
}

// Reset forgets the peer. Used only by explicit reset paths; normal
// operation keeps the endpoint until process restart.
func (p *Peer) Reset() {
	p.addr.Store(nil)
}
