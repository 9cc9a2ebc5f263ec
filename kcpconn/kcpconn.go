// Package kcpconn provides a reliable byte-stream transport over UDP
// using KCP. It exposes the net.Listener/net.Conn shape, so the
// transfer protocol runs over it unmodified as an alternate backend.
package kcpconn

import (
	"net"

	"github.com/xtaci/kcp-go"
)

const (
	ecParityShards = 3
	ecDataShards   = 10
)

// Listen creates a KCP listener on the given UDP address.
func Listen(addr string) (net.Listener, error) {
	ln, err := kcp.ListenWithOptions(addr, nil, ecDataShards, ecParityShards)
	if err != nil {
		return nil, err
	}
	return &listener{ln}, nil
}

// Dial connects to a KCP listener at the given UDP address.
func Dial(addr string) (net.Conn, error) {
	session, err := kcp.DialWithOptions(addr, nil, ecDataShards, ecParityShards)
	if err != nil {
		return nil, err
	}
	setupKCP(session)
	// The accepted peer session starts with kcp-go's default 32-segment
	// receive window until Accept has tuned it. A larger send window
	// here lets the first burst overrun that window, and the sender
	// then sits out the zero-window probe backoff. Cap the dial-side
	// send window at the peer's initial receive window.
	session.SetWindowSize(32, 256)
	return session, nil
}

type listener struct {
	*kcp.Listener
}

func (l *listener) Accept() (net.Conn, error) {
	session, err := l.AcceptKCP()
	if err != nil {
		return nil, err
	}
	setupKCP(session)
	return session, nil
}

func setupKCP(s *kcp.UDPSession) {
	s.SetMtu(1200)
	s.SetStreamMode(true)
	s.SetWriteDelay(false)
	s.SetWindowSize(256, 256)

	// https://github.com/skywind3000/kcp/blob/master/README.en.md#protocol-configuration
	// Normal Mode: ikcp_nodelay(kcp, 0, 40, 0, 0);
	// s.SetNoDelay(0, 40, 0, 0)

	// Turbo Mode: ikcp_nodelay(kcp, 1, 10, 2, 1);
	s.SetNoDelay(1, 10, 2, 1)
}
