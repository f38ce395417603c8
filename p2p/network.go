//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
	"time"
)

// Dial connects to the peer at addr. The timeout limits the connect
// and all subsequent round trips; zero disables it.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	conn := NewConn(nc)
	conn.SetTimeout(timeout)
	return conn, nil
}

// Listener accepts peer connections.
type Listener struct {
	listener net.Listener
	timeout  time.Duration
}

// Listen creates a new listener at addr. The timeout is set for all
// accepted connections.
func Listen(addr string, timeout time.Duration) (*Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{
		listener: listener,
		timeout:  timeout,
	}, nil
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Accept waits for the next peer connection.
func (l *Listener) Accept() (*Conn, error) {
	nc, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	conn := NewConn(nc)
	conn.SetTimeout(l.timeout)
	return conn, nil
}

// Close closes the listener.
func (l *Listener) Close() error {
	return l.listener.Close()
}
