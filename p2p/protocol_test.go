//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"
)

var tests = []interface{}{
	uint32(44),
	"Hello, world!",
	[]byte{},
	make([]byte, 1024),
	make([]byte, 2*1024*1024),
}

func writer(c *Conn, done chan error) {
	for _, test := range tests {
		var err error
		switch d := test.(type) {
		case uint32:
			err = c.SendUint32(int(d))
		case string:
			err = c.SendString(d)
		case []byte:
			err = c.SendData(d)
		default:
			err = fmt.Errorf("writer: invalid data: %v(%T)", test, test)
		}
		if err != nil {
			done <- err
			return
		}
	}
	done <- c.Flush()
}

func TestProtocol(t *testing.T) {
	p0, p1 := Pipe()
	done := make(chan error, 1)

	go writer(p0, done)

	for _, test := range tests {
		switch d := test.(type) {
		case uint32:
			v, err := p1.ReceiveUint32()
			if err != nil {
				t.Fatalf("ReceiveUint32: %v", err)
			}
			if uint32(v) != d {
				t.Errorf("ReceiveUint32: got %v, expected %v", v, d)
			}
		case string:
			v, err := p1.ReceiveString()
			if err != nil {
				t.Fatalf("ReceiveString: %v", err)
			}
			if v != d {
				t.Errorf("ReceiveString: got %v, expected %v", v, d)
			}
		case []byte:
			v, err := p1.ReceiveData()
			if err != nil {
				t.Fatalf("ReceiveData: %v", err)
			}
			if !bytes.Equal(v, d) {
				t.Errorf("ReceiveData: [%v]byte mismatch", len(d))
			}
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("writer: %v", err)
	}
	if p0.Stats.Sent.Load() != p1.Stats.Recvd.Load() {
		t.Errorf("stats mismatch: sent=%v, recvd=%v",
			p0.Stats.Sent.Load(), p1.Stats.Recvd.Load())
	}
	if err := p0.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, err := p1.ReceiveData(); err == nil {
		t.Errorf("receive from closed pipe succeeded")
	}
	p1.Close()
}

func TestTimeout(t *testing.T) {
	p0, p1 := Pipe()
	defer p0.Close()
	defer p1.Close()

	p1.SetTimeout(50 * time.Millisecond)

	_, err := p1.ReceiveData()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	// Timeouts are terminal.
	if _, err := p1.ReceiveUint32(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("connection usable after timeout: %v", err)
	}
}

func TestClosed(t *testing.T) {
	p0, p1 := Pipe()
	defer p1.Close()

	if err := p0.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p0.SendData([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("send on closed connection: %v", err)
	}
	if _, err := p0.ReceiveData(); !errors.Is(err, ErrClosed) {
		t.Errorf("receive on closed connection: %v", err)
	}
	if err := p0.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestListenDial(t *testing.T) {
	l, err := Listen("127.0.0.1:0", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		msg, err := conn.ReceiveString()
		if err != nil {
			done <- err
			return
		}
		if err := conn.SendString("re: " + msg); err != nil {
			done <- err
			return
		}
		done <- conn.Flush()
	}()

	conn, err := Dial(l.Addr().String(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.SendString("ping"); err != nil {
		t.Fatal(err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatal(err)
	}
	reply, err := conn.ReceiveString()
	if err != nil {
		t.Fatal(err)
	}
	if reply != "re: ping" {
		t.Errorf("unexpected reply %q", reply)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
