//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

const (
	writeBufSize = 64 * 1024
	readBufSize  = 64 * 1024

	// MaxDataSize limits the size of a single received data frame.
	MaxDataSize = 64 * 1024 * 1024
)

var (
	// ErrTimeout is returned when a send or receive does not
	// complete within the connection timeout. The connection is not
	// usable after a timeout.
	ErrTimeout = errors.New("p2p: timeout")

	// ErrClosed is returned for operations on a closed connection.
	ErrClosed = errors.New("p2p: connection closed")
)

// Conn implements a protocol connection. It frames binary data as
// big-endian uint32 length followed by the data bytes.
type Conn struct {
	conn    io.ReadWriter
	r       *bufio.Reader
	w       *bufio.Writer
	timeout time.Duration
	failed  error
	closed  bool
	Stats   IOStats
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Sub subtracts the argument stats from this IOStats and returns the
// difference.
func (stats IOStats) Sub(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load() - o.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load() - o.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load() - o.Flushed.Load())
	return result
}

// Snapshot returns a copy of the current statistics.
func (stats IOStats) Snapshot() IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load())
	return result
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

type statWriter struct {
	w     io.Writer
	stats IOStats
}

func (w *statWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.stats.Sent.Add(uint64(n))
	return n, err
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	stats := NewIOStats()
	return &Conn{
		conn: conn,
		r:    bufio.NewReaderSize(conn, readBufSize),
		w: bufio.NewWriterSize(&statWriter{
			w:     conn,
			stats: stats,
		}, writeBufSize),
		Stats: stats,
	}
}

// SetTimeout sets the timeout for each subsequent flush and receive
// operation. The timeout is applied only if the underlying
// connection supports deadlines.
func (c *Conn) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

func (c *Conn) arm() error {
	if c.closed {
		return ErrClosed
	}
	if c.failed != nil {
		return c.failed
	}
	if c.timeout <= 0 {
		return nil
	}
	d, ok := c.conn.(deadliner)
	if !ok {
		return nil
	}
	return d.SetDeadline(time.Now().Add(c.timeout))
}

func (c *Conn) fail(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if c.failed == nil {
		c.failed = err
	}
	return err
}

// Flush flushed any pending data in the connection.
func (c *Conn) Flush() error {
	if c.w.Buffered() == 0 {
		return nil
	}
	if err := c.arm(); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return c.fail(err)
	}
	c.Stats.Flushed.Add(1)
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	if err := c.arm(); err != nil {
		return err
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(val))
	_, err := c.w.Write(buf[:])
	if err != nil {
		return c.fail(err)
	}
	return nil
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	if len(val) > MaxDataSize {
		return fmt.Errorf("p2p: data too large: %d", len(val))
	}
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	if err := c.arm(); err != nil {
		return err
	}
	if _, err := c.w.Write(val); err != nil {
		return c.fail(err)
	}
	return nil
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if err := c.arm(); err != nil {
		return 0, err
	}
	var buf [4]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return 0, c.fail(err)
	}
	c.Stats.Recvd.Add(4)
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if n > MaxDataSize {
		return nil, c.fail(fmt.Errorf("p2p: data too large: %d", n))
	}
	result := make([]byte, n)
	if _, err := io.ReadFull(c.r, result); err != nil {
		return nil, c.fail(err)
	}
	c.Stats.Recvd.Add(uint64(n))
	return result, nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close flushes any pending data and closes the connection. Close
// releases the underlying connection even if the flush fails.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	var err error
	if c.failed == nil {
		err = c.Flush()
	}
	c.closed = true

	closer, ok := c.conn.(io.Closer)
	if ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
