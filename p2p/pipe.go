//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
)

// Pipe implements the Conn interface as a bidirectional communication
// pipe. Anything send to the first endpoint can be received from the
// second and vice versa. The pipe endpoints support deadlines so
// connection timeouts apply to them.
func Pipe() (*Conn, *Conn) {
	p0, p1 := net.Pipe()
	return NewConn(p0), NewConn(p1)
}
