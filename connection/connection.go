// Package connection wraps a raw TCP stream with a tunnel cipher: the first
// bytes in each direction are the clear IV, everything after is one
// continuous encrypted stream.
package connection

import (
	"fmt"
	"io"
	"net"

	"github.com/WaenMax/jumptiger/cipher"
)

// ErrHandshakeTruncated reports EOF before a full peer IV arrived.
var ErrHandshakeTruncated = fmt.Errorf("connection closed before iv handshake completed")

// Counter receives byte accounting for every successful read and write.
// Implemented by the stats connection record.
type Counter interface {
	AddBytesIn(n int)
	AddBytesOut(n int)
}

// Conn is a framed tunnel stream. Once the IV has flowed in a direction the
// stream is transparent bytes-in/bytes-out; the IV is not acknowledged and
// has no framing of its own.
type Conn struct {
	net.Conn

	cipher  cipher.Cipher
	counter Counter
}

// New wraps raw with c. counter may be nil.
func New(raw net.Conn, c cipher.Cipher, counter Counter) *Conn {
	return &Conn{
		Conn:    raw,
		cipher:  c,
		counter: counter,
	}
}

func (c *Conn) Read(b []byte) (int, error) {
	if c.cipher.NeedsPeerIV() {
		iv := make([]byte, c.cipher.IVLen())
		if _, err := io.ReadFull(c.Conn, iv); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return 0, ErrHandshakeTruncated
			}
			return 0, fmt.Errorf("failed to read peer iv: %v", err)
		}

		if err := c.cipher.SetPeerIV(iv); err != nil {
			return 0, err
		}
	}

	n, err := c.Conn.Read(b)
	if n > 0 {
		c.cipher.Decrypt(b[:n])
		if c.counter != nil {
			c.counter.AddBytesIn(n)
		}
	}

	return n, err
}

func (c *Conn) Write(b []byte) (int, error) {
	// the cipher state advances on encrypt, so work on a copy and report the
	// caller's length: a short write here is fatal to the tunnel anyway
	out := c.cipher.Encrypt(append([]byte{}, b...))

	if iv := c.cipher.IVToSend(); iv != nil {
		out = append(append([]byte{}, iv...), out...)
	}

	if _, err := c.Conn.Write(out); err != nil {
		return 0, err
	}

	if c.counter != nil {
		c.counter.AddBytesOut(len(b))
	}

	return len(b), nil
}

// CloseWrite propagates a half-close to the underlying stream when it
// supports one.
func (c *Conn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}
