// Package socks5 implements the client-facing SOCKS5 negotiation: RFC 1928,
// CONNECT only, no-auth only.
package socks5

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/WaenMax/jumptiger/protocol"
)

const (
	Version    = 0x05
	CmdConnect = 0x01
)

// reply codes sent back on rejected requests
const (
	replyCommandNotSupported  = 0x07
	replyAddrTypeNotSupported = 0x08
)

var (
	ErrUnsupportedVersion  = fmt.Errorf("socks version not supported")
	ErrUnsupportedCommand  = fmt.Errorf("socks command not supported")
	ErrUnsupportedAddrType = fmt.Errorf("socks addr type not supported")
	ErrMalformedRequest    = fmt.Errorf("malformed socks request")
)

// the BND reply is always a zeroed address: the real egress happens on the
// remote side and the client never learns it
var replySuccess = []byte{Version, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

func replyFailure(code byte) []byte {
	return []byte{Version, code, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
}

// Negotiate drives the SOCKS5 greeting and request on a fresh client socket
// and returns the requested destination. Replies, including error replies,
// are written here; every read is bounded by timeout.
func Negotiate(conn net.Conn, timeout time.Duration) (*protocol.Addr, error) {
	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
		defer conn.SetReadDeadline(time.Time{})
	}

	if err := handshake(conn); err != nil {
		return nil, err
	}

	addr, err := readRequest(conn)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write(replySuccess); err != nil {
		return nil, fmt.Errorf("failed to write success reply: %v", err)
	}

	return addr, nil
}

// handshake consumes the greeting (version + method list, at most 1+1+255
// bytes) and answers no-auth. Reads stop exactly at the greeting boundary so
// a pipelined request is never swallowed.
func handshake(conn net.Conn) error {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return fmt.Errorf("failed to read greeting: %v", err)
	}

	if buf[0] != Version {
		return ErrUnsupportedVersion
	}

	if nmethods := int(buf[1]); nmethods > 0 {
		methods := make([]byte, nmethods)
		if _, err := io.ReadFull(conn, methods); err != nil {
			return fmt.Errorf("failed to read method list: %v", err)
		}
	}

	if _, err := conn.Write([]byte{Version, 0x00}); err != nil {
		return fmt.Errorf("failed to write greeting reply: %v", err)
	}

	return nil
}

func readRequest(conn net.Conn) (*protocol.Addr, error) {
	// VER | CMD | RSV | ATYP
	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, fmt.Errorf("failed to read request header: %v", err)
	}

	if header[0] != Version {
		return nil, ErrUnsupportedVersion
	}

	if header[1] != CmdConnect {
		conn.Write(replyFailure(replyCommandNotSupported))
		return nil, ErrUnsupportedCommand
	}

	addr := &protocol.Addr{Type: header[3]}
	buf := make([]byte, protocol.MaxHostLength)

	switch addr.Type {
	case protocol.ATypIPv4:
		if _, err := io.ReadFull(conn, buf[:net.IPv4len]); err != nil {
			return nil, fmt.Errorf("failed to read ipv4 addr: %v", err)
		}
		addr.Host = net.IP(buf[:net.IPv4len]).String()
	case protocol.ATypDomain:
		if _, err := io.ReadFull(conn, buf[:1]); err != nil {
			return nil, fmt.Errorf("failed to read hostname length: %v", err)
		}
		length := int(buf[0])
		if length == 0 {
			conn.Write(replyFailure(replyAddrTypeNotSupported))
			return nil, ErrMalformedRequest
		}
		if _, err := io.ReadFull(conn, buf[:length]); err != nil {
			return nil, fmt.Errorf("failed to read hostname: %v", err)
		}
		addr.Host = string(buf[:length])
	case protocol.ATypIPv6:
		if _, err := io.ReadFull(conn, buf[:net.IPv6len]); err != nil {
			return nil, fmt.Errorf("failed to read ipv6 addr: %v", err)
		}
		addr.Host = net.IP(buf[:net.IPv6len]).String()
	default:
		conn.Write(replyFailure(replyAddrTypeNotSupported))
		return nil, ErrUnsupportedAddrType
	}

	if _, err := io.ReadFull(conn, buf[:2]); err != nil {
		return nil, fmt.Errorf("failed to read port: %v", err)
	}
	addr.Port = binary.BigEndian.Uint16(buf[:2])

	return addr, nil
}
