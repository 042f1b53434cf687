// Package httpproxy implements the client-facing HTTP proxy negotiation:
// CONNECT tunnels and plain requests with absolute-URI rewrite to origin-form.
package httpproxy

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/WaenMax/jumptiger/protocol"
)

// request head cap; beyond this the client is talking garbage
const maxHeaderBytes = 16 * 1024

var (
	ErrHeaderTooLarge   = fmt.Errorf("http request head exceeds %d bytes", maxHeaderBytes)
	ErrMalformedRequest = fmt.Errorf("malformed http request")
)

// ConnectEstablished is the reply a CONNECT client receives once the tunnel
// is up.
var ConnectEstablished = []byte("HTTP/1.1 200 Connection established\r\n\r\n")

var badRequest = []byte("HTTP/1.1 400 Bad Request\r\n\r\n")

// Request is the outcome of one HTTP proxy negotiation.
type Request struct {
	Addr *protocol.Addr

	// IsConnect distinguishes a CONNECT tunnel from a forwarded plain
	// request. For CONNECT the caller also answers ConnectEstablished after
	// the tunnel is up; in both cases it injects Payload into the tunnel.
	IsConnect bool

	// Payload is what must flow into the tunnel before the relay starts: the
	// rewritten request head plus any body bytes already buffered, or early
	// bytes a CONNECT client pipelined behind its head.
	Payload []byte
}

// Negotiate reads one request head from a fresh client socket and resolves
// the tunnel destination. Reads are bounded by timeout.
func Negotiate(conn net.Conn, timeout time.Duration) (*Request, error) {
	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
		defer conn.SetReadDeadline(time.Time{})
	}

	reader := bufio.NewReaderSize(conn, maxHeaderBytes)
	head, err := readHead(reader)
	if err != nil {
		return nil, err
	}

	lines := strings.SplitAfter(head, "\r\n")
	fields := strings.Fields(strings.TrimRight(lines[0], "\r\n"))
	if len(fields) != 3 {
		conn.Write(badRequest)
		return nil, ErrMalformedRequest
	}
	method, target, version := fields[0], fields[1], fields[2]

	leftover := make([]byte, reader.Buffered())
	if len(leftover) > 0 {
		reader.Read(leftover)
	}

	if strings.EqualFold(method, "CONNECT") {
		addr, err := parseHostPort(target, 443)
		if err != nil {
			conn.Write(badRequest)
			return nil, ErrMalformedRequest
		}

		return &Request{Addr: addr, IsConnect: true, Payload: leftover}, nil
	}

	// plain request: resolve the origin and rewrite the absolute URI to
	// origin-form so the far server sees a normal request line
	u, err := url.Parse(target)
	if err != nil {
		conn.Write(badRequest)
		return nil, ErrMalformedRequest
	}

	host := u.Host
	if host == "" {
		host = findHostHeader(lines[1:])
	}
	if host == "" {
		conn.Write(badRequest)
		return nil, ErrMalformedRequest
	}

	addr, err := parseHostPort(host, 80)
	if err != nil {
		conn.Write(badRequest)
		return nil, ErrMalformedRequest
	}

	originForm := u.RequestURI()
	if u.Host == "" {
		// already origin-form; forward the line untouched
		originForm = target
	}

	var payload bytes.Buffer
	payload.WriteString(method + " " + originForm + " " + version + "\r\n")
	for _, line := range lines[1:] {
		payload.WriteString(line)
	}
	payload.Write(leftover)

	return &Request{Addr: addr, Payload: payload.Bytes()}, nil
}

// readHead accumulates lines up to and including the blank line ending the
// request head.
func readHead(reader *bufio.Reader) (string, error) {
	var head strings.Builder

	for {
		line, err := reader.ReadString('\n')
		head.WriteString(line)

		if head.Len() > maxHeaderBytes {
			return "", ErrHeaderTooLarge
		}
		if err != nil {
			return "", ErrMalformedRequest
		}
		if line == "\r\n" || line == "\n" {
			return head.String(), nil
		}
	}
}

func parseHostPort(hostport string, defaultPort uint16) (*protocol.Addr, error) {
	host, portString, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port part
		host = hostport
		if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
			host = host[1 : len(host)-1]
		}
		if host == "" || strings.Contains(hostport, ":") && net.ParseIP(host) == nil {
			return nil, fmt.Errorf("invalid host: %q", hostport)
		}
		return protocol.NewAddr(host, defaultPort), nil
	}

	port, err := strconv.ParseUint(portString, 10, 16)
	if err != nil || host == "" {
		return nil, fmt.Errorf("invalid host:port: %q", hostport)
	}

	return protocol.NewAddr(host, uint16(port)), nil
}

func findHostHeader(lines []string) string {
	for _, line := range lines {
		if name, value, ok := strings.Cut(line, ":"); ok {
			if strings.EqualFold(strings.TrimSpace(name), "Host") {
				return strings.TrimSpace(strings.TrimRight(value, "\r\n"))
			}
		}
	}
	return ""
}
