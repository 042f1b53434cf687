// Package network holds the TCP listen/dial plumbing shared by the local and
// remote proxies.
package network

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-zoox/logger"
)

// Dial connects to host:port within timeout.
func Dial(host string, port int, timeout time.Duration) (net.Conn, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	return conn, nil
}

// Listen binds host:port.
func Listen(host string, port int) (net.Listener, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	return net.Listen("tcp", addr)
}

// Serve accepts connections until the listener closes, handing each socket to
// handle on its own goroutine. Accept errors other than closure are logged
// and survived.
func Serve(listener net.Listener, handle func(conn net.Conn)) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			logger.Errorf("[network] failed to accept: %v", err)
			continue
		}

		go handle(conn)
	}
}
