package core

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/WaenMax/jumptiger/cipher"
	"github.com/WaenMax/jumptiger/connection"
	"github.com/WaenMax/jumptiger/httpproxy"
	"github.com/WaenMax/jumptiger/network"
	"github.com/WaenMax/jumptiger/protocol"
	"github.com/WaenMax/jumptiger/socks5"
	"github.com/WaenMax/jumptiger/stats"
	"github.com/go-zoox/logger"
	"github.com/go-zoox/retry"
)

// how long Shutdown waits for handler goroutines to drain
const drainTimeout = 5 * time.Second

// negotiation is the common outcome of the SOCKS5 and HTTP negotiators.
type negotiation struct {
	addr *protocol.Addr

	// payload flows into the tunnel right after the addr header
	payload []byte
	// replyConnect: answer 200 to the client once the tunnel is up
	replyConnect bool
}

// Local is the client-side proxy: it speaks SOCKS5 (and optionally HTTP) to
// local applications and relays every stream over a cipher-framed TCP link to
// the remote proxy.
type Local struct {
	cfg      *Config
	registry *stats.Registry

	mu        sync.Mutex
	listeners []net.Listener

	shutdownOnce sync.Once
	serving      sync.WaitGroup
}

func NewLocal(cfg *Config) (*Local, error) {
	cfg.ApplyDefaults()
	if err := cfg.ValidateLocal(); err != nil {
		return nil, err
	}

	return &Local{
		cfg:      cfg,
		registry: stats.New(),
	}, nil
}

// Registry exposes the live counters behind the monitoring panel.
func (l *Local) Registry() *stats.Registry {
	return l.registry
}

// Run binds the client-facing listeners and serves until Shutdown.
func (l *Local) Run() error {
	socksListener, err := network.Listen(l.cfg.LocalHost, l.cfg.LocalPort)
	if err != nil {
		return fmt.Errorf("%w: socks5 %s:%d: %v", ErrBindFailed, l.cfg.LocalHost, l.cfg.LocalPort, err)
	}

	l.serving.Add(1)
	go func() {
		defer l.serving.Done()
		l.ServeSocks(socksListener)
	}()

	if l.cfg.HTTPPort > 0 {
		httpListener, err := network.Listen(l.cfg.LocalHost, l.cfg.HTTPPort)
		if err != nil {
			l.Shutdown()
			return fmt.Errorf("%w: http %s:%d: %v", ErrBindFailed, l.cfg.LocalHost, l.cfg.HTTPPort, err)
		}

		l.serving.Add(1)
		go func() {
			defer l.serving.Done()
			l.ServeHTTP(httpListener)
		}()
	}

	l.serving.Wait()
	return nil
}

// ServeSocks accepts SOCKS5 clients on an already-bound listener until it
// closes.
func (l *Local) ServeSocks(listener net.Listener) error {
	l.track(listener)
	logger.Infof("[local] socks5 listening at %s", listener.Addr())
	return network.Serve(listener, l.handleSocks)
}

// ServeHTTP accepts HTTP proxy clients on an already-bound listener until it
// closes.
func (l *Local) ServeHTTP(listener net.Listener) error {
	l.track(listener)
	logger.Infof("[local] http proxy listening at %s", listener.Addr())
	return network.Serve(listener, l.handleHTTP)
}

// Shutdown closes the listeners, then every live connection's sockets, then
// waits up to the drain timeout. Calling it again is a no-op.
func (l *Local) Shutdown() {
	l.shutdownOnce.Do(func() {
		logger.Infof("[local] shutting down ...")

		l.mu.Lock()
		for _, listener := range l.listeners {
			listener.Close()
		}
		l.mu.Unlock()

		l.registry.CloseAll()
		drain(l.registry)
	})
}

func (l *Local) track(listener net.Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, listener)
}

func (l *Local) handleSocks(conn net.Conn) {
	l.handle(conn, func(conn net.Conn) (*negotiation, error) {
		addr, err := socks5.Negotiate(conn, l.cfg.DialTimeout())
		if err != nil {
			return nil, err
		}

		return &negotiation{addr: addr}, nil
	})
}

func (l *Local) handleHTTP(conn net.Conn) {
	l.handle(conn, func(conn net.Conn) (*negotiation, error) {
		request, err := httpproxy.Negotiate(conn, l.cfg.DialTimeout())
		if err != nil {
			return nil, err
		}

		return &negotiation{
			addr:         request.Addr,
			payload:      request.Payload,
			replyConnect: request.IsConnect,
		}, nil
	})
}

func (l *Local) handle(conn net.Conn, negotiate func(net.Conn) (*negotiation, error)) {
	if l.registry.Active() >= l.cfg.MaxConnections {
		logger.Warnf("[local] connection limit(%d) reached, dropping %s", l.cfg.MaxConnections, conn.RemoteAddr())
		conn.Close()
		return
	}

	record := l.registry.Register(conn.RemoteAddr().String())
	record.Attach(conn)
	defer func() {
		record.Close()
		l.registry.Unregister(record)
	}()

	neg, err := negotiate(conn)
	if err != nil {
		logger.Warnf("[local][connection: %d] failed to negotiate with %s: %v", record.ID(), conn.RemoteAddr(), err)
		return
	}

	record.SetTarget(neg.addr.String())
	record.SetState(stats.StateConnecting)
	logger.Infof("[local][connection: %d] %s requests %s", record.ID(), conn.RemoteAddr(), neg.addr)

	remote, err := l.dialRemote()
	if err != nil {
		logger.Errorf("[local][connection: %d] failed to connect to server %s:%d: %v", record.ID(), l.cfg.Server, l.cfg.ServerPort, err)
		return
	}
	record.Attach(remote)

	tunnelCipher, err := cipher.New(l.cfg.Password, l.cfg.Method, l.cfg.AllowTable)
	if err != nil {
		logger.Errorf("[local][connection: %d] failed to create cipher: %v", record.ID(), err)
		return
	}
	tunnel := connection.New(remote, tunnelCipher, record)

	header, err := neg.addr.Encode()
	if err != nil {
		logger.Errorf("[local][connection: %d] failed to encode addr header: %v", record.ID(), err)
		return
	}

	// the iv rides in front of this first write; the header and any initial
	// payload share it so the tunnel starts in a single segment
	if _, err := tunnel.Write(append(header, neg.payload...)); err != nil {
		logger.Errorf("[local][connection: %d] failed to write addr header: %v", record.ID(), err)
		return
	}

	if neg.replyConnect {
		if _, err := conn.Write(httpproxy.ConnectEstablished); err != nil {
			logger.Warnf("[local][connection: %d] failed to confirm connect: %v", record.ID(), err)
			return
		}
	}

	record.SetState(stats.StateRelaying)
	Relay(conn, tunnel, l.cfg.IdleTimeout())
	logger.Infof("[local][connection: %d] closed %s", record.ID(), neg.addr)
}

func (l *Local) dialRemote() (net.Conn, error) {
	var conn net.Conn
	dial := func() error {
		c, err := network.Dial(l.cfg.Server, l.cfg.ServerPort, l.cfg.DialTimeout())
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	if l.cfg.AutoReconnect && l.cfg.RetryTimes > 0 {
		if err := retry.Retry(dial, l.cfg.RetryTimes, l.cfg.RetryDelay()); err != nil {
			return nil, err
		}
		return conn, nil
	}

	if err := dial(); err != nil {
		return nil, err
	}
	return conn, nil
}

func drain(registry *stats.Registry) {
	deadline := time.Now().Add(drainTimeout)
	for registry.Active() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if active := registry.Active(); active > 0 {
		logger.Warnf("[shutdown] abandoning %d connection(s) after drain timeout", active)
	}
}
