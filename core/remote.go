package core

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/WaenMax/jumptiger/cipher"
	"github.com/WaenMax/jumptiger/connection"
	"github.com/WaenMax/jumptiger/network"
	"github.com/WaenMax/jumptiger/protocol"
	"github.com/WaenMax/jumptiger/stats"
	"github.com/go-zoox/logger"
)

// DialPolicy can veto an origin before the remote proxy dials it.
type DialPolicy func(addr *protocol.Addr) error

// Remote is the server-side proxy: it accepts cipher-framed tunnels, decodes
// the addr header, dials the requested origin and relays.
type Remote struct {
	cfg      *Config
	registry *stats.Registry

	// Policy, when set, is consulted before every origin dial.
	Policy DialPolicy

	mu       sync.Mutex
	listener net.Listener

	shutdownOnce sync.Once
}

func NewRemote(cfg *Config) (*Remote, error) {
	cfg.ApplyDefaults()
	if err := cfg.ValidateRemote(); err != nil {
		return nil, err
	}

	return &Remote{
		cfg:      cfg,
		registry: stats.New(),
	}, nil
}

// Registry exposes the live counters behind the monitoring panel.
func (r *Remote) Registry() *stats.Registry {
	return r.registry
}

// Run binds the tunnel listener and serves until Shutdown.
func (r *Remote) Run() error {
	listener, err := network.Listen(r.cfg.Server, r.cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("%w: %s:%d: %v", ErrBindFailed, r.cfg.Server, r.cfg.ServerPort, err)
	}

	return r.Serve(listener)
}

// Serve accepts tunnels on an already-bound listener until it closes.
func (r *Remote) Serve(listener net.Listener) error {
	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()

	logger.Infof("[remote] listening at %s (method: %s)", listener.Addr(), r.cfg.Method)

	return network.Serve(listener, r.handle)
}

// Shutdown closes the listener, then every live connection's sockets, then
// waits up to the drain timeout. Calling it again is a no-op.
func (r *Remote) Shutdown() {
	r.shutdownOnce.Do(func() {
		logger.Infof("[remote] shutting down ...")

		r.mu.Lock()
		if r.listener != nil {
			r.listener.Close()
		}
		r.mu.Unlock()

		r.registry.CloseAll()
		drain(r.registry)
	})
}

func (r *Remote) handle(conn net.Conn) {
	record := r.registry.Register(conn.RemoteAddr().String())
	record.Attach(conn)
	defer func() {
		record.Close()
		r.registry.Unregister(record)
	}()

	tunnelCipher, err := cipher.New(r.cfg.Password, r.cfg.Method, r.cfg.AllowTable)
	if err != nil {
		logger.Errorf("[remote][connection: %d] failed to create cipher: %v", record.ID(), err)
		return
	}
	tunnel := connection.New(conn, tunnelCipher, record)

	// a garbled header is the only authentication failure signal this wire
	// format has: log it and hang up, the peer just sees EOF
	conn.SetReadDeadline(time.Now().Add(r.cfg.DialTimeout()))
	addr, err := protocol.ReadAddr(tunnel)
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		logger.Warnf("[remote][connection: %d] invalid addr header from %s (wrong password?): %v", record.ID(), conn.RemoteAddr(), err)
		return
	}

	if r.Policy != nil {
		if err := r.Policy(addr); err != nil {
			logger.Warnf("[remote][connection: %d] destination %s refused: %v", record.ID(), addr, err)
			return
		}
	}

	record.SetTarget(addr.String())
	record.SetState(stats.StateConnecting)
	logger.Infof("[remote][connection: %d] connecting %s", record.ID(), addr)

	origin, err := network.Dial(addr.Host, int(addr.Port), r.cfg.DialTimeout())
	if err != nil {
		logger.Warnf("[remote][connection: %d] failed to connect %s: %v", record.ID(), addr, err)
		return
	}
	record.Attach(origin)

	record.SetState(stats.StateRelaying)
	Relay(tunnel, origin, r.cfg.IdleTimeout())
	logger.Infof("[remote][connection: %d] closed %s", record.ID(), addr)
}
