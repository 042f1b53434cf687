package core

import (
	"fmt"
	"time"

	"github.com/WaenMax/jumptiger/cipher"
)

const (
	DefaultLocalHost      = "127.0.0.1"
	DefaultLocalPort      = 1080
	DefaultServerPort     = 8388
	DefaultMethod         = cipher.MethodAes256Cfb
	DefaultTimeout        = 600
	DefaultConnectTimeout = 10
	DefaultMaxConnections = 1024
)

var (
	ErrConfigInvalid = fmt.Errorf("invalid configuration")
	ErrBindFailed    = fmt.Errorf("failed to bind listener")
)

// Config is one run's validated configuration. It is immutable once a proxy
// has been constructed from it.
type Config struct {
	// remote endpoint (local side); listen host (remote side)
	Server     string `config:"server"`
	ServerPort int    `config:"server_port"`

	// client-facing listeners (local side)
	LocalHost string `config:"local_host"`
	LocalPort int    `config:"local_port"`
	HTTPPort  int    `config:"http_port"`

	// monitoring panel; 0 disables it
	MonitorPort int `config:"monitor_port"`

	Password string `config:"password"`
	Method   string `config:"method"`
	// the legacy table cipher is refused unless explicitly allowed
	AllowTable bool `config:"allow_table"`

	Timeout        int `config:"timeout"`
	ConnectTimeout int `config:"connect_timeout"`

	RetryTimes    int  `config:"retry_times"`
	RetryInterval int  `config:"retry_interval"`
	AutoReconnect bool `config:"auto_reconnect"`

	MaxConnections int `config:"max_connections"`
}

func (c *Config) ApplyDefaults() {
	if c.LocalHost == "" {
		c.LocalHost = DefaultLocalHost
	}
	if c.LocalPort == 0 {
		c.LocalPort = DefaultLocalPort
	}
	if c.ServerPort == 0 {
		c.ServerPort = DefaultServerPort
	}
	if c.Method == "" {
		c.Method = DefaultMethod
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = DefaultMaxConnections
	}
}

func (c *Config) validateCommon() error {
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", ErrConfigInvalid)
	}

	// surfaces both unknown methods and a non-opted-in table method
	if _, err := cipher.New(c.Password, c.Method, c.AllowTable); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: server_port(%d) out of range", ErrConfigInvalid, c.ServerPort)
	}

	return nil
}

// ValidateLocal checks the fields the local side needs.
func (c *Config) ValidateLocal() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	if c.Server == "" {
		return fmt.Errorf("%w: server is required", ErrConfigInvalid)
	}
	if c.LocalPort <= 0 || c.LocalPort > 65535 {
		return fmt.Errorf("%w: local_port(%d) out of range", ErrConfigInvalid, c.LocalPort)
	}

	return nil
}

// ValidateRemote checks the fields the remote side needs.
func (c *Config) ValidateRemote() error {
	return c.validateCommon()
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryInterval) * time.Second
}
