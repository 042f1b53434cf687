package command

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/WaenMax/jumptiger/core"
	"github.com/WaenMax/jumptiger/monitor"
	"github.com/WaenMax/jumptiger/stats"
	"github.com/go-zoox/cli"
	"github.com/go-zoox/config"
	"github.com/go-zoox/fs"
	"github.com/go-zoox/logger"
)

// process exit codes, part of the contract with the supervisor
const (
	exitOK      = 0
	exitConfig  = 1
	exitBind    = 2
	exitRuntime = 3
)

// loadConfig reads the optional config file, then lets the short flags
// override individual keys the way the original cli did.
func loadConfig(ctx *cli.Context) (*core.Config, error) {
	cfg := &core.Config{}

	if filepath := ctx.String("config"); filepath != "" {
		if !fs.IsExist(filepath) {
			return nil, fmt.Errorf("%w: config file not found at %s", core.ErrConfigInvalid, filepath)
		}

		if err := config.Load(cfg, &config.LoadOptions{
			FilePath: filepath,
		}); err != nil {
			return nil, fmt.Errorf("%w: failed to load config file at %s: %v", core.ErrConfigInvalid, filepath, err)
		}
	}

	if v := ctx.String("server"); v != "" {
		cfg.Server = v
	}
	if v := ctx.Int("server-port"); v != 0 {
		cfg.ServerPort = v
	}
	if v := ctx.Int("local-port"); v != 0 {
		cfg.LocalPort = v
	}
	if v := ctx.Int("http-port"); v != 0 {
		cfg.HTTPPort = v
	}
	if v := ctx.Int("monitor-port"); v != 0 {
		cfg.MonitorPort = v
	}
	if v := ctx.String("password"); v != "" {
		cfg.Password = v
	}
	if v := ctx.String("method"); v != "" {
		cfg.Method = v
	}
	if v := ctx.Int("timeout"); v != 0 {
		cfg.Timeout = v
	}

	return cfg, nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrConfigInvalid):
		return exitConfig
	case errors.Is(err, core.ErrBindFailed):
		return exitBind
	default:
		return exitRuntime
	}
}

// shutdownOnSignal runs shutdown when the process receives SIGINT/SIGTERM.
func shutdownOnSignal(shutdown func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-ch
		shutdown()
	}()
}

// startMonitor serves the monitoring panel when a port is configured.
func startMonitor(cfg *core.Config, registry *stats.Registry) {
	if cfg.MonitorPort == 0 {
		return
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.MonitorPort)
		if err := monitor.New(registry).Run(addr); err != nil {
			logger.Errorf("[monitor] failed to serve at %s: %v", addr, err)
		}
	}()
}
