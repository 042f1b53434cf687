// Package monitor serves the monitoring panel. It reads registry snapshots
// and, on /api/reset, rewinds the registry's aggregates: nothing here may slow
// a relay down.
package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/WaenMax/jumptiger/stats"
	"github.com/go-zoox/logger"
	"github.com/go-zoox/zoox"
	"github.com/go-zoox/zoox/components/application/websocket"
	zd "github.com/go-zoox/zoox/defaults"
)

type Monitor struct {
	registry *stats.Registry
}

func New(registry *stats.Registry) *Monitor {
	return &Monitor{
		registry: registry,
	}
}

// Run serves the panel at addr until the process exits.
func (m *Monitor) Run(addr string) error {
	app := zd.Default()

	app.Get("/", func(ctx *zoox.Context) {
		ctx.HTML(http.StatusOK, indexHTML)
	})

	app.Get("/api/stats", func(ctx *zoox.Context) {
		ctx.JSON(http.StatusOK, m.registry.Snapshot())
	})

	app.Get("/api/reset", func(ctx *zoox.Context) {
		m.registry.Reset()
		ctx.JSON(http.StatusOK, zoox.H{"status": "ok"})
	})

	app.WebSocket("/ws", func(ctx *zoox.Context, client *websocket.Client) {
		done := make(chan struct{})

		client.OnConnect = func() {
			go m.push(client, done)
		}

		client.OnDisconnect = func() {
			close(done)
		}

		client.OnError = func(err error) {
			logger.Debugf("[monitor][ws] client error: %v", err)
		}
	})

	logger.Infof("[monitor] panel listening at %s", addr)
	return app.Run(addr)
}

// push streams snapshots to one panel client until it goes away.
func (m *Monitor) push(client *websocket.Client, done chan struct{}) {
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			bytes, err := json.Marshal(m.registry.Snapshot())
			if err != nil {
				logger.Errorf("[monitor][ws] failed to marshal snapshot: %v", err)
				return
			}

			if err := client.WriteBinary(bytes); err != nil {
				return
			}
		}
	}
}
