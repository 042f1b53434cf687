package command

import (
	"os"

	"github.com/WaenMax/jumptiger/core"
	"github.com/go-zoox/cli"
	"github.com/go-zoox/logger"
)

func RegisterServer(app *cli.MultipleProgram) {
	app.Register("server", &cli.Command{
		Name:  "server",
		Usage: "remote proxy: decrypts tunnels and dials the requested origins",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "the filepath for the json configuration",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:    "server",
				Usage:   "listen host (default: all interfaces)",
				Aliases: []string{"s"},
			},
			&cli.IntFlag{
				Name:    "server-port",
				Usage:   "tunnel listen port",
				Aliases: []string{"p"},
			},
			&cli.IntFlag{
				Name:  "monitor-port",
				Usage: "monitoring panel port (0 disables it)",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "pre-shared tunnel password",
				Aliases: []string{"k"},
			},
			&cli.StringFlag{
				Name:    "method",
				Usage:   "cipher method: aes-256-cfb or table",
				Aliases: []string{"m"},
			},
			&cli.IntFlag{
				Name:    "timeout",
				Usage:   "relay idle timeout in seconds",
				Aliases: []string{"t"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				logger.Errorf("%v", err)
				os.Exit(exitCode(err))
			}

			remote, err := core.NewRemote(cfg)
			if err != nil {
				logger.Errorf("%v", err)
				os.Exit(exitCode(err))
			}

			startMonitor(cfg, remote.Registry())
			shutdownOnSignal(remote.Shutdown)

			if err := remote.Run(); err != nil {
				logger.Errorf("%v", err)
				os.Exit(exitCode(err))
			}

			return nil
		},
	})
}
