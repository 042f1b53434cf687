package command

import (
	"os"

	"github.com/WaenMax/jumptiger/core"
	"github.com/go-zoox/cli"
	"github.com/go-zoox/logger"
)

func RegisterLocal(app *cli.MultipleProgram) {
	app.Register("local", &cli.Command{
		Name:  "local",
		Usage: "local proxy: socks5/http entrance that tunnels to the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "the filepath for the json configuration",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:    "server",
				Usage:   "server host",
				Aliases: []string{"s"},
			},
			&cli.IntFlag{
				Name:    "server-port",
				Usage:   "server port",
				Aliases: []string{"p"},
			},
			&cli.IntFlag{
				Name:    "local-port",
				Usage:   "socks5 listen port",
				Aliases: []string{"l"},
			},
			&cli.IntFlag{
				Name:  "http-port",
				Usage: "http proxy listen port (0 disables it)",
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

			local, err := core.NewLocal(cfg)
			if err != nil {
				logger.Errorf("%v", err)
				os.Exit(exitCode(err))
			}

			startMonitor(cfg, local.Registry())
			shutdownOnSignal(local.Shutdown)

			if err := local.Run(); err != nil {
				logger.Errorf("%v", err)
				os.Exit(exitCode(err))
			}

			return nil
		},
	})
}
