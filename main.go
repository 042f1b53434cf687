package main

import (
	"github.com/WaenMax/jumptiger/command"
	"github.com/go-zoox/cli"
)

func main() {
	app := cli.NewMultipleProgram(&cli.MultipleProgramConfig{
		Name:    "jumptiger",
		Usage:   "jumptiger is an encrypting tcp tunnel with socks5 and http entrances.",
		Version: Version,
	})

	command.RegisterLocal(app)
	command.RegisterServer(app)

	app.Run()
}
