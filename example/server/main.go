package main

import (
	"github.com/WaenMax/jumptiger/core"
	"github.com/go-zoox/logger"
)

func main() {
	remote, err := core.NewRemote(&core.Config{
		ServerPort: 8388,
		Password:   "example_password",
	})
	if err != nil {
		logger.Fatal("failed to create server: %s", err)
		return
	}

	if err := remote.Run(); err != nil {
		logger.Fatal("failed to run server: %s", err)
	}
}
