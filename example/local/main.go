package main

import (
	"github.com/WaenMax/jumptiger/core"
	"github.com/go-zoox/logger"
)

func main() {
	local, err := core.NewLocal(&core.Config{
		Server:     "127.0.0.1",
		ServerPort: 8388,
		LocalPort:  1080,
		HTTPPort:   8087,
		Password:   "example_password",
	})
	if err != nil {
		logger.Fatal("failed to create local proxy: %s", err)
		return
	}

	if err := local.Run(); err != nil {
		logger.Fatal("failed to run local proxy: %s", err)
	}
}
