package main

import (
	"os"

	"github.com/bookstore-next/internal/cli"
	"github.com/bookstore-next/internal/logger"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.Errorw("bookstorectl_failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
