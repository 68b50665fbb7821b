// Package main runs the obligations command.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/cabinet/internal/platform/cmd"
	"github.com/louisbranch/cabinet/internal/platform/config"
	"github.com/louisbranch/cabinet/internal/tools/obligations"
)

func main() {
	cfg, err := obligations.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = entrypoint.Run(ctx, entrypoint.ServiceObligations, entrypoint.Options{Timeout: cfg.Timeout}, func(ctx context.Context) error {
		return obligations.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exit(err)
	}
}
