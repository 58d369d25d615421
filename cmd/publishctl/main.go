// Command publishctl is the operator CLI for the publish queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"video-publisher/infrastructure/configuration"
	"video-publisher/infrastructure/logger"
	"video-publisher/infrastructure/persistence"
	"video-publisher/server"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configuration.C
	container, err := server.NewContainer(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Initialization failed")
	}
	defer container.Close()

	runner := NewRunner(RunnerOpts{
		Users: container.UserUC,
		Jobs:  container.PublishJobs,
		Migrate: func(context.Context) error {
			return persistence.EnsureSchema(container.Postgres)
		},
	})

	app := &cli.Command{
		Name:     "publishctl",
		Usage:    "Operate the video publishing queue",
		Commands: runner.register(),
	}
	if err := app.Run(ctx, os.Args); err != nil {
		logger.GetLogger().WithField("error", err).Error("publishctl failed")
		container.Close()
		os.Exit(1)
	}
}
