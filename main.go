package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-publisher/infrastructure/configuration"
	"video-publisher/infrastructure/logger"
	"video-publisher/server"

	"golang.org/x/sync/errgroup"
)

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configuration.C
	container, err := server.NewContainer(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Application initialization failed")
		os.Exit(1)
	}
	defer container.Close()

	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           container.Router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.GetLogger().WithFields(map[string]interface{}{"port": cfg.App.Port, "tls": cfg.App.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		var err error
		if cfg.App.TLSEnabled && cfg.App.TLSCertFile != "" && cfg.App.TLSKeyFile != "" {
			logger.GetLogger().WithFields(map[string]interface{}{"cert": cfg.App.TLSCertFile, "key": cfg.App.TLSKeyFile}).Info("Serving HTTPS")
			err = httpServer.ListenAndServeTLS(cfg.App.TLSCertFile, cfg.App.TLSKeyFile)
		} else {
			if cfg.App.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Worker.Enabled {
		logger.GetLogger().WithFields(map[string]interface{}{
			"interval":    cfg.Worker.Interval.String(),
			"batchSize":   cfg.Worker.BatchSize,
			"concurrency": cfg.Worker.Concurrency,
		}).Info("Starting publish worker")
		g.Go(func() error {
			return server.RunEvery(ctx, cfg.Worker.Interval, server.ProcessTick(container.PublishJobs, cfg.Worker.BatchSize))
		})
		g.Go(func() error {
			return server.RunEvery(ctx, cfg.Worker.StaleAfter/2, server.RequeueTick(container.PublishJobs))
		})
	} else {
		logger.GetLogger().Info("Publish worker disabled; use POST /api/publish-jobs/process or publishctl jobs process")
	}

	<-ctx.Done()
	logger.GetLogger().Info("Application shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Error("HTTP server shutdown failed")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		container.Close()
		os.Exit(2)
	}
}
