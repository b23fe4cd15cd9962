// Command cardsearch-e2e serves the fixture replica of the card-search site,
// so the browser suite can run against a local target.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"cardsearch-e2e/config"
	"cardsearch-e2e/fixture"
	"cardsearch-e2e/runlog"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := runlog.NewLogger(cfg.LogLevel, os.Stdout)

	store, err := fixture.OpenStore(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open card store")
	}
	defer store.Close()

	n, _ := store.Count()
	logger.WithFields(logrus.Fields{
		"db":    cfg.DBPath,
		"cards": n,
	}).Info("Card store ready")

	srv := newHTTPServer(cfg, store, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.WithField("addr", srv.Addr).Info("Server is starting...")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	<-quit
	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return
	}
	logger.Info("Server exited gracefully.")
}

func newHTTPServer(cfg *config.ServerConfig, store *fixture.Store, log logrus.FieldLogger) *http.Server {
	return &http.Server{
		Addr: ":" + cfg.Port,
		Handler: fixture.NewServer(store, log, fixture.Options{
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
