package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	loadDotEnv(NewLogger("info"))

	cfg, err := loadServerConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		NewLogger("error").Fatalf("invalid configuration: %v", err)
	}
	logger := NewLogger(cfg.LogLevel)
	logger.Infof("Log level set to: %s", parseLogLevel(cfg.LogLevel))

	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatalf("cannot load theme catalog: %v", err)
	}
	logger.Infof("Theme catalog loaded: %d themes", catalog.Len())

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatalf("cannot open profile store: %v", err)
	}
	defer st.Close()
	if cfg.DBPath != "" {
		logger.Infof("Profile store: %s", cfg.DBPath)
	} else {
		logger.Infof("Profile store: in memory")
	}

	srv := NewServer(cfg, st, catalog, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("starseed-server listening on %s (max concurrency %d)", cfg.Addr, cfg.MaxConcurrency)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
