// Command serve exposes the trained model over HTTP.
//
//	serve [-config params.yaml] [-addr :8080]
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aayushagarwaltech-bot/Transportation/config"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/log"
	"github.com/aayushagarwaltech-bot/Transportation/serving"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to params.yaml (default: ./params.yaml if present)")
	addr := flag.String("addr", "", "listen address (overrides serving.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Serving.Addr = *addr
	}
	if err := log.SetupLogger(cfg.Logging.Level); err != nil {
		fmt.Fprintln(os.Stderr, "logging error:", err)
		os.Exit(2)
	}
	logger := log.GetLoggerWithName("cmd.serve")

	adapter, err := serving.LoadAdapter(cfg)
	if err != nil {
		logger.Error("cannot load model", err,
			log.PathKey, cfg.Paths.Model,
			log.SuggestionKey, "run cmd/pipeline to produce the model and schema",
		)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Serving.Addr,
		Handler:           serving.NewServer(adapter, cfg.Paths.Metrics, nil).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving predictions",
			"addr", cfg.Serving.Addr,
			log.SchemaFingerprintKey, adapter.Schema().Fingerprint,
			log.FeaturesKey, adapter.Schema().Len(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", err)
			os.Exit(1)
		}
	}
	logger.Info("server exited cleanly")
}
