// cmd/klicks-agent/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"klicks-agent/internal/api"
	"klicks-agent/internal/common/config"
	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/common/observability"
	"klicks-agent/internal/session"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting klicks agent...",
		zap.String("environment", cfg.App.Environment),
		zap.String("backend", cfg.API.BaseURL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewRedisStore(cfg.Redis)
	defer store.Close()

	if err := retryWithBackoff(func() error {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		return store.Ping(pingCtx)
	}, 5, time.Second, zapLog, "redis connection"); err != nil {
		zapLog.Fatal("session store unavailable", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown(context.Background())

	client := api.NewClient(cfg.API.BaseURL, cfg.API.RequestTimeout(), log, obs)

	holder := session.NewHolder(client, store, log)
	if err := holder.Load(ctx); err != nil {
		zapLog.Warn("failed to load stored session", zap.Error(err))
	}
	if holder.Current().Authenticated() {
		if err := holder.RefreshProfile(ctx); err != nil {
			zapLog.Warn("initial profile refresh failed", zap.Error(err))
		}
	}
	holder.StartRefresher(ctx, cfg.Session.RefreshEvery())

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
		go func() {
			zapLog.Info("metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zapLog.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}
