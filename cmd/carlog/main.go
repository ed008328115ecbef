package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"carlog/internal/auth"
	"carlog/internal/config"
	"carlog/internal/events"
	apphttp "carlog/internal/http"
	"carlog/internal/records"
	"carlog/internal/shell"
	"carlog/internal/store"
)

const sessionSweepInterval = 5 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting carlog")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer st.Close()

	// Record-change events are optional; without a broker the tracker
	// runs standalone and the audit worker simply has nothing to consume.
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
			eventsClient = nil
		} else {
			defer eventsClient.Close()
			logger.Info("AMQP client initialized - record changes feed the audit worker")
		}
	} else {
		logger.Info("AMQP disabled - record changes are not announced")
	}

	broker := auth.NewBroker()
	provider := auth.NewProvider(st, broker, cfg.SessionTTL, cfg.ResetTokenTTL, cfg.SignupConfirmation)
	svc := records.NewService(st, eventsClient)

	registry := shell.NewRegistry(provider, svc, cfg.NotificationTTL)
	defer registry.Close()

	srv := apphttp.NewServer(":"+cfg.Port, provider, registry, cfg.SecureCookie)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting carlog server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Expired sessions are pruned periodically; each pruned token is
	// broadcast as a sign-out so its UI state is torn down.
	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := provider.ExpireSessions(ctx); err != nil {
					logger.Error("Session sweep failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
