package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/config"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/db"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/events"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/handler"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/jobs"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/lifecycle"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/logger"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/store"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/webserver"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const appName = "ecoswap"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the MCP transport, so logs go to stderr
	log, err := logger.New(appName, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	broker := events.NewBroker()
	srv := webserver.New(webserver.Options{
		Port:       cfg.HTTPPort,
		SourceName: cfg.SourceName,
		Broker:     broker,
		Log:        log,
	})
	if err := srv.Bind(); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	// Only the process owning the port opens the store. Others forward
	// every call to it.
	var backend handler.Backend = srv
	if srv.IsPrimary() {
		d, err := db.Init(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if sqlDB, err := d.DB(); err == nil {
			defer sqlDB.Close()
		}

		st, err := store.New(db.NewRequestRepository(d),
			store.WithTTL(cfg.RequestTTL),
			store.WithExpiryHook(broker.PublishExpired),
		)
		if err != nil {
			return fmt.Errorf("failed to load requests: %w", err)
		}

		srv.Attach(
			lifecycle.NewController(st, log),
			matching.NewService(matching.NewScorer(cfg.StrictTokens)),
			db.NewItemCatalog(d),
		)
		srv.Serve()
	} else {
		backend = webserver.NewClient(cfg.BaseURL())
	}

	if !srv.IsPrimary() && !cfg.MCPEnabled {
		log.Info("api served elsewhere and mcp disabled, nothing to do")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if srv.IsPrimary() {
		scheduler := jobs.NewScheduler(log)
		scheduler.Register(jobs.NewRequestExpirer(srv, cfg.SweepInterval, log))
		g.Go(func() error {
			return scheduler.Run(gCtx)
		})
	}

	if cfg.MCPEnabled {
		mcpServer := server.NewMCPServer(
			appName,
			"1.0.0",
			server.WithToolCapabilities(false),
		)
		handler.NewTools(backend).Register(mcpServer)

		g.Go(func() error {
			// the session ends when the client closes stdin
			defer cancel()
			err := server.NewStdioServer(mcpServer).Listen(gCtx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server error: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown http server", "error", err)
		}
		log.Info("application shutdown completed")
		return nil
	})

	return g.Wait()
}
