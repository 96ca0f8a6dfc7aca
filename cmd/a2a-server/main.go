// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command a2a-server runs the task server. It serves JSON-RPC over HTTP,
// SSE, and WebSocket by default, or over stdio with -stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	a2aserver "github.com/go-a2a/a2a-server"
	"github.com/go-a2a/a2a-server/handlers"
	"github.com/go-a2a/a2a-server/server"
	"github.com/go-a2a/a2a-server/server/event"
	"github.com/go-a2a/a2a-server/server/task"
	"github.com/go-a2a/a2a-server/server/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	stdio := flag.Bool("stdio", false, "serve JSON-RPC over stdin/stdout instead of HTTP")
	flag.Parse()

	if err := run(*configPath, *stdio); err != nil {
		fmt.Fprintf(os.Stderr, "a2a-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, stdio bool) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, stdio)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Task store.
	var store task.Store
	if cfg.Database.DSN != "" {
		db, err := gorm.Open(mysql.Open(cfg.Database.DSN), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		dbStore, err := task.NewDatabaseStore(task.DatabaseStoreConfig{DB: db, CreateTable: true})
		if err != nil {
			return err
		}
		store = dbStore
		logger.Info("using database task store")
	} else {
		store = task.NewInMemoryStore()
	}
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize task store: %w", err)
	}
	defer store.Close(context.Background())

	// Dedup backend.
	var dedupStore server.DedupStore
	if cfg.Redis.Addr != "" {
		redisStore, err := server.NewRedisDedupStore(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer redisStore.Close()
		dedupStore = redisStore
		logger.Info("using redis dedup store", slog.String("addr", cfg.Redis.Addr))
	} else {
		dedupStore = server.NewInMemoryDedupStore()
	}

	registry := prometheus.NewRegistry()
	metrics := server.NewMetrics(registry)

	bus := event.NewBus(
		event.WithBusLogger(logger),
		event.WithSubscriberBuffer(cfg.Events.SubscriberBuffer),
		event.WithPublishHook(func(a2aserver.Event) { metrics.EventPublished() }),
		event.WithDropHook(func(a2aserver.Event) { metrics.EventDropped() }),
		event.WithSubscriberHooks(metrics.SubscriberAdded, metrics.SubscriberRemoved),
	)

	handlerRegistry := server.NewHandlerRegistry()
	if err := handlerRegistry.Register(handlers.NewEchoHandler(), true); err != nil {
		return err
	}
	if err := handlerRegistry.Register(handlers.NewScriptedHandler("script", handlers.DefaultScript()), false); err != nil {
		return err
	}

	manager := server.NewTaskManager(store, bus, handlerRegistry,
		server.WithLogger(logger),
		server.WithQueueSize(cfg.Events.QueueSize),
		server.WithMetrics(metrics),
	)

	dedup := server.NewDeduplicator(dedupStore, cfg.Dedup.Window, logger)
	methods := server.NewMethods(manager,
		server.WithDeduplicator(dedup),
		server.WithHealthSentinels(cfg.Server.HealthSentinels),
		server.WithMethodsLogger(logger),
	)
	protocol := server.NewProtocol(
		server.WithProtocolLogger(logger),
		server.WithProtocolMetrics(metrics),
	)
	methods.RegisterMethods(protocol)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("task manager shutdown incomplete", slog.Any("error", err))
		}
	}()

	if stdio {
		logger.Info("serving on stdio", slog.Any("handlers", handlerRegistry.Names()))
		t := transport.NewStdioTransport(protocol, os.Stdin, os.Stdout, logger)
		if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	opts := &transport.Options{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		SSEHeartbeat:   cfg.SSE.Heartbeat,
		SSEMaxLifetime: cfg.SSE.MaxLifetime,
		Logger:         logger,
	}
	mux := transport.NewMux(protocol, bus, opts)

	auth := server.NewBearerAuth([]byte(cfg.Auth.HMACKey), logger)
	srv := transport.NewServer(transport.ServerConfig{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Middleware:      auth.Middleware,
	}, mux, logger)
	srv.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Info("handlers registered", slog.Any("handlers", handlerRegistry.Names()))
	return srv.Serve(ctx)
}

// newLogger builds the process logger. In stdio mode logs go to stderr so
// stdout stays reserved for the protocol.
func newLogger(cfg server.LogConfig, stdio bool) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stdout
	if stdio {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}
