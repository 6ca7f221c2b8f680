// Tablemix - Social Mixer Scheduling and Compatibility Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tablemix

// Package main is the entry point for the Tablemix server.
//
// Tablemix runs timed multi-round mixer events: it partitions a
// participant pool into tables round by round while minimizing repeat
// encounters, prepares conversation context for each table, ingests
// interaction signals during the event, and turns them into per-guest
// compatibility reports once the party completes.
//
// # Startup order
//
//  1. Configuration: defaults, optional YAML file, TABLEMIX_ env vars
//  2. Logging: zerolog, JSON or console format
//  3. Storage: BadgerDB at storage.path
//  4. Party engine: scheduling, signal ingestion, scoring, reports
//  5. Signal feed (optional): NATS JetStream consumer, optionally
//     against an embedded in-process server
//  6. HTTP server: REST API plus /metrics
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests within server.shutdown_timeout, the feed consumer
// stops, and the store is closed last.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/tablemix/internal/api"
	"github.com/tomtom215/tablemix/internal/config"
	"github.com/tomtom215/tablemix/internal/logging"
	"github.com/tomtom215/tablemix/internal/party"
	"github.com/tomtom215/tablemix/internal/signalfeed"
	"github.com/tomtom215/tablemix/internal/storage"
	"github.com/tomtom215/tablemix/internal/supervisor"
	"github.com/tomtom215/tablemix/internal/supervisor/services"
)

func main() {
	configPath := flag.String("config", "", "path to config file (overrides the default search paths)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The default logger carries config errors before Init runs.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)

	logging.Info().
		Str("storage_path", cfg.Storage.Path).
		Bool("feed_enabled", cfg.Feed.Enabled).
		Int("port", cfg.Server.Port).
		Msg("Starting Tablemix")

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	engine, err := party.NewEngine(store, cfg.Scoring)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create party engine")
	}
	engine.SetTableDefaults(party.TableDefaults{
		MinTableSize: cfg.Scheduling.DefaultMinTableSize,
		MaxTableSize: cfg.Scheduling.DefaultMaxTableSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if cfg.Feed.Enabled {
		feedURL := cfg.Feed.URL
		if cfg.Feed.Embedded {
			embedded, err := signalfeed.NewEmbeddedServer(signalfeed.EmbeddedConfig{
				StoreDir: cfg.Feed.StoreDir,
			})
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
			}
			defer embedded.Shutdown()
			feedURL = embedded.ClientURL()
			logging.Info().Str("url", feedURL).Msg("Embedded NATS server started")
		}

		sub, err := signalfeed.NewSubscriber(
			signalfeed.DefaultSubscriberConfig(feedURL, cfg.Feed.Topic, cfg.Feed.DurableName))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create signal feed subscriber")
		}
		defer func() {
			if err := sub.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing signal feed subscriber")
			}
		}()

		breaker := signalfeed.NewBreaker(signalfeed.DefaultBreakerConfig())
		tree.AddFeedService(services.NewFeedService(sub, engine, breaker))
		logging.Info().
			Str("topic", cfg.Feed.Topic).
			Str("durable", cfg.Feed.DurableName).
			Msg("Signal feed added to supervisor tree")
	}

	router := api.NewRouter(api.NewHandler(engine), api.RouterConfig{
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Stopped gracefully")
}
