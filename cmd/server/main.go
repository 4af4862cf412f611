// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package main is the entry point for the Pulserank server.
//
// Pulserank personalizes and ranks content feeds per viewer. The server
// initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, PULSERANK_* environment
//     variables (Koanf v2)
//  2. Logging: zerolog global logger
//  3. Storage: BadgerDB profile persistence (in-memory when no path set)
//  4. Engine: affinity profile store, relevance scorer, similarity
//     recommender, trending calculator
//  5. HTTP server: Chi router with rate limiting, CORS, Prometheus metrics
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests up to the configured
// shutdown timeout, then closes the profile database.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jthompson-dev/pulserank/internal/api"
	"github.com/jthompson-dev/pulserank/internal/config"
	"github.com/jthompson-dev/pulserank/internal/logging"
	"github.com/jthompson-dev/pulserank/internal/rank/profile"
	"github.com/jthompson-dev/pulserank/internal/rank/scorer"
	"github.com/jthompson-dev/pulserank/internal/rank/similar"
	"github.com/jthompson-dev/pulserank/internal/rank/trending"
	"github.com/jthompson-dev/pulserank/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (overrides search paths)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()
	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("storage_path", cfg.Storage.Path).
		Msg("starting pulserank")

	store, err := storage.Open(cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing profile database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go store.RunGC(ctx, cfg.Storage.GCInterval)

	engineCfg := &cfg.Engine
	profiles := profile.NewStore(engineCfg, store, logger)
	relevance := scorer.New(engineCfg, logger)
	recommender := similar.NewRecommender(engineCfg, logger)
	calculator := trending.New(engineCfg)

	handler := api.NewHandler(profiles, relevance, recommender, calculator, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimit:          cfg.Server.RateLimit,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
