// Package app wires the gateway together: config, stores, the model
// client, the fact provider and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"animaldex/internal/classifier"
	"animaldex/internal/gateway/config"
	"animaldex/internal/gateway/handler"
	"animaldex/internal/gateway/server"
	"animaldex/internal/gateway/service/auth"
	"animaldex/internal/gateway/service/events"
	"animaldex/internal/gateway/service/facts"
	"animaldex/internal/gateway/service/ledger"
	"animaldex/internal/gateway/service/prediction"
	"animaldex/internal/llmclient"
	"animaldex/internal/logging"
)

type App struct {
	srv *server.Server
	log *slog.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	stores, err := initStores(cfg, logger)
	if err != nil {
		return nil, err
	}

	// One read-only model client for the whole process.
	cls, err := classifier.NewHTTPClient(ctx, cfg.Classifier.BaseURL, cfg.Classifier.Timeout)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	// A broken text client is not fatal: the fact provider degrades to
	// its deterministic fallback.
	var textClient llmclient.TextClient
	if gemini, err := llmclient.NewGeminiClient(ctx, cfg.Fact.Model); err != nil {
		logger.Warn("text client unavailable, facts will use fallback", "error", err)
	} else {
		textClient = llmclient.Chain(gemini, llmclient.WithLogging(logger))
	}

	hub := events.NewHub()
	ledgerSvc := ledger.New(stores.profiles)
	authSvc := auth.New(stores.profiles, cfg.SessionTTL, logger)
	factProvider := facts.NewProvider(textClient, cfg.Fact.Timeout, logger)
	predictionSvc := prediction.New(cls, factProvider, ledgerSvc, stores.uploads, hub, logger)

	api := handler.NewAPI(logger, authSvc, predictionSvc, ledgerSvc, stores.uploads, hub)
	mux := server.NewMux(logger, api, authSvc, stores.profiles.Ping)

	return &App{
		srv: server.New(cfg.Port, mux, logger),
		log: logger,
	}, nil
}

func (a *App) Start() error {
	return a.srv.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

func (a *App) Logger() *slog.Logger { return a.log }
