// Package app wires configuration, stores, services and the HTTP server
// into one runnable gateway.
package app

import (
	"context"
	"fmt"
	"strings"

	"proposalforge/internal/debate"
	"proposalforge/internal/export"
	"proposalforge/internal/gateway/config"
	"proposalforge/internal/gateway/handler"
	"proposalforge/internal/gateway/server"
	gatewayproject "proposalforge/internal/gateway/service/project"
	llmclient "proposalforge/internal/llm/client"
	llm "proposalforge/internal/llm/middleware"
)

type App struct {
	server *server.Server
	svc    *gatewayproject.Service
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	stores, err := initStores(cfg)
	if err != nil {
		return nil, err
	}

	assembler := export.NewAssembler(stores.artifact, nil)
	factory := newClientFactory(cfg)
	svc := gatewayproject.New(stores.project, assembler, factory, debate.Options{
		MaxRounds: cfg.MaxRounds,
	})

	projectHandler := handler.NewProjectHandler(svc, stores.artifact)

	mux := server.NewMux(projectHandler)
	srv := server.New(cfg.Port, mux)

	return &App{server: srv, svc: svc}, nil
}

// newClientFactory builds the model client used for every debate role. The
// per-request key comes from the caller; the chain adds metrics, logging
// and an outbound rate cap around the raw client.
func newClientFactory(cfg *config.Config) debate.ClientFactory {
	return func(apiKey string) (llmclient.Client, error) {
		if strings.TrimSpace(apiKey) == "" {
			apiKey = cfg.Gemini.DefaultKey
		}

		var base llmclient.Client
		var err error
		if cfg.Gemini.UseSDK {
			base, err = llmclient.NewSDKClient(context.Background(), apiKey, cfg.Gemini.Model)
		} else {
			var opts []llmclient.GeminiOption
			if cfg.Gemini.Endpoint != "" {
				opts = append(opts, llmclient.WithEndpoint(cfg.Gemini.Endpoint))
			}
			base, err = llmclient.NewGeminiClient(apiKey, cfg.Gemini.Model, opts...)
		}
		if err != nil {
			return nil, err
		}

		mws := []llm.Middleware{llm.WithMetrics(), llm.WithLogging(nil)}
		if cfg.LLMRatePerSecond > 0 {
			mws = append(mws, llm.RateLimit(float64(cfg.LLMRatePerSecond), 1))
		}
		return llm.Wrap(base, mws...), nil
	}
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.svc.Close(); err == nil {
		err = cerr
	}
	return err
}
