// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	minesweeper "github.com/kadirpekel/minesweeper-agents"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/orchestrator"
	"github.com/kadirpekel/minesweeper-agents/pkg/provider"
	"github.com/kadirpekel/minesweeper-agents/pkg/scoreapi"
	"github.com/kadirpekel/minesweeper-agents/pkg/server"
)

const shutdownGrace = 5 * time.Second

// ServeCmd serves the orchestrator over HTTP.
type ServeCmd struct {
	Address string `help:"Address to listen on (overrides server.address)." placeholder:"ADDR"`
	Watch   bool   `help:"Reload orchestrator and provider settings when the config file changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		cfg := a.cfg.Server
		if c.Address != "" {
			cfg.Address = c.Address
		}

		proc := &reloadingProcessor{}
		proc.current.Store(a.orch)
		if c.Watch {
			if cli.Config == "" {
				return fmt.Errorf("--watch requires --config")
			}
			if err := proc.watch(ctx, cli, a); err != nil {
				return err
			}
		}

		srv := server.NewHTTPServer(cfg, proc,
			server.WithObservability(a.obs),
			server.WithVersion(minesweeper.GetVersion().Version),
		)

		fmt.Printf("\n🚀 Minesweeper agents ready on %s\n", cfg.Address)
		fmt.Printf("   Requests: POST /v1/requests\n")
		fmt.Printf("   Health:   GET  /v1/health\n")
		if a.obs.Metrics() != nil {
			fmt.Printf("   Metrics:  GET  /metrics\n")
		}
		fmt.Println()

		return srv.Start(ctx)
	})
}

// reloadingProcessor serves from the most recently built orchestrator.
type reloadingProcessor struct {
	current atomic.Pointer[orchestrator.Orchestrator]
}

func (p *reloadingProcessor) Process(ctx context.Context, request string) orchestrator.Response {
	return p.current.Load().Process(ctx, request)
}

func (p *reloadingProcessor) HealthCheck(ctx context.Context) orchestrator.HealthSnapshot {
	return p.current.Load().HealthCheck(ctx)
}

// watch rebuilds the agents on every valid config change. Server address
// and observability settings need a restart.
func (p *reloadingProcessor) watch(ctx context.Context, cli *CLI, base *app) error {
	updates, err := config.Watch(ctx, cli.Config)
	if err != nil {
		return err
	}
	go func() {
		for cfg := range updates {
			orch, err := buildOrchestrator(cfg, base.obs)
			if err != nil {
				slog.Error("Config reload rejected", "error", err)
				continue
			}
			p.current.Store(orch)
			slog.Info("Orchestrator reloaded",
				"provider", cfg.Provider.Transport,
				"timeout", cfg.Orchestrator.Timeout())
		}
	}()
	return nil
}

// ProviderCmd runs the MCP capability provider on top of the scoring API.
// Over stdio it is normally launched by the agents themselves.
type ProviderCmd struct {
	HTTP       string `name:"http" help:"Serve streamable HTTP on this address instead of stdio." placeholder:"ADDR"`
	BackendURL string `name:"backend-url" env:"MINESWEEPER_API_URL" help:"Scoring API base URL (overrides backend.base_url)."`
}

func (c *ProviderCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	baseURL := firstNonEmpty(c.BackendURL, cfg.Backend.BaseURL)

	backend := scoreapi.New(baseURL, scoreapi.WithTimeout(cfg.Backend.Timeout))
	s := provider.New(backend, minesweeper.GetVersion().Version)

	if c.HTTP == "" {
		slog.Debug("Provider serving stdio", "backend", baseURL)
		return mcpserver.ServeStdio(s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := mcpserver.NewStreamableHTTPServer(s)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(c.HTTP)
	}()
	slog.Info("Provider serving streamable HTTP", "address", c.HTTP, "backend", baseURL)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
