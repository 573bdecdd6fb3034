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
	"fmt"
	"log/slog"
	"os"

	minesweeper "github.com/kadirpekel/minesweeper-agents"
	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
	"github.com/kadirpekel/minesweeper-agents/pkg/orchestrator"
)

// app holds the agents and orchestrator built from one configuration.
type app struct {
	cfg      config.Config
	obs      *observability.Manager
	game     *agent.GameAgent
	data     *agent.DataAgent
	protocol *agent.ProtocolAgent
	orch     *orchestrator.Orchestrator
}

// loadApp loads the configuration and wires the agents. The returned
// cleanup flushes traces and must always be called.
func loadApp(ctx context.Context, cli *CLI) (*app, func(), error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, nil, err
	}

	obs := observability.NewManager(cfg.Observability)
	if err := obs.Initialize(ctx, os.Stderr); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	cleanup := func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			slog.Warn("Observability shutdown failed", "error", err)
		}
	}

	a, err := buildApp(cfg, obs)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

func buildApp(cfg config.Config, obs *observability.Manager) (*app, error) {
	if err := resolveProviderCommand(&cfg.Provider); err != nil {
		return nil, err
	}
	launcher, err := mcpsession.LauncherFor(cfg.Provider)
	if err != nil {
		return nil, err
	}
	slog.Debug("Provider configured", "provider", launcher.Describe())

	deps := agent.Deps{
		Launcher: launcher,
		Session: mcpsession.Options{
			Timeout:       cfg.Orchestrator.Timeout(),
			ClientVersion: minesweeper.GetVersion().Version,
			Tracer:        obs.Tracer("minesweeper-agents/mcpsession"),
		},
		Metrics: obs.Metrics(),
	}

	a := &app{
		cfg:      cfg,
		obs:      obs,
		game:     agent.NewGameAgent(deps),
		data:     agent.NewDataAgent(deps),
		protocol: agent.NewProtocolAgent(deps),
	}
	a.orch, err = orchestrator.New(cfg.Orchestrator, orchestrator.Agents{
		Game:     a.game,
		Data:     a.data,
		Protocol: a.protocol,
	}, orchestrator.WithMetrics(obs.Metrics()))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// buildOrchestrator wires a fresh orchestrator for cfg, sharing obs.
func buildOrchestrator(cfg config.Config, obs *observability.Manager) (*orchestrator.Orchestrator, error) {
	a, err := buildApp(cfg, obs)
	if err != nil {
		return nil, err
	}
	return a.orch, nil
}

// resolveProviderCommand points an unset stdio command at this executable,
// which serves the provider through its provider subcommand.
func resolveProviderCommand(p *config.ProviderConfig) error {
	if p.Transport != config.TransportStdio || p.Command != "" {
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve provider command: %w", err)
	}
	p.Command = exe
	return nil
}
