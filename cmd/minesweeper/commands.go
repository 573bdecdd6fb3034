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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/orchestrator"
	"github.com/kadirpekel/minesweeper-agents/pkg/score"
	"github.com/kadirpekel/minesweeper-agents/pkg/stats"
)

// AskCmd routes one request through the orchestrator.
type AskCmd struct {
	Request []string `arg:"" help:"Request text, e.g. \"Pokaż top 5 wyników easy\"."`
}

func (c *AskCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		resp := a.orch.Process(ctx, strings.Join(c.Request, " "))
		if cli.JSON {
			if err := printJSON(resp); err != nil {
				return err
			}
		} else {
			renderResponse(resp)
		}
		if resp.Status == orchestrator.StatusError {
			return errors.New(resp.Error)
		}
		return nil
	})
}

// HealthCmd probes every agent.
type HealthCmd struct{}

func (c *HealthCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		snapshot := a.orch.HealthCheck(ctx)
		if cli.JSON {
			if err := printJSON(snapshot); err != nil {
				return err
			}
		} else {
			fmt.Printf("Status: %s\n", snapshot.Status)
			for _, name := range a.orch.Members() {
				h := snapshot.Agents[name]
				line := fmt.Sprintf("  %-9s %s", name, h.Status)
				if h.Detail != "" {
					line += " (" + h.Detail + ")"
				}
				fmt.Println(line)
			}
		}
		if !snapshot.Healthy() {
			return fmt.Errorf("health check %s", snapshot.Status)
		}
		return nil
	})
}

// ToolsCmd lists the provider's tools.
type ToolsCmd struct{}

func (c *ToolsCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		tools, err := a.protocol.ListTools(ctx)
		if err != nil {
			return err
		}
		return printDescriptors(cli, tools)
	})
}

// ResourcesCmd lists the provider's resources.
type ResourcesCmd struct{}

func (c *ResourcesCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		resources, err := a.protocol.ListResources(ctx)
		if err != nil {
			return err
		}
		return printDescriptors(cli, resources)
	})
}

// InfoCmd shows what the provider reported in the handshake.
type InfoCmd struct{}

func (c *InfoCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		summary, err := a.protocol.GetServerInfo(ctx)
		if err != nil {
			return err
		}
		if cli.JSON {
			return printJSON(summary)
		}
		fmt.Printf("Server:       %s %s\n", summary.Name, summary.Version)
		fmt.Printf("Protocol:     %s\n", summary.ProtocolVersion)
		fmt.Printf("Capabilities: %s\n", strings.Join(capabilityNames(summary.Capabilities), ", "))
		fmt.Printf("Tools:        %d\n", summary.ToolsCount)
		fmt.Printf("Resources:    %d\n", summary.ResourcesCount)
		if summary.Instructions != "" {
			fmt.Printf("Instructions: %s\n", summary.Instructions)
		}
		return nil
	})
}

// ReportCmd renders a statistics report.
type ReportCmd struct {
	Period string `arg:"" optional:"" help:"Report period (day, week, month)." default:"week"`
}

func (c *ReportCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		report, err := a.data.GenerateReport(ctx, c.Period)
		if err != nil {
			return err
		}
		if cli.JSON {
			return printJSON(report)
		}
		fmt.Println(report.Text)
		return nil
	})
}

// ProgressCmd shows a player's progress.
type ProgressCmd struct {
	Player string `arg:"" help:"Player name."`
}

func (c *ProgressCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		text, err := a.game.GetPlayerProgress(ctx, c.Player)
		if err != nil {
			return err
		}
		return printText(cli, "progress", text)
	})
}

// CompareCmd compares two players.
type CompareCmd struct {
	Player1 string `arg:"" help:"First player."`
	Player2 string `arg:"" help:"Second player."`
}

func (c *CompareCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		text, err := a.data.ComparePlayers(ctx, c.Player1, c.Player2)
		if agent.IsNotImplemented(err) {
			fmt.Println(err.Error())
			return nil
		}
		if err != nil {
			return err
		}
		return printText(cli, "comparison", text)
	})
}

// DocsCmd prints the scoring API documentation.
type DocsCmd struct{}

func (c *DocsCmd) Run(cli *CLI) error {
	return withApp(cli, func(ctx context.Context, a *app) error {
		text, err := a.data.APIDocs(ctx)
		if err != nil {
			return err
		}
		return printText(cli, "docs", text)
	})
}

// withApp wires the application and runs fn until it returns or the
// process is interrupted.
func withApp(cli *CLI, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := loadApp(ctx, cli)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, a)
}

func renderResponse(resp orchestrator.Response) {
	if resp.Status != orchestrator.StatusSuccess {
		fmt.Fprintf(os.Stderr, "❌ %s\n", resp.Error)
		if resp.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "💡 %s\n", resp.Suggestion)
		}
		return
	}
	renderData(resp.Data)
}

func renderData(data any) {
	switch d := data.(type) {
	case orchestrator.ScoresResult:
		fmt.Println(d.Text)
	case orchestrator.SubmitResult:
		fmt.Println(d.Message)
	case agent.Analysis:
		renderAnalysis(os.Stdout, d)
	case orchestrator.CompositeResult:
		for _, name := range []string{orchestrator.SlotScores, orchestrator.SlotAnalytics} {
			slot, ok := d[name]
			if !ok {
				continue
			}
			fmt.Printf("== %s (%s) ==\n", name, slot.Status)
			if slot.Status != orchestrator.StatusSuccess {
				fmt.Printf("❌ %s\n", slot.Error)
				continue
			}
			renderData(slot.Data)
		}
	default:
		_ = printJSON(d)
	}
}

func renderAnalysis(w io.Writer, a agent.Analysis) {
	fmt.Fprintf(w, "Games played:   %d\n", a.Parsed.TotalGames)
	fmt.Fprintf(w, "Unique players: %d\n", a.Parsed.UniquePlayers)
	fmt.Fprintf(w, "Games/player:   %.1f\n", stats.AvgGamesPerPlayer(a.Parsed))
	for _, d := range score.Difficulties {
		if t, ok := a.Parsed.BestTimes[d]; ok {
			fmt.Fprintf(w, "Best %-6s    %ds\n", string(d)+":", t)
		}
	}
	for _, warn := range a.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warn.String())
	}
}

func printDescriptors(cli *CLI, items []mcpsession.Descriptor) error {
	if cli.JSON {
		return printJSON(items)
	}
	for _, it := range items {
		name := it.Name
		if it.URI != "" {
			name = it.URI
		}
		fmt.Printf("%-24s %s\n", name, it.Description)
	}
	return nil
}

func printText(cli *CLI, key, text string) error {
	if cli.JSON {
		return printJSON(map[string]string{key: text})
	}
	fmt.Println(text)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func capabilityNames(caps []mcpsession.Capability) []string {
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, string(c))
	}
	return names
}
