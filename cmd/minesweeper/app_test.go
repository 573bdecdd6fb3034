package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
	"github.com/kadirpekel/minesweeper-agents/pkg/orchestrator"
	"github.com/kadirpekel/minesweeper-agents/pkg/score"
	"github.com/kadirpekel/minesweeper-agents/pkg/stats"
)

func TestResolveProviderCommand(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	p := config.ProviderConfig{Transport: config.TransportStdio}
	require.NoError(t, resolveProviderCommand(&p))
	assert.Equal(t, exe, p.Command)

	p = config.ProviderConfig{Transport: config.TransportStdio, Command: "/usr/bin/provider"}
	require.NoError(t, resolveProviderCommand(&p))
	assert.Equal(t, "/usr/bin/provider", p.Command)

	p = config.ProviderConfig{Transport: config.TransportStreamableHTTP, URL: "http://localhost:8090/mcp"}
	require.NoError(t, resolveProviderCommand(&p))
	assert.Empty(t, p.Command)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "cli", firstNonEmpty("cli", "env", "file"))
	assert.Equal(t, "env", firstNonEmpty("", "env", "file"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func parse(t *testing.T, args ...string) (*CLI, string) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("minesweeper"), kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx.Command()
}

func TestCLI_Parses(t *testing.T) {
	cli, cmd := parse(t, "--json", "ask", "Pokaż", "top", "5")
	assert.True(t, strings.HasPrefix(cmd, "ask"))
	assert.True(t, cli.JSON)
	assert.Equal(t, []string{"Pokaż", "top", "5"}, cli.Ask.Request)

	cli, _ = parse(t, "report")
	assert.Equal(t, "week", cli.Report.Period)

	cli, _ = parse(t, "provider", "--http", ":8090", "--backend-url", "http://api/api")
	assert.Equal(t, ":8090", cli.Provider.HTTP)
	assert.Equal(t, "http://api/api", cli.Provider.BackendURL)

	cli, _ = parse(t, "serve", "--watch", "--address", ":9000")
	assert.True(t, cli.Serve.Watch)
	assert.Equal(t, ":9000", cli.Serve.Address)
}

func TestBuildApp_WiresAllAgents(t *testing.T) {
	obs := observability.NewManager(observability.Config{})
	require.NoError(t, obs.Initialize(context.Background(), io.Discard))

	cfg := config.Default()
	cfg.Provider = config.ProviderConfig{Transport: config.TransportStreamableHTTP, URL: "http://127.0.0.1:1/mcp"}

	a, err := buildApp(cfg, obs)
	require.NoError(t, err)
	assert.Equal(t, []string{"game", "data", "protocol"}, a.orch.Members())

	cfg.Provider = config.ProviderConfig{Transport: "carrier-pigeon"}
	_, err = buildApp(cfg, obs)
	assert.Error(t, err)
}

func TestReloadingProcessor_UsesLatest(t *testing.T) {
	obs := observability.NewManager(observability.Config{})
	require.NoError(t, obs.Initialize(context.Background(), io.Discard))

	first, err := buildOrchestrator(config.Default(), obs)
	require.NoError(t, err)
	second, err := buildOrchestrator(config.Default(), obs)
	require.NoError(t, err)

	var p reloadingProcessor
	p.current.Store(first)
	resp := p.Process(context.Background(), "Jaka jest pogoda?")
	assert.Equal(t, orchestrator.IntentUnknown, resp.Intent)

	p.current.Store(second)
	assert.Same(t, second, p.current.Load())
}

func TestRenderAnalysis_TierOrder(t *testing.T) {
	var buf bytes.Buffer
	renderAnalysis(&buf, agent.Analysis{
		Parsed: stats.Parsed{
			TotalGames:    10,
			UniquePlayers: 4,
			BestTimes: map[score.Difficulty]int{
				score.Hard:   200,
				score.Easy:   15,
				score.Medium: 70,
			},
		},
		Warnings: []stats.Warning{{Line: 3, Field: "best_hard", Reason: "not a number"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Games played:   10")
	assert.Contains(t, out, "Games/player:   2.5")
	assert.Contains(t, out, "Best easy:     15s")

	easy := strings.Index(out, "Best easy:")
	medium := strings.Index(out, "Best medium:")
	hard := strings.Index(out, "Best hard:")
	require.True(t, easy >= 0 && medium >= 0 && hard >= 0, out)
	assert.Less(t, easy, medium)
	assert.Less(t, medium, hard)
	assert.Contains(t, out, "line 3 (best_hard): not a number")
}

func TestRenderAnalysis_SkipsMissingTiers(t *testing.T) {
	var buf bytes.Buffer
	renderAnalysis(&buf, agent.Analysis{
		Parsed: stats.Parsed{BestTimes: map[score.Difficulty]int{score.Medium: 80}},
	})

	out := buf.String()
	assert.Contains(t, out, "Best medium:    80s")
	assert.NotContains(t, out, "Best easy")
	assert.NotContains(t, out, "Best hard")
}
