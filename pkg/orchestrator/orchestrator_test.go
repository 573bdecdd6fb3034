package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
	"github.com/kadirpekel/minesweeper-agents/pkg/score"
	"github.com/kadirpekel/minesweeper-agents/pkg/testutils"
)

type fixture struct {
	orch     *Orchestrator
	game     *testutils.FakeProvider
	data     *testutils.FakeProvider
	protocol *testutils.FakeProvider
	metrics  *observability.Metrics
}

func deps(p *testutils.FakeProvider, m *observability.Metrics) agent.Deps {
	return agent.Deps{
		Launcher: mcpsession.LauncherFunc(p.Launch),
		Session:  mcpsession.Options{Timeout: 2 * time.Second},
		Metrics:  m,
	}
}

func newFixture(t *testing.T, game, data, protocol *testutils.FakeProvider) fixture {
	t.Helper()
	m, err := observability.NewMetrics(observability.MetricsConfig{Enabled: true, Namespace: "test"})
	require.NoError(t, err)

	cfg := config.Default().Orchestrator
	orch, err := New(cfg, Agents{
		Game:     agent.NewGameAgent(deps(game, m)),
		Data:     agent.NewDataAgent(deps(data, m)),
		Protocol: agent.NewProtocolAgent(deps(protocol, m)),
	}, WithMetrics(m), WithRequestIDs(func() string { return "req-1" }))
	require.NoError(t, err)

	return fixture{orch: orch, game: game, data: data, protocol: protocol, metrics: m}
}

func sharedFixture(t *testing.T, opts ...testutils.FakeOption) fixture {
	p := testutils.NewFakeProvider(opts...)
	return newFixture(t, p, p, p)
}

func TestNew_RequiresAgents(t *testing.T) {
	_, err := New(config.Default().Orchestrator, Agents{})
	assert.Error(t, err)
}

func TestNew_RegistersMembersInOrder(t *testing.T) {
	f := sharedFixture(t)
	assert.Equal(t, []string{"game", "data", "protocol"}, f.orch.Members())
}

func TestProcess_GetScores(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Pokaż top 5 wyników easy")

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, IntentGetScores, resp.Intent)
	require.Equal(t, StatusSuccess, resp.Status, resp.Error)
	assert.Equal(t, "game", resp.Agent)

	data, ok := resp.Data.(ScoresResult)
	require.True(t, ok)
	assert.Equal(t, "🏆 Top 5 wyników (easy):\n\n1. Anna - 12s (easy)", data.Text)
	assert.Equal(t, map[string]any{"difficulty": "easy", "limit": float64(5)}, f.game.LastArgs("get_scores"))

	f.assertRequests(t, `test_requests_total{intent="get_scores",status="success"} 1`)
}

func (f fixture) assertRequests(t *testing.T, lines ...string) {
	t.Helper()
	expected := "# HELP test_requests_total Orchestrator requests, by intent and response status.\n" +
		"# TYPE test_requests_total counter\n" + strings.Join(lines, "\n") + "\n"
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "test_requests_total"))
}

func TestProcess_SubmitScore(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Dodaj wynik Jan, easy, 120s")

	assert.Equal(t, IntentSubmitScore, resp.Intent)
	require.Equal(t, StatusSuccess, resp.Status, resp.Error)
	data, ok := resp.Data.(SubmitResult)
	require.True(t, ok)
	assert.Equal(t, "Jan", data.PlayerName)
	assert.Equal(t, "easy", data.Difficulty)
	assert.Equal(t, 120, data.TimeSeconds)
	assert.Contains(t, data.Message, "Wynik zapisany")

	assert.Equal(t, map[string]any{
		"player_name":  "Jan",
		"difficulty":   "easy",
		"time_seconds": float64(120),
	}, f.game.LastArgs("submit_score"))
}

func TestProcess_ImplausibleSubmissionNeverReachesProvider(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Dodaj wynik Jan, easy, 5s")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, failure.Validation, resp.ErrorKind)
	assert.Equal(t, "invalid score: 5s is below the 10s minimum for easy", resp.Error)
	assert.Zero(t, f.game.Launches(), "no session is opened for a rejected score")
	assert.Zero(t, f.game.Calls("submit_score"))
	f.assertRequests(t, `test_requests_total{intent="submit_score",status="error"} 1`)
}

func TestProcess_MalformedSubmission(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Dodaj wynik Jan easy 120")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, failure.Format, resp.ErrorKind)
	assert.Equal(t, submitUsage, resp.Error)
	assert.Zero(t, f.game.Launches())
}

func TestProcess_Analytics(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Pokaż statystyki")
	assert.Equal(t, IntentGetScores, resp.Intent, "pokaż belongs to the scores vocabulary")

	resp = f.orch.Process(testutils.TestContext(t), "Analiza gier")
	assert.Equal(t, IntentAnalytics, resp.Intent)
	require.Equal(t, StatusSuccess, resp.Status, resp.Error)
	assert.Equal(t, "data", resp.Agent)

	analysis, ok := resp.Data.(agent.Analysis)
	require.True(t, ok)
	assert.Equal(t, testutils.StatsText, analysis.Raw)
	assert.Equal(t, 12, analysis.Parsed.TotalGames)
	assert.Equal(t, 3, analysis.Parsed.UniquePlayers)
	assert.Empty(t, analysis.Warnings)
}

func TestProcess_Unknown(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Jaka jest pogoda?")

	assert.Equal(t, IntentUnknown, resp.Intent)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, failure.UnknownIntent, resp.ErrorKind)
	assert.Equal(t, "Unknown request type", resp.Error)
	assert.Equal(t, "Try: 'Pokaż wyniki' or 'Dodaj wynik Jan, easy, 120s'", resp.Suggestion)
	assert.Zero(t, f.game.Launches())
	f.assertRequests(t, `test_requests_total{intent="unknown",status="error"} 1`)
}

func TestProcess_Composite(t *testing.T) {
	f := sharedFixture(t)

	resp := f.orch.Process(testutils.TestContext(t), "Daj mi wszystko")

	assert.Equal(t, IntentComposite, resp.Intent)
	require.Equal(t, StatusSuccess, resp.Status)
	result, ok := resp.Data.(CompositeResult)
	require.True(t, ok)

	require.Equal(t, StatusSuccess, result[SlotScores].Status, result[SlotScores].Error)
	assert.Equal(t, "game", result[SlotScores].Agent)
	assert.Equal(t, "🏆 Top 5 wyników (wszystkie):\n\n1. Anna - 12s (easy)", result[SlotScores].Data.(ScoresResult).Text)

	require.Equal(t, StatusSuccess, result[SlotAnalytics].Status, result[SlotAnalytics].Error)
	assert.Equal(t, 12, result[SlotAnalytics].Data.(agent.Analysis).Parsed.TotalGames)

	assert.Equal(t, 2, f.game.Launches(), "each agent call opens its own session")
	assert.Equal(t, 2, f.game.Closes())
}

// barrier releases its callers only once n of them have arrived.
type barrier struct {
	wg  sync.WaitGroup
	all chan struct{}
}

func newBarrier(n int) *barrier {
	b := &barrier{all: make(chan struct{})}
	b.wg.Add(n)
	go func() {
		b.wg.Wait()
		close(b.all)
	}()
	return b
}

func (b *barrier) arrive() error {
	b.wg.Done()
	select {
	case <-b.all:
		return nil
	case <-time.After(time.Second):
		return errors.New("ran alone")
	}
}

type barrierGame struct{ b *barrier }

func (g barrierGame) Name() string { return "game" }
func (g barrierGame) HealthCheck(context.Context) agent.Health {
	return agent.Health{Status: agent.StatusOK}
}
func (g barrierGame) GetScores(context.Context, score.Difficulty, int) (string, error) {
	if err := g.b.arrive(); err != nil {
		return "", err
	}
	return "scores", nil
}
func (g barrierGame) SubmitScore(context.Context, score.Submission) (string, error) {
	return "", nil
}

type barrierData struct{ b *barrier }

func (d barrierData) Name() string { return "data" }
func (d barrierData) HealthCheck(context.Context) agent.Health {
	return agent.Health{Status: agent.StatusOK}
}
func (d barrierData) Analyze(context.Context) (agent.Analysis, error) {
	if err := d.b.arrive(); err != nil {
		return agent.Analysis{}, err
	}
	return agent.Analysis{Raw: "stats"}, nil
}

func TestProcess_CompositeRunsSlotsTogetherAtConcurrencyOne(t *testing.T) {
	b := newBarrier(2)
	cfg := config.Default().Orchestrator
	cfg.MaxConcurrentAgents = 1

	orch, err := New(cfg, Agents{Game: barrierGame{b}, Data: barrierData{b}})
	require.NoError(t, err)

	resp := orch.Process(testutils.TestContext(t), "Daj mi wszystko")

	require.Equal(t, StatusSuccess, resp.Status)
	result := resp.Data.(CompositeResult)
	assert.Equal(t, StatusSuccess, result[SlotScores].Status, result[SlotScores].Error)
	assert.Equal(t, StatusSuccess, result[SlotAnalytics].Status, result[SlotAnalytics].Error)
}

func TestProcess_CompositeIsolatesFailures(t *testing.T) {
	game := testutils.NewFakeProvider(testutils.WithToolError("get_scores", "baza danych niedostępna"))
	data := testutils.NewFakeProvider()
	f := newFixture(t, game, data, data)

	resp := f.orch.Process(testutils.TestContext(t), "kompletny przegląd")

	require.Equal(t, StatusSuccess, resp.Status)
	result := resp.Data.(CompositeResult)

	assert.Equal(t, StatusError, result[SlotScores].Status)
	assert.Equal(t, failure.Invocation, result[SlotScores].ErrorKind)
	assert.Contains(t, result[SlotScores].Error, "baza danych niedostępna")
	assert.Nil(t, result[SlotScores].Data)

	assert.Equal(t, StatusSuccess, result[SlotAnalytics].Status)
	assert.NotNil(t, result[SlotAnalytics].Data)
}

func TestProcess_TransportFailure(t *testing.T) {
	game := testutils.NewFakeProvider(testutils.WithFailingInitialize())
	f := newFixture(t, game, game, game)

	resp := f.orch.Process(testutils.TestContext(t), "top 3")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "game", resp.Agent)
	assert.Contains(t, []failure.Kind{failure.Transport, failure.Handshake}, resp.ErrorKind)
	assert.Equal(t, game.Launches(), game.Closes(), "failed sessions are closed")
}

func TestHealthCheck_AllHealthy(t *testing.T) {
	f := sharedFixture(t)

	snapshot := f.orch.HealthCheck(testutils.TestContext(t))

	assert.True(t, snapshot.Healthy())
	assert.Equal(t, agent.StatusOK, snapshot.Status)
	require.Len(t, snapshot.Agents, 3)
	assert.Equal(t, 3, snapshot.Agents["game"].Count)
	assert.Equal(t, 2, snapshot.Agents["data"].Count)
	assert.Equal(t, agent.StatusOK, snapshot.Agents["protocol"].Status)
}

func TestHealthCheck_OneAgentDown(t *testing.T) {
	game := testutils.NewFakeProvider()
	data := testutils.NewFakeProvider(testutils.WithFailingInitialize())
	protocol := testutils.NewFakeProvider()
	f := newFixture(t, game, data, protocol)

	snapshot := f.orch.HealthCheck(testutils.TestContext(t))

	assert.False(t, snapshot.Healthy())
	assert.Equal(t, agent.StatusDegraded, snapshot.Status)
	assert.Equal(t, agent.StatusOK, snapshot.Agents["game"].Status)
	assert.Equal(t, agent.StatusOK, snapshot.Agents["protocol"].Status)
	assert.Equal(t, agent.StatusError, snapshot.Agents["data"].Status)
	assert.NotEmpty(t, snapshot.Agents["data"].Detail)
}
