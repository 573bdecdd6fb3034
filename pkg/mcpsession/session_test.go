package mcpsession_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/testutils"
)

func launcherFor(p *testutils.FakeProvider) mcpsession.Launcher {
	return mcpsession.LauncherFunc(p.Launch)
}

func TestOpen_Handshake(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider()

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{
		Timeout: time.Second,
		Require: []mcpsession.Capability{mcpsession.CapabilityTools, mcpsession.CapabilityResources},
	})
	require.NoError(t, err)

	assert.Equal(t, mcpsession.StateInitialized, s.State())
	assert.NotEmpty(t, s.ID())
	info := s.ServerInfo()
	assert.Equal(t, "fake-minesweeper", info.Name)
	assert.NotEmpty(t, info.ProtocolVersion)
	assert.True(t, info.Has(mcpsession.CapabilityTools))
	assert.True(t, info.Has(mcpsession.CapabilityResources))

	require.NoError(t, s.Close())
	assert.Equal(t, mcpsession.StateClosed, s.State())
	assert.Equal(t, 1, p.Closes())
}

func TestOpen_HandshakeFailureClosesTransport(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider(testutils.WithFailingInitialize())

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: time.Second})

	require.Error(t, err)
	assert.Nil(t, s, "no partial session escapes")
	assert.Equal(t, failure.Handshake, failure.KindOf(err))
	assert.Equal(t, 1, p.Launches())
	assert.Equal(t, 1, p.Closes(), "transport released after a failed handshake")
}

func TestOpen_MissingCapability(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider(testutils.WithoutResources())

	_, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{
		Timeout: time.Second,
		Require: []mcpsession.Capability{mcpsession.CapabilityResources},
	})

	require.Error(t, err)
	assert.Equal(t, failure.Handshake, failure.KindOf(err))
	assert.Contains(t, err.Error(), "resources")
	assert.Equal(t, 1, p.Closes())
}

func TestOpen_LaunchFailure(t *testing.T) {
	ctx := testutils.TestContext(t)
	launcher := mcpsession.LauncherFunc(func(context.Context) (transport.Interface, error) {
		return nil, errors.New("no such binary")
	})

	_, err := mcpsession.Open(ctx, launcher, mcpsession.Options{})
	require.Error(t, err)
	assert.Equal(t, failure.Transport, failure.KindOf(err))
}

func TestOpen_StdioMissingCommand(t *testing.T) {
	ctx := testutils.TestContext(t)

	_, err := mcpsession.Open(ctx, &mcpsession.StdioLauncher{}, mcpsession.Options{})
	require.Error(t, err)
	assert.Equal(t, failure.Transport, failure.KindOf(err))
}

func TestSession_CallTool(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider()

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: time.Second})
	require.NoError(t, err)
	defer s.Close()

	payload, err := s.CallTool(ctx, "get_scores", map[string]any{"difficulty": "easy", "limit": 5})
	require.NoError(t, err)
	assert.Contains(t, payload.Text, "Top 5")
	assert.Contains(t, payload.Text, "easy")
	assert.Equal(t, 1, p.Calls("get_scores"))
	assert.Equal(t, mcpsession.StateInitialized, s.State())
}

func TestSession_CallToolErrorResult(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider(testutils.WithToolError("submit_score", "backend unavailable"))

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: time.Second})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CallTool(ctx, "submit_score", map[string]any{
		"player_name": "Jan", "difficulty": "easy", "time_seconds": 120,
	})
	require.Error(t, err)
	assert.Equal(t, failure.Invocation, failure.KindOf(err))
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestSession_ReadResource(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider(testutils.WithStats("Rozegranych gier: 3"))

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: time.Second})
	require.NoError(t, err)
	defer s.Close()

	text, err := s.ReadResource(ctx, "stats://game-stats")
	require.NoError(t, err)
	assert.Equal(t, "Rozegranych gier: 3", text)
}

func TestSession_List(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider()

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: time.Second})
	require.NoError(t, err)
	defer s.Close()

	tools, err := s.ListTools(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_scores", "submit_score", "get_player_progress"}, names)

	resources, err := s.ListResources(ctx)
	require.NoError(t, err)
	uris := make([]string, 0, len(resources))
	for _, r := range resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{"stats://game-stats", "docs://api-docs"}, uris)
}

func TestSession_InvocationTimeout(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider(testutils.WithDelay(2 * time.Second))

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CallTool(ctx, "get_scores", map[string]any{"limit": 1})
	require.Error(t, err)
	assert.Equal(t, failure.Transport, failure.KindOf(err))
	assert.Contains(t, err.Error(), "timed out after 50ms")
}

func TestSession_ClosedRejectsInvocation(t *testing.T) {
	ctx := testutils.TestContext(t)
	p := testutils.NewFakeProvider()

	s, err := mcpsession.Open(ctx, launcherFor(p), mcpsession.Options{Timeout: time.Second})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")
	assert.Equal(t, 1, p.Closes())

	_, err = s.CallTool(ctx, "get_scores", nil)
	require.Error(t, err)
	assert.Equal(t, failure.Transport, failure.KindOf(err))
	assert.Equal(t, 0, p.Calls("get_scores"))
}

func TestUse_ClosesOnEveryPath(t *testing.T) {
	ctx := testutils.TestContext(t)
	opts := mcpsession.Options{Timeout: time.Second}

	t.Run("success", func(t *testing.T) {
		p := testutils.NewFakeProvider()
		text, err := mcpsession.Use(ctx, launcherFor(p), opts, func(ctx context.Context, s *mcpsession.Session) (string, error) {
			return s.ReadResource(ctx, "docs://api-docs")
		})
		require.NoError(t, err)
		assert.Equal(t, testutils.DocsText, text)
		assert.Equal(t, 1, p.Closes())
	})

	t.Run("error", func(t *testing.T) {
		p := testutils.NewFakeProvider()
		_, err := mcpsession.Use(ctx, launcherFor(p), opts, func(context.Context, *mcpsession.Session) (int, error) {
			return 0, failure.New(failure.Validation, "test", "rejected")
		})
		assert.Equal(t, failure.Validation, failure.KindOf(err))
		assert.Equal(t, 1, p.Closes())
	})

	t.Run("panic", func(t *testing.T) {
		p := testutils.NewFakeProvider()
		_, err := mcpsession.Use(ctx, launcherFor(p), opts, func(context.Context, *mcpsession.Session) (int, error) {
			panic("boom")
		})
		require.Error(t, err)
		assert.Equal(t, failure.Internal, failure.KindOf(err))
		assert.Equal(t, 1, p.Closes())
	})

	t.Run("handshake failure", func(t *testing.T) {
		p := testutils.NewFakeProvider(testutils.WithFailingInitialize())
		called := false
		_, err := mcpsession.Use(ctx, launcherFor(p), opts, func(context.Context, *mcpsession.Session) (int, error) {
			called = true
			return 0, nil
		})
		assert.Equal(t, failure.Handshake, failure.KindOf(err))
		assert.False(t, called)
		assert.Equal(t, 1, p.Closes())
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unopened", mcpsession.StateUnopened.String())
	assert.Equal(t, "invoking", mcpsession.StateInvoking.String())
	assert.Equal(t, "closed", mcpsession.StateClosed.String())
}
