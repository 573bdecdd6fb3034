package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
	"github.com/kadirpekel/minesweeper-agents/pkg/orchestrator"
	"github.com/kadirpekel/minesweeper-agents/pkg/testutils"
)

type stubProcessor struct {
	resp     orchestrator.Response
	snapshot orchestrator.HealthSnapshot
	got      string
}

func (p *stubProcessor) Process(_ context.Context, request string) orchestrator.Response {
	p.got = request
	return p.resp
}

func (p *stubProcessor) HealthCheck(context.Context) orchestrator.HealthSnapshot {
	return p.snapshot
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHandleRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		resp orchestrator.Response
		want int
	}{
		{"success", orchestrator.Response{Status: orchestrator.StatusSuccess}, http.StatusOK},
		{"not implemented", orchestrator.Response{Status: orchestrator.StatusNotImplemented, ErrorKind: failure.NotImplemented}, http.StatusNotImplemented},
		{"validation", orchestrator.Response{Status: orchestrator.StatusError, ErrorKind: failure.Validation}, http.StatusUnprocessableEntity},
		{"unknown intent", orchestrator.Response{Status: orchestrator.StatusError, ErrorKind: failure.UnknownIntent}, http.StatusUnprocessableEntity},
		{"transport", orchestrator.Response{Status: orchestrator.StatusError, ErrorKind: failure.Transport}, http.StatusBadGateway},
		{"internal", orchestrator.Response{Status: orchestrator.StatusError, ErrorKind: failure.Internal}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &stubProcessor{resp: tt.resp}
			h := NewHTTPServer(config.ServerConfig{}, proc).Handler()

			rec := do(t, h, http.MethodPost, "/v1/requests", `{"request":"Pokaż wyniki"}`)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "Pokaż wyniki", proc.got)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandleRequest_BadBody(t *testing.T) {
	proc := &stubProcessor{}
	h := NewHTTPServer(config.ServerConfig{}, proc).Handler()

	for _, body := range []string{"", "not json", `{"request":"  "}`, `{"prompt":"x"}`} {
		rec := do(t, h, http.MethodPost, "/v1/requests", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
	assert.Empty(t, proc.got, "invalid bodies never reach the orchestrator")
}

func TestHandleHealth_DegradedIs503(t *testing.T) {
	proc := &stubProcessor{snapshot: orchestrator.HealthSnapshot{
		Status: agent.StatusDegraded,
		Agents: map[string]agent.Health{"data": {Status: agent.StatusError, Detail: "down"}},
	}}
	h := NewHTTPServer(config.ServerConfig{}, proc).Handler()

	rec := do(t, h, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var got orchestrator.HealthSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, agent.StatusDegraded, got.Status)
	assert.Equal(t, "down", got.Agents["data"].Detail)

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "liveness does not probe agents")
}

func TestServer_EndToEnd(t *testing.T) {
	p := testutils.NewFakeProvider()
	deps := agent.Deps{
		Launcher: mcpsession.LauncherFunc(p.Launch),
		Session:  mcpsession.Options{Timeout: 2 * time.Second},
	}
	obs := observability.NewManager(observability.Config{
		Metrics: observability.MetricsConfig{Enabled: true, Namespace: "e2e"},
	})
	require.NoError(t, obs.Initialize(testutils.TestContext(t), io.Discard))
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	orch, err := orchestrator.New(config.Default().Orchestrator, orchestrator.Agents{
		Game: agent.NewGameAgent(deps),
		Data: agent.NewDataAgent(deps),
	}, orchestrator.WithMetrics(obs.Metrics()))
	require.NoError(t, err)

	h := NewHTTPServer(config.ServerConfig{}, orch, WithObservability(obs), WithVersion("1.2.3")).Handler()

	rec := do(t, h, http.MethodPost, "/v1/requests", `{"request":"Pokaż top 5 wyników easy"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "get_scores", body["intent"])
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["request_id"])

	rec = do(t, h, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `e2e_http_requests_total{code="2xx",method="POST",route="/v1/requests"} 1`)
	assert.Contains(t, rec.Body.String(), `e2e_requests_total{intent="get_scores",status="success"} 1`)
}

func TestServer_NoMetricsRouteWithoutObservability(t *testing.T) {
	h := NewHTTPServer(config.ServerConfig{}, &stubProcessor{}).Handler()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)
}
