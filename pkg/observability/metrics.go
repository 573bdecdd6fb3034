// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for sessions, agents and requests.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	sessionsTotal      *prometheus.CounterVec
	sessionFailures    *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	agentCallsTotal    *prometheus.CounterVec
	agentCallDuration  *prometheus.HistogramVec
	requestsTotal      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "sessions_total",
			Help:      "Protocol sessions opened, by outcome.",
		}, []string{"outcome"}),
		sessionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "session_failures_total",
			Help:      "Protocol session failures, by operation and failure kind.",
		}, []string{"operation", "kind"}),
		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "session_operation_duration_seconds",
			Help:      "Duration of session operations (handshake and invocations).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		agentCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "agent_calls_total",
			Help:      "Agent operations, by agent, operation and status.",
		}, []string{"agent", "operation", "status"}),
		agentCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "agent_call_duration_seconds",
			Help:      "Agent operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent", "operation"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "requests_total",
			Help:      "Orchestrator requests, by intent and response status.",
		}, []string{"intent", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessionsTotal,
		m.sessionFailures,
		m.invocationDuration,
		m.agentCallsTotal,
		m.agentCallDuration,
		m.requestsTotal,
		m.httpRequests,
		m.httpDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSession counts a session open attempt ("opened" or "failed").
func (m *Metrics) RecordSession(outcome string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordSessionFailure counts a failed session operation.
func (m *Metrics) RecordSessionFailure(operation, kind string) {
	if m == nil {
		return
	}
	m.sessionFailures.WithLabelValues(operation, kind).Inc()
}

// ObserveSessionOperation records the duration of a session operation.
func (m *Metrics) ObserveSessionOperation(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.invocationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordAgentCall records one agent operation.
func (m *Metrics) RecordAgentCall(agent, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.agentCallsTotal.WithLabelValues(agent, operation, status).Inc()
	m.agentCallDuration.WithLabelValues(agent, operation).Observe(d.Seconds())
}

// RecordRequest counts one orchestrator response.
func (m *Metrics) RecordRequest(intent, status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(intent, status).Inc()
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, httpCode(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
