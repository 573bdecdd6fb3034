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

// Package agent implements the domain agents. Each agent operation opens
// exactly one protocol session, performs its work and releases the session.
//
// Errors returned by agents are always *failure.Error values.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
)

// Agent is the part every domain agent shares.
type Agent interface {
	Name() string

	// HealthCheck probes the provider with the agent's cheapest
	// introspection call. It never returns an error; failures are reported
	// in the Health value.
	HealthCheck(ctx context.Context) Health
}

// Status is a health status.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusError    Status = "error"
)

// Health is the result of one agent health probe.
type Health struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`

	// Count is the number of tools or resources seen by the probe.
	Count int `json:"count,omitempty"`
}

// Deps are the dependencies shared by all agents.
type Deps struct {
	Launcher mcpsession.Launcher
	Session  mcpsession.Options
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// base runs agent operations inside scoped sessions.
type base struct {
	name     string
	launcher mcpsession.Launcher
	opts     mcpsession.Options
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func newBase(name string, deps Deps, require ...mcpsession.Capability) base {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := deps.Session
	opts.Require = append(append([]mcpsession.Capability(nil), opts.Require...), require...)
	if opts.Metrics == nil {
		opts.Metrics = deps.Metrics
	}
	return base{
		name:     name,
		launcher: deps.Launcher,
		opts:     opts,
		metrics:  deps.Metrics,
		logger:   logger.With("agent", name),
	}
}

func (b *base) Name() string {
	return b.name
}

// run executes fn inside a fresh session and records the outcome.
func run[T any](ctx context.Context, b *base, op string, fn func(context.Context, *mcpsession.Session) (T, error)) (T, error) {
	start := time.Now()
	b.logger.Debug("Agent call", "operation", op)

	var (
		result T
		err    error
	)
	if b.launcher == nil {
		err = failure.New(failure.Transport, op, "no provider configured")
	} else {
		result, err = mcpsession.Use(ctx, b.launcher, b.opts, fn)
	}

	status := "success"
	if err != nil {
		err = failure.Wrap(failure.Internal, op, err)
		status = string(failure.KindOf(err))
		b.logger.Error("Agent call failed", "operation", op, "error", err)
	}
	b.metrics.RecordAgentCall(b.name, op, status, time.Since(start))
	return result, err
}

// probe converts an introspection outcome into a Health value.
func probe(count int, err error) Health {
	if err != nil {
		return Health{Status: StatusError, Detail: failure.Message(err)}
	}
	return Health{Status: StatusOK, Count: count}
}

// IsNotImplemented reports whether err marks an unavailable operation.
func IsNotImplemented(err error) bool {
	return errors.Is(err, &failure.Error{Kind: failure.NotImplemented})
}
