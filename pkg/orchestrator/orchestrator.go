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

// Package orchestrator classifies free-text requests and routes them to the
// game and data agents.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/config"
	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/observability"
	"github.com/kadirpekel/minesweeper-agents/pkg/registry"
	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

// Composite slot names.
const (
	SlotScores    = "scores"
	SlotAnalytics = "analytics"

	compositeLimit = 5
)

// GameService is what the orchestrator needs from the game agent.
type GameService interface {
	agent.Agent
	GetScores(ctx context.Context, difficulty score.Difficulty, limit int) (string, error)
	SubmitScore(ctx context.Context, sub score.Submission) (string, error)
}

// DataService is what the orchestrator needs from the data agent.
type DataService interface {
	agent.Agent
	Analyze(ctx context.Context) (agent.Analysis, error)
}

// Agents are the members an orchestrator routes to. Protocol is optional
// and only takes part in health checks.
type Agents struct {
	Game     GameService
	Data     DataService
	Protocol agent.Agent
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRequestIDs replaces the request id generator.
func WithRequestIDs(next func() string) Option {
	return func(o *Orchestrator) { o.newID = next }
}

// Orchestrator routes requests to agents. It is safe for concurrent use;
// every agent call opens its own provider session.
type Orchestrator struct {
	cfg     config.OrchestratorConfig
	game    GameService
	data    DataService
	members *registry.OrderedRegistry[agent.Agent]
	metrics *observability.Metrics
	logger  *slog.Logger
	newID   func() string
}

func New(cfg config.OrchestratorConfig, agents Agents, opts ...Option) (*Orchestrator, error) {
	if agents.Game == nil || agents.Data == nil {
		return nil, fmt.Errorf("orchestrator requires game and data agents")
	}
	if cfg.MaxConcurrentAgents < 1 {
		cfg.MaxConcurrentAgents = config.DefaultMaxConcurrentAgents
	}

	o := &Orchestrator{
		cfg:     cfg,
		game:    agents.Game,
		data:    agents.Data,
		members: registry.New[agent.Agent](),
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "orchestrator")

	members := []agent.Agent{agents.Game, agents.Data}
	if agents.Protocol != nil {
		members = append(members, agents.Protocol)
	}
	for _, m := range members {
		if err := o.members.Register(m.Name(), m); err != nil {
			return nil, fmt.Errorf("failed to register agent: %w", err)
		}
	}
	return o, nil
}

// Members returns the registered agent names in registration order.
func (o *Orchestrator) Members() []string {
	return o.members.Names()
}

// Process handles one request. It never returns an error; failures are
// described by the response.
func (o *Orchestrator) Process(ctx context.Context, request string) (resp Response) {
	start := time.Now()
	id := o.newID()
	intent := Classify(request)
	log := o.logger.With("request_id", id, "intent", string(intent))
	log.Info("Processing request")

	defer func() {
		if r := recover(); r != nil {
			err := failure.New(failure.Internal, "process", fmt.Sprintf("panic: %v", r))
			log.Error("Request panicked", "error", err)
			resp = failed("", err, "")
		}
		resp.RequestID = id
		resp.Intent = intent
		o.metrics.RecordRequest(string(intent), string(resp.Status))
		if resp.Status == StatusError {
			log.Warn("Request failed", "error", resp.Error, "kind", string(resp.ErrorKind), "duration", time.Since(start))
			return
		}
		log.Info("Request completed", "status", string(resp.Status), "duration", time.Since(start))
	}()

	return o.dispatch(ctx, intent, request)
}

func (o *Orchestrator) dispatch(ctx context.Context, intent Intent, request string) Response {
	switch intent {
	case IntentGetScores:
		return o.getScores(ctx, request)
	case IntentSubmitScore:
		return o.submitScore(ctx, request)
	case IntentAnalytics:
		analysis, err := o.data.Analyze(ctx)
		return respond(o.data.Name(), analysis, err)
	case IntentComposite:
		return o.composite(ctx)
	default:
		err := failure.New(failure.UnknownIntent, "process", "Unknown request type")
		return failed("", err, unknownSuggestion)
	}
}

func (o *Orchestrator) getScores(ctx context.Context, request string) Response {
	q := DecodeScoresQuery(request)
	text, err := o.game.GetScores(ctx, q.Difficulty, q.Limit)
	if err != nil {
		return failed(o.game.Name(), err, "")
	}
	return respond(o.game.Name(), ScoresResult{Query: q, Text: text}, nil)
}

func (o *Orchestrator) submitScore(ctx context.Context, request string) Response {
	sub, err := DecodeSubmission(request)
	if err != nil {
		return failed(o.game.Name(), err, "")
	}
	text, err := o.game.SubmitScore(ctx, sub)
	if err != nil {
		return failed(o.game.Name(), err, "")
	}
	return respond(o.game.Name(), SubmitResult{
		PlayerName:  sub.PlayerName,
		Difficulty:  string(sub.Difficulty),
		TimeSeconds: sub.TimeSeconds,
		Message:     text,
	}, nil)
}

// composite fetches the top scores and the analysis concurrently. Each slot
// settles on its own, so the response is a success even when both fail.
// The slots always run side by side, even when max_concurrent_agents is
// lower than their count.
func (o *Orchestrator) composite(ctx context.Context) Response {
	tasks := []Task[any]{
		{Name: SlotScores, Run: func(ctx context.Context) (any, error) {
			text, err := o.game.GetScores(ctx, "", compositeLimit)
			if err != nil {
				return nil, err
			}
			return ScoresResult{Query: ScoresQuery{Limit: compositeLimit}, Text: text}, nil
		}},
		{Name: SlotAnalytics, Run: func(ctx context.Context) (any, error) {
			analysis, err := o.data.Analyze(ctx)
			if err != nil {
				return nil, err
			}
			return analysis, nil
		}},
	}
	outcomes := Settle(ctx, max(o.cfg.MaxConcurrentAgents, len(tasks)), tasks...)

	agents := map[string]string{SlotScores: o.game.Name(), SlotAnalytics: o.data.Name()}
	result := make(CompositeResult, len(outcomes))
	for _, out := range outcomes {
		result[out.Name] = slotOf(agents[out.Name], out.Value, out.Err)
	}
	return Response{Status: StatusSuccess, Data: result}
}
