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

package agent

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

const (
	GameAgentName = "game"

	DefaultLimit = 10
	MaxLimit     = 100
)

// GameAgent reads and writes scores through the provider's tools.
type GameAgent struct {
	base
}

func NewGameAgent(deps Deps) *GameAgent {
	return &GameAgent{base: newBase(GameAgentName, deps, mcpsession.CapabilityTools)}
}

// GetScores returns the provider's formatted score list unmodified.
// An unknown difficulty means all tiers; limit is clamped to 1..100.
func (a *GameAgent) GetScores(ctx context.Context, difficulty score.Difficulty, limit int) (string, error) {
	if !difficulty.Known() {
		difficulty = ""
	}
	args := map[string]any{
		"difficulty": string(difficulty),
		"limit":      clampLimit(limit),
	}
	return run(ctx, &a.base, "get_scores", func(ctx context.Context, s *mcpsession.Session) (string, error) {
		p, err := s.CallTool(ctx, "get_scores", args)
		return p.Text, err
	})
}

// SubmitScore forwards a submission that passes the plausibility check.
// A rejected submission is logged as suspicious and fails with Validation
// before any session is opened.
func (a *GameAgent) SubmitScore(ctx context.Context, sub score.Submission) (string, error) {
	if !sub.Plausible() {
		a.metrics.RecordAgentCall(a.name, "submit_score", string(failure.Validation), 0)
		return "", failure.New(failure.Validation, "submit_score", sub.Rejection())
	}

	args := map[string]any{
		"player_name":  sub.PlayerName,
		"difficulty":   string(sub.Difficulty),
		"time_seconds": sub.TimeSeconds,
	}
	return run(ctx, &a.base, "submit_score", func(ctx context.Context, s *mcpsession.Session) (string, error) {
		p, err := s.CallTool(ctx, "submit_score", args)
		return p.Text, err
	})
}

// GetPlayerProgress returns the provider's progress text for player.
func (a *GameAgent) GetPlayerProgress(ctx context.Context, player string) (string, error) {
	if !score.ValidPlayerName(player) {
		return "", failure.New(failure.Format, "get_player_progress",
			fmt.Sprintf("player name must be %d-%d characters", score.MinPlayerNameLen, score.MaxPlayerNameLen))
	}
	return run(ctx, &a.base, "get_player_progress", func(ctx context.Context, s *mcpsession.Session) (string, error) {
		p, err := s.CallTool(ctx, "get_player_progress", map[string]any{"player_name": player})
		return p.Text, err
	})
}

// HealthCheck lists the provider's tools.
func (a *GameAgent) HealthCheck(ctx context.Context) Health {
	tools, err := run(ctx, &a.base, "health_check", func(ctx context.Context, s *mcpsession.Session) ([]mcpsession.Descriptor, error) {
		return s.ListTools(ctx)
	})
	return probe(len(tools), err)
}

func clampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
