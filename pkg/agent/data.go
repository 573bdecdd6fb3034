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
	"strings"

	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/mcpsession"
	"github.com/kadirpekel/minesweeper-agents/pkg/stats"
)

const (
	DataAgentName = "data"

	StatsURI = "stats://game-stats"
	DocsURI  = "docs://api-docs"

	DefaultPeriod = "week"
)

// Analysis is the raw statistics text and what could be parsed from it.
type Analysis struct {
	Raw      string          `json:"raw_stats"`
	Parsed   stats.Parsed    `json:"parsed"`
	Warnings []stats.Warning `json:"warnings,omitempty"`
}

// DataAgent analyses game statistics from the provider's resources.
type DataAgent struct {
	base
}

func NewDataAgent(deps Deps) *DataAgent {
	return &DataAgent{base: newBase(DataAgentName, deps, mcpsession.CapabilityResources)}
}

// Analyze reads the statistics resource and parses it. Lines that cannot be
// parsed are reported as warnings and never fail the call.
func (a *DataAgent) Analyze(ctx context.Context) (Analysis, error) {
	raw, err := run(ctx, &a.base, "analyze", func(ctx context.Context, s *mcpsession.Session) (string, error) {
		return s.ReadResource(ctx, StatsURI)
	})
	if err != nil {
		return Analysis{}, err
	}

	parsed, warnings := stats.Parse(raw)
	for _, w := range warnings {
		a.logger.Warn("Partial stats parse", "warning", w.String())
	}
	return Analysis{Raw: raw, Parsed: parsed, Warnings: warnings}, nil
}

// GenerateReport analyses the statistics and renders a report for period.
// An empty period defaults to a week.
func (a *DataAgent) GenerateReport(ctx context.Context, period string) (stats.Report, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = DefaultPeriod
	}
	if !stats.ValidPeriod(period) {
		return stats.Report{}, failure.New(failure.Format, "generate_report",
			fmt.Sprintf("unknown period %q (valid: %s)", period, strings.Join(stats.Periods, ", ")))
	}

	analysis, err := a.Analyze(ctx)
	if err != nil {
		return stats.Report{}, err
	}
	return stats.BuildReport(period, analysis.Parsed), nil
}

// ComparePlayers is not available yet.
func (a *DataAgent) ComparePlayers(_ context.Context, player1, player2 string) (string, error) {
	a.logger.Info("Comparing players", "player1", player1, "player2", player2)
	a.metrics.RecordAgentCall(a.name, "compare_players", string(failure.NotImplemented), 0)
	return "", failure.New(failure.NotImplemented, "compare_players", "player comparison coming soon")
}

// APIDocs returns the provider's API documentation verbatim.
func (a *DataAgent) APIDocs(ctx context.Context) (string, error) {
	return run(ctx, &a.base, "api_docs", func(ctx context.Context, s *mcpsession.Session) (string, error) {
		return s.ReadResource(ctx, DocsURI)
	})
}

// HealthCheck lists the provider's resources.
func (a *DataAgent) HealthCheck(ctx context.Context) Health {
	resources, err := run(ctx, &a.base, "health_check", func(ctx context.Context, s *mcpsession.Session) ([]mcpsession.Descriptor, error) {
		return s.ListResources(ctx)
	})
	return probe(len(resources), err)
}
