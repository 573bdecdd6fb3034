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

package stats

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

// Activity buckets the average number of games per player.
type Activity string

const (
	ActivityHigh   Activity = "high"
	ActivityMedium Activity = "medium"
	ActivityLow    Activity = "low"
)

// ClassifyActivity buckets avg into high (>3), medium (>1) or low.
func ClassifyActivity(avg float64) Activity {
	switch {
	case avg > 3:
		return ActivityHigh
	case avg > 1:
		return ActivityMedium
	default:
		return ActivityLow
	}
}

// AvgGamesPerPlayer divides total games by unique players, treating zero
// players as one.
func AvgGamesPerPlayer(p Parsed) float64 {
	return float64(p.TotalGames) / float64(max(p.UniquePlayers, 1))
}

// Periods accepted by reports.
var Periods = []string{"day", "week", "month", "all"}

// ValidPeriod reports whether period is one of Periods.
func ValidPeriod(period string) bool {
	for _, p := range Periods {
		if p == period {
			return true
		}
	}
	return false
}

// Metrics is the structured half of a report.
type Metrics struct {
	TotalGames        int                      `json:"total_games"`
	UniquePlayers     int                      `json:"unique_players"`
	AvgGamesPerPlayer float64                  `json:"avg_games_per_player"`
	BestTimes         map[score.Difficulty]int `json:"best_times"`
	Activity          Activity                 `json:"activity"`
}

// Report is a rendered period summary.
type Report struct {
	Period  string  `json:"period"`
	Text    string  `json:"report"`
	Metrics Metrics `json:"metrics"`
}

// BuildReport derives metrics from p and renders the human-readable text.
func BuildReport(period string, p Parsed) Report {
	avg := AvgGamesPerPlayer(p)
	m := Metrics{
		TotalGames:        p.TotalGames,
		UniquePlayers:     p.UniquePlayers,
		AvgGamesPerPlayer: avg,
		BestTimes:         p.BestTimes,
		Activity:          ClassifyActivity(avg),
	}
	return Report{Period: period, Text: renderReport(period, m), Metrics: m}
}

func renderReport(period string, m Metrics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Report for period: %s\n\n", period)
	sb.WriteString("🎮 Summary:\n")
	fmt.Fprintf(&sb, "- Games played: %d\n", m.TotalGames)
	fmt.Fprintf(&sb, "- Unique players: %d\n", m.UniquePlayers)
	fmt.Fprintf(&sb, "- Games per player: %.1f\n\n", m.AvgGamesPerPlayer)
	sb.WriteString("🏆 Best times:\n")
	for _, d := range score.Difficulties {
		fmt.Fprintf(&sb, "- %s: %s\n", d, bestTime(m.BestTimes, d))
	}
	fmt.Fprintf(&sb, "\n📈 Player activity: %s\n", m.Activity)
	return sb.String()
}

func bestTime(times map[score.Difficulty]int, d score.Difficulty) string {
	if t, ok := times[d]; ok {
		return fmt.Sprintf("%ds", t)
	}
	return "N/A"
}
