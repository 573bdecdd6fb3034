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

package provider

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/minesweeper-agents/pkg/score"
	"github.com/kadirpekel/minesweeper-agents/pkg/scoreapi"
)

func formatScores(scores []scoreapi.GameScore, difficulty score.Difficulty) string {
	if len(scores) == 0 {
		return "📊 Brak wyników - nikt jeszcze nie zagrał!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Top %d wyników", len(scores))
	if difficulty.Known() {
		fmt.Fprintf(&b, " (%s)", difficulty)
	}
	b.WriteString(":\n\n")
	for i, s := range scores {
		fmt.Fprintf(&b, "%d. %s - %ds (%s)\n", i+1, s.PlayerName, s.TimeSeconds, s.Difficulty)
	}
	return b.String()
}

func formatSubmitted(name string, difficulty score.Difficulty, seconds, id int) string {
	ref := "N/A"
	if id > 0 {
		ref = fmt.Sprint(id)
	}
	return fmt.Sprintf("✅ Wynik zapisany!\n🎮 %s: %ds (%s)\n📊 ID: %s", name, seconds, difficulty, ref)
}

func formatProgress(name string, p scoreapi.PlayerProgress, rewards []scoreapi.Reward) string {
	mark := func(done bool) string {
		if done {
			return "✅"
		}
		return "❌"
	}
	texture := p.CurrentTexture
	if texture == "" {
		texture = "brak"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Postęp gracza: %s\n\n", name)
	b.WriteString("📈 Ukończone poziomy:\n")
	fmt.Fprintf(&b, "  🟢 Łatwy: %s\n", mark(p.EasyCompleted))
	fmt.Fprintf(&b, "  🟡 Średni: %s\n", mark(p.MediumCompleted))
	fmt.Fprintf(&b, "  🔴 Trudny: %s\n\n", mark(p.HardCompleted))
	fmt.Fprintf(&b, "🎨 Aktualna tekstura: %s\n\n", texture)
	b.WriteString("🏆 Odblokowane nagrody:\n")
	for _, r := range rewards {
		status := "🔒"
		if r.IsUnlocked {
			status = "🔓"
		}
		rewardName := r.Name
		if rewardName == "" {
			rewardName = "Nieznana"
		}
		fmt.Fprintf(&b, "  %s %s\n", status, rewardName)
	}
	return b.String()
}

// formatStats renders the statistics text consumed by the stats parser.
// Best times are only printed for tiers that have games.
func formatStats(scores []scoreapi.GameScore) string {
	if len(scores) == 0 {
		return "📊 Brak danych - nie ma jeszcze żadnych wyników"
	}

	total := len(scores)
	players := make(map[string]struct{})
	games := make(map[score.Difficulty]int)
	best := make(map[score.Difficulty]int)
	for _, s := range scores {
		players[s.PlayerName] = struct{}{}
		d := score.Difficulty(s.Difficulty)
		games[d]++
		if cur, ok := best[d]; !ok || s.TimeSeconds < cur {
			best[d] = s.TimeSeconds
		}
	}

	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }

	var b strings.Builder
	b.WriteString("📊 Statystyki gry Saper\n\n")
	fmt.Fprintf(&b, "🎮 Rozegranych gier: %d\n", total)
	fmt.Fprintf(&b, "👥 Unikalnych graczy: %d\n\n", len(players))

	b.WriteString("📈 Gry według poziomu:\n")
	for _, t := range tiers {
		fmt.Fprintf(&b, "  %s %-7s %d (%.1f%%)\n", t.icon, t.label+":", games[t.difficulty], pct(games[t.difficulty]))
	}

	b.WriteString("\n🏆 Najlepsze czasy:\n")
	for _, t := range tiers {
		if v, ok := best[t.difficulty]; ok {
			fmt.Fprintf(&b, "  %s %-7s %ds\n", t.icon, t.label+":", v)
		}
	}

	fmt.Fprintf(&b, "\n📊 Średnia gier na gracza: %.1f\n", float64(total)/float64(len(players)))
	return b.String()
}

var tiers = []struct {
	difficulty score.Difficulty
	icon       string
	label      string
}{
	{score.Easy, "🟢", "Łatwy"},
	{score.Medium, "🟡", "Średni"},
	{score.Hard, "🔴", "Trudny"},
}

const apiDocs = `# 🎮 MinesweeperAPI Documentation

## 🎯 Endpoints

### 🏆 Scores (Wyniki)
GET  /api/scores?difficulty={easy|medium|hard}&limit={1-100}
POST /api/scores
     Content-Type: application/json
     {
       "playerName": "string (2-50 chars)",
       "difficulty": "easy|medium|hard",
       "timeSeconds": number (1-9999)
     }

### 🎯 Progress (Postęp)
GET /api/progress/{playerName}
GET /api/progress/{playerName}/rewards

## 🎮 Poziomy trudności

| Poziom | Rozmiar | Miny | Limit czasu |
|--------|---------|------|-------------|
| easy   | 9x9     | 10   | 10 min      |
| medium | 16x16   | 40   | 40 min      |
| hard   | 16x30   | 99   | 99 min      |

## 🏆 System nagród

- 🥉 Brązowa tekstura: Ukończ poziom łatwy
- 🥈 Srebrna tekstura: Ukończ poziom średni
- 🥇 Złota tekstura: Ukończ poziom trudny

Aktywna tekstura to najwyższa odblokowana.
`
