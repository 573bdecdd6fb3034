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

// Package stats extracts structured metrics from the game statistics text
// published by the capability provider.
//
// The text is produced by a formatter this package does not control, so
// parsing is best effort: every label is matched independently and a value
// that does not convert is skipped with a warning instead of failing the
// whole parse.
package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

// Parsed is the structured view of a statistics text.
type Parsed struct {
	TotalGames    int                      `json:"total_games"`
	UniquePlayers int                      `json:"unique_players"`
	BestTimes     map[score.Difficulty]int `json:"best_times"`
}

// Warning records a line that matched a label but could not be converted.
// It is informational only.
type Warning struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d (%s): %s", w.Line, w.Field, w.Reason)
}

type field int

const (
	fieldTotalGames field = iota
	fieldUniquePlayers
	fieldBestTime
)

// label maps one or more textual markers to a field. Markers are matched as
// substrings, so leading emoji and indentation do not matter.
type label struct {
	field      field
	name       string
	difficulty score.Difficulty
	markers    []string
}

// labels are tried in order; the first matching label claims the line.
var labels = []label{
	{field: fieldTotalGames, name: "total_games", markers: []string{"Rozegranych gier:", "Total games:"}},
	{field: fieldUniquePlayers, name: "unique_players", markers: []string{"Unikalnych graczy:", "Unique players:"}},
	{field: fieldBestTime, name: "best_times.easy", difficulty: score.Easy, markers: []string{"Łatwy:", "Easy:"}},
	{field: fieldBestTime, name: "best_times.medium", difficulty: score.Medium, markers: []string{"Średni:", "Medium:"}},
	{field: fieldBestTime, name: "best_times.hard", difficulty: score.Hard, markers: []string{"Trudny:", "Hard:"}},
}

func (l label) matches(line string) bool {
	for _, m := range l.markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// Parse extracts Parsed from text. It never fails; skipped lines are
// reported as warnings.
func Parse(text string) (Parsed, []Warning) {
	parsed := Parsed{BestTimes: make(map[score.Difficulty]int)}
	var warnings []Warning

	for i, line := range strings.Split(text, "\n") {
		for _, l := range labels {
			if !l.matches(line) {
				continue
			}
			if l.field == fieldBestTime && !strings.Contains(line, "s") {
				// Best-time lines carry a seconds suffix; anything else with
				// the same tier label is a distribution line.
				break
			}

			value, err := extract(line, l.field)
			if err != nil {
				warnings = append(warnings, Warning{
					Line:   i + 1,
					Field:  l.name,
					Text:   strings.TrimSpace(line),
					Reason: err.Error(),
				})
				break
			}

			switch l.field {
			case fieldTotalGames:
				parsed.TotalGames = value
			case fieldUniquePlayers:
				parsed.UniquePlayers = value
			case fieldBestTime:
				parsed.BestTimes[l.difficulty] = value
			}
			break
		}
	}

	return parsed, warnings
}

// extract converts the value part of a labelled line.
//
// Counts take the text after the first colon; best times take the text after
// the last colon with the seconds suffix removed.
func extract(line string, f field) (int, error) {
	var raw string
	switch f {
	case fieldBestTime:
		raw = line[strings.LastIndex(line, ":")+1:]
		raw = strings.ReplaceAll(strings.TrimSpace(raw), "s", "")
	default:
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 2 {
			return 0, fmt.Errorf("no value after label")
		}
		raw = parts[1]
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", strings.TrimSpace(raw))
	}
	return value, nil
}
