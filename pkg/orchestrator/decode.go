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

package orchestrator

import (
	"strconv"
	"strings"

	"github.com/kadirpekel/minesweeper-agents/pkg/agent"
	"github.com/kadirpekel/minesweeper-agents/pkg/failure"
	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

// Request text decoding is best effort: it mirrors the loose format users
// type ("Pokaż top 5 wyników easy", "Dodaj wynik Jan, easy, 120s") and
// falls back to defaults instead of rejecting what it cannot read.

// ScoresQuery holds the parameters of a score lookup.
type ScoresQuery struct {
	Difficulty score.Difficulty `json:"difficulty,omitempty"`
	Limit      int              `json:"limit"`
}

// DecodeScoresQuery extracts the difficulty (first of easy, medium, hard
// mentioned, in that order of preference) and the limit (first token made
// only of digits, default 10).
func DecodeScoresQuery(request string) ScoresQuery {
	q := ScoresQuery{Limit: agent.DefaultLimit}

	lower := strings.ToLower(request)
	for _, d := range score.Difficulties {
		if strings.Contains(lower, string(d)) {
			q.Difficulty = d
			break
		}
	}

	for _, tok := range strings.Fields(request) {
		if !allDigits(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			// Too large for an int; the agent clamps to its maximum anyway.
			n = agent.MaxLimit
		}
		q.Limit = n
		break
	}
	return q
}

// DecodeSubmission reads "<words> <name>, <difficulty>, <time>" where the
// name is the last word of the first segment and the time is every digit
// of the third segment.
func DecodeSubmission(request string) (score.Submission, error) {
	parts := strings.Split(request, ",")
	if len(parts) < 3 {
		return score.Submission{}, failure.New(failure.Format, "decode_submission", submitUsage)
	}

	words := strings.Fields(parts[0])
	if len(words) == 0 {
		return score.Submission{}, failure.New(failure.Format, "decode_submission", "missing player name")
	}
	name := words[len(words)-1]

	raw := strings.TrimSpace(parts[1])
	difficulty, ok := score.ParseDifficulty(raw)
	if !ok {
		difficulty = score.Difficulty(raw)
	}

	digits := digitsOf(parts[2])
	if digits == "" {
		return score.Submission{}, failure.New(failure.Format, "decode_submission", "missing time in seconds")
	}
	seconds, err := strconv.Atoi(digits)
	if err != nil {
		return score.Submission{}, failure.Wrapf(failure.Format, "decode_submission", err, "invalid time %q", digits)
	}

	return score.Submission{
		PlayerName:  name,
		Difficulty:  difficulty,
		TimeSeconds: seconds,
	}, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
