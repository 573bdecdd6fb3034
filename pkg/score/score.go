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

// Package score holds the minesweeper score model and the anti-cheat
// plausibility rule applied before a submission leaves this process.
package score

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Difficulty is a game tier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the known tiers in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty normalises s to a known tier.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Known()
}

// Known reports whether d is one of the three tiers.
func (d Difficulty) Known() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

func (d Difficulty) String() string { return string(d) }

// Bounds is an inclusive range of plausible completion times in seconds.
type Bounds struct {
	Min int
	Max int
}

// Contains reports whether t lies within b.
func (b Bounds) Contains(t int) bool {
	return b.Min <= t && t <= b.Max
}

var tierBounds = map[Difficulty]Bounds{
	Easy:   {Min: 10, Max: 600},
	Medium: {Min: 30, Max: 2400},
	Hard:   {Min: 60, Max: 5940},
}

// fallbackBounds apply to difficulties outside the known tiers.
var fallbackBounds = Bounds{Min: 0, Max: 10000}

// BoundsFor returns the plausible time range for d.
func BoundsFor(d Difficulty) Bounds {
	if b, ok := tierBounds[d]; ok {
		return b
	}
	return fallbackBounds
}

// IsPlausible reports whether a completion time is realistic for the tier.
// It never mutates or persists anything.
func IsPlausible(timeSeconds int, d Difficulty) bool {
	b := BoundsFor(d)
	ok := b.Contains(timeSeconds)
	if !ok {
		slog.Warn("Suspicious score",
			"time_seconds", timeSeconds,
			"difficulty", d,
			"min", b.Min,
			"max", b.Max)
	}
	return ok
}

// Player name limits accepted by the backend.
const (
	MinPlayerNameLen = 2
	MaxPlayerNameLen = 50
)

// Submission is a score about to be recorded.
type Submission struct {
	PlayerName  string     `json:"player_name"`
	Difficulty  Difficulty `json:"difficulty"`
	TimeSeconds int        `json:"time_seconds"`
}

// Plausible applies IsPlausible to the submission.
func (s Submission) Plausible() bool {
	return IsPlausible(s.TimeSeconds, s.Difficulty)
}

// Rejection explains why s is implausible, or returns "" when it is not.
func (s Submission) Rejection() string {
	b := BoundsFor(s.Difficulty)
	if b.Contains(s.TimeSeconds) {
		return ""
	}
	if s.TimeSeconds < b.Min {
		return fmt.Sprintf("invalid score: %ds is below the %ds minimum for %s", s.TimeSeconds, b.Min, s.Difficulty)
	}
	return fmt.Sprintf("invalid score: %ds exceeds the %ds maximum for %s", s.TimeSeconds, b.Max, s.Difficulty)
}

// ValidPlayerName reports whether name fits the backend's length limits.
func ValidPlayerName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinPlayerNameLen && n <= MaxPlayerNameLen
}
