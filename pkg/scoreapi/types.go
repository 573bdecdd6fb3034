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

package scoreapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// GameScore is a stored score.
type GameScore struct {
	ID          int       `json:"id"`
	PlayerName  string    `json:"playerName"`
	Difficulty  string    `json:"difficulty"`
	TimeSeconds int       `json:"timeSeconds"`
	PlayedAt    time.Time `json:"playedAt"`
}

// NewScore is the body of a score submission.
type NewScore struct {
	PlayerName  string `json:"playerName"`
	Difficulty  string `json:"difficulty"`
	TimeSeconds int    `json:"timeSeconds"`
}

// PlayerProgress tracks which tiers a player has completed.
type PlayerProgress struct {
	ID              int    `json:"id"`
	PlayerName      string `json:"playerName"`
	EasyCompleted   bool   `json:"easyCompleted"`
	MediumCompleted bool   `json:"mediumCompleted"`
	HardCompleted   bool   `json:"hardCompleted"`

	// CurrentTexture is one of default, bronze, silver, gold.
	CurrentTexture string `json:"currentTexture"`
}

// Reward is a texture unlocked by completing a tier.
type Reward struct {
	Name               string `json:"name"`
	Texture            string `json:"texture"`
	RequiredDifficulty string `json:"requiredDifficulty"`
	IsUnlocked         bool   `json:"isUnlocked"`
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d from %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
	}
	return fmt.Sprintf("HTTP %d from %s %s", e.StatusCode, e.Method, e.Path)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
