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

// Package scoreapi is a client for the minesweeper scoring backend.
package scoreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

// MaxLimit is the largest page the backend serves.
const MaxLimit = 100

type Client struct {
	client  *http.Client
	baseURL string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:5022/api". Each call makes exactly one request.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetScores returns the best scores, fastest first. An empty difficulty
// means all tiers; limit is clamped to 1..MaxLimit.
func (c *Client) GetScores(ctx context.Context, difficulty score.Difficulty, limit int) ([]GameScore, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	if difficulty.Known() {
		q.Set("difficulty", string(difficulty))
	}

	var scores []GameScore
	if err := c.do(ctx, http.MethodGet, "/scores?"+q.Encode(), nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// SubmitScore stores a new score and returns it with its assigned id.
func (c *Client) SubmitScore(ctx context.Context, s NewScore) (GameScore, error) {
	var created GameScore
	if err := c.do(ctx, http.MethodPost, "/scores", s, &created); err != nil {
		return GameScore{}, err
	}
	return created, nil
}

// GetProgress returns the completion state of a player.
func (c *Client) GetProgress(ctx context.Context, player string) (PlayerProgress, error) {
	var p PlayerProgress
	if err := c.do(ctx, http.MethodGet, "/progress/"+url.PathEscape(player), nil, &p); err != nil {
		return PlayerProgress{}, err
	}
	return p, nil
}

// GetRewards returns every reward with its unlock state for a player.
func (c *Client) GetRewards(ctx context.Context, player string) ([]Reward, error) {
	var rewards []Reward
	if err := c.do(ctx, http.MethodGet, "/progress/"+url.PathEscape(player)+"/rewards", nil, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
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
