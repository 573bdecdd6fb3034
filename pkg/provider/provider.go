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

// Package provider implements the minesweeper capability provider: an MCP
// server whose tools and resources are backed by the scoring API.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kadirpekel/minesweeper-agents/pkg/score"
	"github.com/kadirpekel/minesweeper-agents/pkg/scoreapi"
)

const (
	ServerName = "minesweeper-api"

	StatsURI = "stats://game-stats"
	DocsURI  = "docs://api-docs"

	ToolGetScores         = "get_scores"
	ToolSubmitScore       = "submit_score"
	ToolGetPlayerProgress = "get_player_progress"

	minTimeSeconds = 1
	maxTimeSeconds = 9999
)

// Backend is the part of the scoring API the provider needs.
type Backend interface {
	GetScores(ctx context.Context, difficulty score.Difficulty, limit int) ([]scoreapi.GameScore, error)
	SubmitScore(ctx context.Context, s scoreapi.NewScore) (scoreapi.GameScore, error)
	GetProgress(ctx context.Context, player string) (scoreapi.PlayerProgress, error)
	GetRewards(ctx context.Context, player string) ([]scoreapi.Reward, error)
}

var _ Backend = (*scoreapi.Client)(nil)

type handlers struct {
	backend Backend
}

// New creates the provider server.
func New(backend Backend, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions("Minesweeper scores, player progress and game statistics."),
	)

	h := &handlers{backend: backend}
	registerTools(s, h)
	registerResources(s, h)
	return s
}

func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(mcp.NewTool(ToolGetScores,
		mcp.WithDescription("Get the best minesweeper scores, fastest first"),
		mcp.WithString("difficulty",
			mcp.Description("Difficulty tier (easy, medium, hard); empty for all"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of scores (1-100)"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(scoreapi.MaxLimit),
		),
	), h.getScores)

	s.AddTool(mcp.NewTool(ToolSubmitScore,
		mcp.WithDescription("Submit a new minesweeper score"),
		mcp.WithString("player_name",
			mcp.Required(),
			mcp.Description("Player name (2-50 characters)"),
		),
		mcp.WithString("difficulty",
			mcp.Required(),
			mcp.Description("Difficulty tier"),
			mcp.Enum("easy", "medium", "hard"),
		),
		mcp.WithNumber("time_seconds",
			mcp.Required(),
			mcp.Description("Game time in seconds (1-9999)"),
		),
	), h.submitScore)

	s.AddTool(mcp.NewTool(ToolGetPlayerProgress,
		mcp.WithDescription("Get completed tiers and unlocked rewards of a player"),
		mcp.WithString("player_name",
			mcp.Required(),
			mcp.Description("Player name"),
		),
	), h.getPlayerProgress)
}

func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResource(mcp.NewResource(StatsURI, "Game statistics",
		mcp.WithResourceDescription("Live statistics over the latest 100 scores"),
		mcp.WithMIMEType("text/plain"),
	), h.gameStats)

	s.AddResource(mcp.NewResource(DocsURI, "API documentation",
		mcp.WithResourceDescription("Scoring API reference"),
		mcp.WithMIMEType("text/markdown"),
	), func(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     apiDocs,
		}}, nil
	})
}

func (h *handlers) getScores(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("difficulty", "")
	difficulty, _ := score.ParseDifficulty(raw)
	limit := req.GetInt("limit", 10)

	scores, err := h.backend.GetScores(ctx, difficulty, limit)
	if err != nil {
		slog.Error("Failed to fetch scores", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("❌ Błąd połączenia z API: %v", err)), nil
	}
	return mcp.NewToolResultText(formatScores(scores, difficulty)), nil
}

func (h *handlers) submitScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("player_name", "")
	raw := req.GetString("difficulty", "")
	seconds := req.GetInt("time_seconds", 0)

	if !score.ValidPlayerName(name) {
		return mcp.NewToolResultError("❌ Nazwa gracza musi mieć 2-50 znaków"), nil
	}
	difficulty, ok := score.ParseDifficulty(raw)
	if !ok {
		return mcp.NewToolResultError("❌ Poziom musi być: easy, medium lub hard"), nil
	}
	if seconds < minTimeSeconds || seconds > maxTimeSeconds {
		return mcp.NewToolResultError("❌ Czas musi być w zakresie 1-9999 sekund"), nil
	}

	created, err := h.backend.SubmitScore(ctx, scoreapi.NewScore{
		PlayerName:  name,
		Difficulty:  string(difficulty),
		TimeSeconds: seconds,
	})
	if err != nil {
		slog.Error("Failed to submit score", "player", name, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("❌ Błąd: %v", err)), nil
	}
	return mcp.NewToolResultText(formatSubmitted(name, difficulty, seconds, created.ID)), nil
}

func (h *handlers) getPlayerProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("player_name", "")
	if !score.ValidPlayerName(name) {
		return mcp.NewToolResultError("❌ Nazwa gracza musi mieć 2-50 znaków"), nil
	}

	progress, err := h.backend.GetProgress(ctx, name)
	if err != nil {
		if scoreapi.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("❌ Gracz '%s' nie został znaleziony", name)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("❌ Błąd: %v", err)), nil
	}
	rewards, err := h.backend.GetRewards(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("❌ Błąd: %v", err)), nil
	}
	return mcp.NewToolResultText(formatProgress(name, progress, rewards)), nil
}

func (h *handlers) gameStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	scores, err := h.backend.GetScores(ctx, "", scoreapi.MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scores for statistics: %w", err)
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      req.Params.URI,
		MIMEType: "text/plain",
		Text:     formatStats(scores),
	}}, nil
}
