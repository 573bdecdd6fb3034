package scoreapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minesweeper-agents/pkg/score"
)

func TestClient_GetScores(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scores", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode([]GameScore{
			{ID: 1, PlayerName: "Anna", Difficulty: "easy", TimeSeconds: 12},
		})
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	scores, err := c.GetScores(t.Context(), score.Easy, 500)
	require.NoError(t, err)

	assert.Equal(t, "difficulty=easy&limit=100", gotQuery)
	require.Len(t, scores, 1)
	assert.Equal(t, "Anna", scores[0].PlayerName)

	_, err = c.GetScores(t.Context(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "limit=1", gotQuery)
}

func TestClient_SubmitScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body NewScore
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, NewScore{PlayerName: "Jan", Difficulty: "easy", TimeSeconds: 120}, body)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(GameScore{ID: 42, PlayerName: body.PlayerName, Difficulty: body.Difficulty, TimeSeconds: body.TimeSeconds})
	}))
	defer srv.Close()

	created, err := New(srv.URL).SubmitScore(t.Context(), NewScore{PlayerName: "Jan", Difficulty: "easy", TimeSeconds: 120})
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)
}

func TestClient_Progress(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress/Jan", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(PlayerProgress{PlayerName: "Jan", EasyCompleted: true, CurrentTexture: "bronze"})
	})
	mux.HandleFunc("/progress/Jan/rewards", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Reward{{Name: "Brązowa tekstura", IsUnlocked: true}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	p, err := c.GetProgress(t.Context(), "Jan")
	require.NoError(t, err)
	assert.True(t, p.EasyCompleted)
	assert.Equal(t, "bronze", p.CurrentTexture)

	rewards, err := c.GetRewards(t.Context(), "Jan")
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.True(t, rewards[0].IsUnlocked)

	_, err = c.GetProgress(t.Context(), "Nobody")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_SingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetScores(t.Context(), "", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "unavailable", apiErr.Body)
	assert.Equal(t, 1, calls)
}
