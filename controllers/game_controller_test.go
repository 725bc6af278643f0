package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"football-backend/games"
	"football-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGameCache struct {
	games     map[int]*games.Snapshot
	latest    *games.Snapshot
	ranks     map[[2]int]int
	err       error
	gotNumber *int
}

func (f *fakeGameCache) GetGame(_ context.Context, number *int) (*games.Snapshot, error) {
	f.gotNumber = number
	if f.err != nil {
		return nil, f.err
	}
	if number == nil {
		return f.latest, nil
	}
	return f.games[*number], nil
}

func (f *fakeGameCache) GetRank(_ context.Context, number, playerID int) (*int, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.ranks[[2]int{number, playerID}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

type fakeDirectory struct {
	leagues []int
	query   string
	players []models.AutocompletePlayer
}

func (f *fakeDirectory) Autocomplete(_ context.Context, leagueIDs []int, query string) ([]models.AutocompletePlayer, error) {
	f.leagues, f.query = leagueIDs, query
	return f.players, nil
}

type fakeCountdown struct{ at *time.Time }

func (f fakeCountdown) NextActivation(context.Context) (*time.Time, error) { return f.at, nil }

func newGameApp(cache GameCache, dir PlayerDirectory, cd Countdown) *fiber.App {
	gc := NewGameController(cache, dir, cd, discardLogger())
	app := fiber.New()
	app.Get("/api/game", gc.GetGame)
	app.Post("/api/check-rank", gc.CheckRank)
	app.Get("/api/players", gc.GetPlayers)
	app.Get("/api/next-game", gc.GetNextGame)
	return app
}

func readBody(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestGetGame(t *testing.T) {
	hint := "Left footed"
	cache := &fakeGameCache{
		games: map[int]*games.Snapshot{
			3: {ID: 30, MaxRank: 120, Hint: &hint, Players: json.RawMessage(`[{"id":1,"name":"x"}]`), GameNumber: 3, MaxGameNumber: 7},
		},
		latest: &games.Snapshot{ID: 70, MaxRank: 99, Players: json.RawMessage(`[]`), GameNumber: 7, MaxGameNumber: 7},
	}
	app := newGameApp(cache, &fakeDirectory{}, fakeCountdown{})

	t.Run("by number", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/game?game_number=3", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.JSONEq(t,
			`{"max_rank":120,"hint":"Left footed","players":[{"id":1,"name":"x"}],"game_number":3,"max_game_number":7}`,
			readBody(t, resp.Body))
	})

	t.Run("latest", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/game", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Nil(t, cache.gotNumber)
		assert.Contains(t, readBody(t, resp.Body), `"game_number":7`)
	})

	t.Run("zero means latest", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/game?game_number=0", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Nil(t, cache.gotNumber)
	})

	t.Run("unknown number", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/game?game_number=999", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad number", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/game?game_number=abc", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetGameStorageFailure(t *testing.T) {
	app := newGameApp(&fakeGameCache{err: errors.New("db down")}, &fakeDirectory{}, fakeCountdown{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/game", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp.Body), "db down")
}

func TestCheckRank(t *testing.T) {
	cache := &fakeGameCache{ranks: map[[2]int]int{{5, 10}: 42}}
	app := newGameApp(cache, &fakeDirectory{}, fakeCountdown{})

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"ranked", `{"game_number":5,"player_id":10}`, fiber.StatusOK, "42"},
		{"legacy field name", `{"game_id":5,"player_id":10}`, fiber.StatusOK, "42"},
		{"unranked", `{"game_number":5,"player_id":11}`, fiber.StatusNotFound, ""},
		{"missing player", `{"game_number":5}`, fiber.StatusBadRequest, ""},
		{"negative game number", `{"game_number":-1,"player_id":10}`, fiber.StatusBadRequest, ""},
		{"zero player", `{"game_number":5,"player_id":0}`, fiber.StatusBadRequest, ""},
		{"bad json", `{`, fiber.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/check-rank", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.want != "" {
				assert.Equal(t, tt.want, readBody(t, resp.Body))
			}
		})
	}
}

func TestGetPlayers(t *testing.T) {
	dir := &fakeDirectory{players: []models.AutocompletePlayer{{ID: 1, Name: "הארי קיין"}}}
	app := newGameApp(&fakeGameCache{}, dir, fakeCountdown{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/players?leagues_id=8,%2082", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []int{8, 82}, dir.leagues)
	assert.JSONEq(t, `[{"id":1,"name":"הארי קיין"}]`, readBody(t, resp.Body))

	for _, q := range []string{"", "?leagues_id=", "?leagues_id=1,x", "?leagues_id=-3"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/players"+q, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestGetNextGame(t *testing.T) {
	at := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	app := newGameApp(&fakeGameCache{}, &fakeDirectory{}, fakeCountdown{at: &at})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/next-game", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=30", resp.Header.Get("Cache-Control"))
	assert.JSONEq(t, `{"activate_at":"2025-03-15T00:00:00Z"}`, readBody(t, resp.Body))
}
