package games

import (
	"encoding/json"
	"time"

	"football-backend/models"
	"football-backend/rankings"
)

// Snapshot is a game as end users see it.
type Snapshot struct {
	ID            int             `json:"-"`
	CreatedAt     time.Time       `json:"-"`
	ActivateAt    time.Time       `json:"-"`
	MaxRank       int             `json:"max_rank"`
	Hint          *string         `json:"hint"`
	Players       json.RawMessage `json:"players"`
	GameNumber    int             `json:"game_number"`
	MaxGameNumber int             `json:"max_game_number"`
}

// GameInput is what an admin create or update persists.
type GameInput struct {
	ActivateAt time.Time
	Ranking    []rankings.RankedPlayer
	Hint       *string
	Leagues    []int
	Players    []models.AutocompletePlayer
}

// GameSummary is one row of the admin game search.
type GameSummary struct {
	ID         int       `json:"id"`
	ActivateAt time.Time `json:"activate_at"`
	Hint       *string   `json:"hint"`
	PlayerName *string   `json:"player_name"`
	GameNumber *int      `json:"game_number"`
}

// SearchFilter narrows the admin game search. Zero values are ignored.
type SearchFilter struct {
	Date       *time.Time
	PlayerName string
	GameNumber *int
}

// AdminGame is the admin detail view of a game.
type AdminGame struct {
	Game    AdminGameDetail `json:"game"`
	Leagues []models.League `json:"leagues"`
}

type AdminGameDetail struct {
	ID         int       `json:"id"`
	ActivateAt time.Time `json:"activate_at"`
	Hint       *string   `json:"hint"`
	PlayerID   int       `json:"player_id"`
	PlayerName *string   `json:"player_name"`
	GameNumber *int      `json:"game_number"`
}
