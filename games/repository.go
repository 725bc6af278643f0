package games

import (
	"context"
	"time"
)

// Store is the read side the cache falls through to. FetchGameByNumber and
// FetchLatestGame return nil when no active game matches; FetchRank returns
// nil when the player is not in the ranking.
type Store interface {
	FetchGameByNumber(ctx context.Context, number int) (*Snapshot, error)
	FetchLatestGame(ctx context.Context) (*Snapshot, error)
	FetchRank(ctx context.Context, number, playerID int) (*int, error)
}

// Repository is the full game store used by the admin surface.
type Repository interface {
	Store
	CreateGame(ctx context.Context, in GameInput) (int, error)
	UpdateGame(ctx context.Context, id int, in GameInput) (previousNumber *int, err error)
	SearchGames(ctx context.Context, filter SearchFilter) ([]GameSummary, error)
	GetAdminGame(ctx context.Context, id int) (*AdminGame, error)
	NextActivation(ctx context.Context) (*time.Time, error)
}
