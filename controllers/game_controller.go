package controllers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"football-backend/games"
	"football-backend/models"

	"github.com/gofiber/fiber/v2"
)

type GameCache interface {
	GetGame(ctx context.Context, number *int) (*games.Snapshot, error)
	GetRank(ctx context.Context, number, playerID int) (*int, error)
}

type PlayerDirectory interface {
	Autocomplete(ctx context.Context, leagueIDs []int, query string) ([]models.AutocompletePlayer, error)
}

type Countdown interface {
	NextActivation(ctx context.Context) (*time.Time, error)
}

// GameController serves the public game API.
type GameController struct {
	cache     GameCache
	players   PlayerDirectory
	countdown Countdown
	logger    *slog.Logger
}

func NewGameController(cache GameCache, players PlayerDirectory, countdown Countdown, logger *slog.Logger) *GameController {
	return &GameController{cache: cache, players: players, countdown: countdown, logger: logger}
}

type CheckRankRequest struct {
	GameNumber int `json:"game_number"`
	// GameID is accepted from older clients that sent the number under this name.
	GameID   int `json:"game_id"`
	PlayerID int `json:"player_id"`
}

// GetGame handles GET /api/game?game_number=N. Without a number (or with 0)
// it returns the game currently being played.
func (gc *GameController) GetGame(c *fiber.Ctx) error {
	var number *int
	if raw := strings.TrimSpace(c.Query("game_number")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return errorJSON(c, fiber.StatusBadRequest, "game_number must be a positive integer")
		}
		if n > 0 {
			number = &n
		}
	}

	snap, err := gc.cache.GetGame(c.UserContext(), number)
	if err != nil {
		return fail(c, gc.logger, err, "Failed to load game")
	}
	if snap == nil {
		return errorJSON(c, fiber.StatusNotFound, "Game not found")
	}
	return c.JSON(snap)
}

// CheckRank handles POST /api/check-rank and returns the bare rank number.
func (gc *GameController) CheckRank(c *fiber.Ctx) error {
	var req CheckRankRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if req.GameNumber == 0 {
		req.GameNumber = req.GameID
	}
	if req.GameNumber <= 0 || req.PlayerID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "game_number and player_id must be positive integers")
	}

	rank, err := gc.cache.GetRank(c.UserContext(), req.GameNumber, req.PlayerID)
	if err != nil {
		return fail(c, gc.logger, err, "Failed to check rank")
	}
	if rank == nil {
		return errorJSON(c, fiber.StatusNotFound, "Rank not found")
	}
	return c.JSON(*rank)
}

// GetPlayers handles GET /api/players?leagues_id=1,2.
func (gc *GameController) GetPlayers(c *fiber.Ctx) error {
	leagueIDs, err := parseIDList(c.Query("leagues_id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "leagues_id "+err.Error())
	}
	if len(leagueIDs) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "leagues_id is required")
	}

	list, err := gc.players.Autocomplete(c.UserContext(), leagueIDs, "")
	if err != nil {
		return fail(c, gc.logger, err, "Failed to load players")
	}
	return c.JSON(list)
}

// GetNextGame handles GET /api/next-game.
func (gc *GameController) GetNextGame(c *fiber.Ctx) error {
	at, err := gc.countdown.NextActivation(c.UserContext())
	if err != nil {
		return fail(c, gc.logger, err, "Failed to load next game")
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=30")
	return c.JSON(fiber.Map{"activate_at": at})
}
