package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"football-backend/games"
	"football-backend/middleware"
	"football-backend/models"
	"football-backend/rankings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type Ranker interface {
	ComputeRanking(ctx context.Context, targetID int, pool rankings.Pool) ([]rankings.RankedPlayer, error)
}

type GameAdminStore interface {
	CreateGame(ctx context.Context, in games.GameInput) (int, error)
	UpdateGame(ctx context.Context, id int, in games.GameInput) (*int, error)
	SearchGames(ctx context.Context, filter games.SearchFilter) ([]games.GameSummary, error)
	GetAdminGame(ctx context.Context, id int) (*games.AdminGame, error)
}

type CacheRevoker interface {
	RevokeGame(number int)
	RevokeRanksForGame(number int)
}

type Catalog interface {
	PlayerDirectory
	Leagues(ctx context.Context) ([]models.League, error)
	Countries(ctx context.Context) ([]models.Country, error)
	Get(ctx context.Context, id int) (*models.Player, error)
	Update(ctx context.Context, id int, u models.PlayerUpdate) error
}

type AdminCredentials struct {
	Username     string
	PasswordHash string
	JWTSecret    []byte
	TokenTTL     time.Duration
}

type AdminController struct {
	ranker  Ranker
	games   GameAdminStore
	cache   CacheRevoker
	catalog Catalog
	creds   AdminCredentials
	now     func() time.Time
	logger  *slog.Logger
}

func NewAdminController(ranker Ranker, store GameAdminStore, cache CacheRevoker, catalog Catalog, creds AdminCredentials, logger *slog.Logger) *AdminController {
	return &AdminController{
		ranker:  ranker,
		games:   store,
		cache:   cache,
		catalog: catalog,
		creds:   creds,
		now:     time.Now,
		logger:  logger,
	}
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// GameRequest is the body of create and update. A missing leagues field
// ranks against every player; an empty list is rejected.
type GameRequest struct {
	PlayerID   int     `json:"player_id"`
	ActivateAt string  `json:"activate_at"`
	Leagues    []int   `json:"leagues"`
	Hint       *string `json:"hint"`
}

func (ac *AdminController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(ac.creds.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(ac.creds.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Incorrect username or password")
	}

	token, err := middleware.IssueAdminToken(ac.creds.JWTSecret, req.Username, ac.creds.TokenTTL, ac.now())
	if err != nil {
		return fail(c, ac.logger, err, "Failed to issue token")
	}
	return c.JSON(fiber.Map{"access_token": token, "token_type": "bearer"})
}

func (ac *AdminController) GetLeagues(c *fiber.Ctx) error {
	leagues, err := ac.catalog.Leagues(c.UserContext())
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load leagues")
	}
	return c.JSON(leagues)
}

func (ac *AdminController) GetCountries(c *fiber.Ctx) error {
	countries, err := ac.catalog.Countries(c.UserContext())
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load countries")
	}
	return c.JSON(countries)
}

func (ac *AdminController) SearchPlayers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "query is required")
	}
	list, err := ac.catalog.Autocomplete(c.UserContext(), nil, query)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to search players")
	}
	return c.JSON(list)
}

func (ac *AdminController) GetPlayer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid player id")
	}
	player, err := ac.catalog.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load player")
	}
	return c.JSON(player)
}

func (ac *AdminController) UpdatePlayer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid player id")
	}

	var req models.PlayerUpdate
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	req.FirstNameHe = strings.TrimSpace(req.FirstNameHe)
	req.LastNameHe = strings.TrimSpace(req.LastNameHe)
	req.DisplayNameHe = strings.TrimSpace(req.DisplayNameHe)
	if req.DisplayNameHe == "" {
		return errorJSON(c, fiber.StatusBadRequest, "display_name_he is required")
	}

	if err := ac.catalog.Update(c.UserContext(), id, req); err != nil {
		return fail(c, ac.logger, err, "Failed to update player")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// SearchGames handles GET /games/search?game_date=YYYY-MM-DD&player_name=&game_number=.
func (ac *AdminController) SearchGames(c *fiber.Ctx) error {
	var filter games.SearchFilter

	if raw := strings.TrimSpace(c.Query("game_date")); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "game_date must be YYYY-MM-DD")
		}
		filter.Date = &d
	}
	if raw := strings.TrimSpace(c.Query("game_number")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "game_number must be an integer")
		}
		filter.GameNumber = &n
	}
	filter.PlayerName = c.Query("player_name")

	list, err := ac.games.SearchGames(c.UserContext(), filter)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to search games")
	}
	return c.JSON(list)
}

func (ac *AdminController) GetGame(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid game id")
	}
	game, err := ac.games.GetAdminGame(c.UserContext(), id)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to load game")
	}
	if game == nil {
		return errorJSON(c, fiber.StatusNotFound, "Game not found")
	}
	return c.JSON(game)
}

// CreateGame ranks every candidate against the chosen player and stores the
// result as a new game.
func (ac *AdminController) CreateGame(c *fiber.Ctx) error {
	in, status, err := ac.buildGame(c)
	if err != nil {
		if status != 0 {
			return errorJSON(c, status, err.Error())
		}
		return fail(c, ac.logger, err, "Failed to create game")
	}

	id, err := ac.games.CreateGame(c.UserContext(), in)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to create game")
	}

	ac.logger.Info("game created",
		slog.Int("game_id", id),
		slog.Int("player_id", in.Ranking[0].ID),
		slog.Int("max_rank", rankings.MaxRank(in.Ranking)),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// UpdateGame replaces a game and drops everything cached under the number it
// held before the update.
func (ac *AdminController) UpdateGame(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid game id")
	}

	in, status, err := ac.buildGame(c)
	if err != nil {
		if status != 0 {
			return errorJSON(c, status, err.Error())
		}
		return fail(c, ac.logger, err, "Failed to update game")
	}

	previous, err := ac.games.UpdateGame(c.UserContext(), id, in)
	if err != nil {
		return fail(c, ac.logger, err, "Failed to update game")
	}

	if previous != nil {
		ac.cache.RevokeGame(*previous)
		ac.cache.RevokeRanksForGame(*previous)
	}

	ac.logger.Info("game updated", slog.Int("game_id", id), slog.Any("previous_game_number", previous))
	return c.JSON(fiber.Map{"id": id})
}

var errPlayerRequired = errors.New("player_id is required")

// buildGame validates the request and computes the ranking. A non-zero status
// means the error is the client's and its message is safe to return.
func (ac *AdminController) buildGame(c *fiber.Ctx) (games.GameInput, int, error) {
	var req GameRequest
	if err := c.BodyParser(&req); err != nil {
		return games.GameInput{}, fiber.StatusBadRequest, errors.New("invalid JSON")
	}
	if req.PlayerID <= 0 {
		return games.GameInput{}, fiber.StatusNotFound, errPlayerRequired
	}

	activateAt, err := parseActivateAt(req.ActivateAt)
	if err != nil {
		return games.GameInput{}, fiber.StatusBadRequest, err
	}

	pool := rankings.AllPlayers()
	if req.Leagues != nil {
		pool = rankings.InLeagues(req.Leagues...)
	}

	ctx := c.UserContext()
	ranking, err := ac.ranker.ComputeRanking(ctx, req.PlayerID, pool)
	switch {
	case errors.Is(err, rankings.ErrNotFound):
		return games.GameInput{}, fiber.StatusNotFound, errors.New("player not found in the selected leagues")
	case errors.Is(err, rankings.ErrInvalidArgument):
		return games.GameInput{}, fiber.StatusBadRequest, err
	case err != nil:
		return games.GameInput{}, 0, err
	}

	autocomplete, err := ac.catalog.Autocomplete(ctx, pool.LeagueIDs(), "")
	if err != nil {
		return games.GameInput{}, 0, err
	}

	hint := req.Hint
	if hint != nil && strings.TrimSpace(*hint) == "" {
		hint = nil
	}

	return games.GameInput{
		ActivateAt: activateAt,
		Ranking:    ranking,
		Hint:       hint,
		Leagues:    pool.LeagueIDs(),
		Players:    autocomplete,
	}, 0, nil
}

var activateAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseActivateAt accepts the formats admin tools send. Times without an
// offset are UTC.
func parseActivateAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("activate_at is required")
	}
	for _, layout := range activateAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("activate_at must be a date-time like 2025-01-31 00:00:00")
}
