package controllers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"football-backend/games"
	"football-backend/players"
	"football-backend/rankings"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
)

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// fail maps domain errors to a status. Anything unrecognised is logged and
// reported as a 500 with the generic msg.
func fail(c *fiber.Ctx, logger *slog.Logger, err error, msg string) error {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, rankings.ErrNotFound),
		errors.Is(err, games.ErrGameNotFound),
		errors.Is(err, players.ErrPlayerNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, rankings.ErrInvalidArgument):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &pqErr) && pqErr.Code == "23503":
		return errorJSON(c, fiber.StatusBadRequest, "Referenced record does not exist")
	case errors.As(err, &pqErr) && pqErr.Code == "23505":
		return errorJSON(c, fiber.StatusConflict, "Record already exists")
	}

	logger.Error(msg,
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("error", err),
	)
	return errorJSON(c, fiber.StatusInternalServerError, msg)
}

// parseIDList reads "1,2,3". Blank items are skipped.
func parseIDList(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid id " + strconv.Quote(part))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
