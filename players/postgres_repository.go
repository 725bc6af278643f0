package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"football-backend/models"

	"github.com/lib/pq"
)

var ErrPlayerNotFound = errors.New("player not found")

// autocompleteName is the name shown in the guess box. Players listed by an
// abbreviated display name ("H. Kane") use their full localized name instead.
const autocompleteName = `
	COALESCE(
		NULLIF(TRIM(CASE
			WHEN p.display_name ~ '^[A-Z]\. ' THEN COALESCE(p.first_name_he, '') || ' ' || COALESCE(p.last_name_he, '')
			ELSE COALESCE(p.display_name_he, '')
		END), ''),
		p.display_name,
		''
	)`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Leagues(ctx context.Context) ([]models.League, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM leagues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query leagues: %w", err)
	}
	defer rows.Close()

	leagues := make([]models.League, 0)
	for rows.Next() {
		var l models.League
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

func (r *PostgresRepository) Countries(ctx context.Context) ([]models.Country, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := make([]models.Country, 0)
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// Autocomplete lists players for the guess box. A nil leagueIDs means every
// league; an empty query means every name.
func (r *PostgresRepository) Autocomplete(ctx context.Context, leagueIDs []int, query string) ([]models.AutocompletePlayer, error) {
	var leagues pq.Int64Array
	if leagueIDs != nil {
		leagues = make(pq.Int64Array, 0, len(leagueIDs))
		for _, id := range leagueIDs {
			leagues = append(leagues, int64(id))
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, `+autocompleteName+` AS name
		FROM players p
		WHERE ($1::int[] IS NULL OR EXISTS (
				SELECT 1
				FROM player_team_seasons pts
				JOIN seasons s ON s.id = pts.season_id
				WHERE pts.player_id = p.id AND s.league_id = ANY($1::int[])
			))
		  AND ($2 = '' OR `+autocompleteName+` ILIKE '%' || $2 || '%' OR p.display_name ILIKE '%' || $2 || '%')
		ORDER BY p.id
	`, leagues, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("query autocomplete players: %w", err)
	}
	defer rows.Close()

	players := make([]models.AutocompletePlayer, 0)
	for rows.Next() {
		var p models.AutocompletePlayer
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan autocomplete player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate autocomplete players: %w", err)
	}
	return players, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int) (*models.Player, error) {
	var p models.Player
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, display_name, first_name_he, last_name_he, display_name_he,
			image, date_of_birth, height, weight, nationality_id
		FROM players
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DisplayName, &p.FirstNameHe, &p.LastNameHe, &p.DisplayNameHe,
		&p.Image, &p.DateOfBirth, &p.Height, &p.Weight, &p.NationalityID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get player id=%d: %w", id, ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get player id=%d: %w", id, err)
	}
	return &p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, u models.PlayerUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE players
		SET first_name_he = $1,
			last_name_he = $2,
			display_name_he = $3,
			nationality_id = COALESCE($4, nationality_id)
		WHERE id = $5
	`, u.FirstNameHe, u.LastNameHe, u.DisplayNameHe, u.NationalityID, id)
	if err != nil {
		return fmt.Errorf("update player id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player id=%d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update player id=%d: %w", id, ErrPlayerNotFound)
	}
	return nil
}
