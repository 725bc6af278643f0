package games

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"football-backend/models"
	"football-backend/rankings"

	"github.com/lib/pq"
)

// renumberGames assigns game numbers by activation order. Games already
// activated keep the number players have seen; unnumbered games always get one.
const renumberGames = `
	WITH numbered AS (
		SELECT id, ROW_NUMBER() OVER (ORDER BY activate_at, id) AS game_number
		FROM games
	)
	UPDATE games g
	SET game_number = numbered.game_number
	FROM numbered
	WHERE numbered.id = g.id
	  AND (g.activate_at > CURRENT_DATE OR g.game_number IS NULL)
`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FetchGameByNumber(ctx context.Context, number int) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT g.id, g.created_at, g.activate_at, g.max_rank, g.hint, g.players, g.game_number,
			(SELECT MAX(game_number) FROM games WHERE activate_at <= NOW()) AS max_game_number
		FROM games g
		WHERE g.game_number = $1 AND g.activate_at <= NOW()
		ORDER BY g.activate_at DESC
		LIMIT 1
	`, number)

	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("fetch game number=%d: %w", number, err)
	}
	return snap, nil
}

func (r *PostgresRepository) FetchLatestGame(ctx context.Context) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, activate_at, max_rank, hint, players, game_number, game_number AS max_game_number
		FROM games
		WHERE activate_at <= NOW()
		ORDER BY activate_at DESC
		LIMIT 1
	`)

	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("fetch latest game: %w", err)
	}
	return snap, nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var (
		s             Snapshot
		players       []byte
		gameNumber    sql.NullInt64
		maxGameNumber sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.CreatedAt, &s.ActivateAt, &s.MaxRank, &s.Hint, &players, &gameNumber, &maxGameNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		players = []byte("[]")
	}
	s.Players = json.RawMessage(players)
	s.GameNumber = int(gameNumber.Int64)
	s.MaxGameNumber = int(maxGameNumber.Int64)
	return &s, nil
}

// FetchRank returns ErrMalformedRanking when the stored payload does not decode.
func (r *PostgresRepository) FetchRank(ctx context.Context, number, playerID int) (*int, error) {
	var distance []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT distance
		FROM games
		WHERE game_number = $1 AND activate_at < NOW()
		LIMIT 1
	`, number).Scan(&distance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch ranking game=%d: %w", number, err)
	}
	if len(distance) == 0 {
		return nil, nil
	}

	var ranking []rankings.RankedPlayer
	if err := json.Unmarshal(distance, &ranking); err != nil {
		return nil, fmt.Errorf("%w: game=%d: %v", ErrMalformedRanking, number, err)
	}
	for _, entry := range ranking {
		if entry.ID == playerID {
			rank := entry.Rank
			return &rank, nil
		}
	}
	return nil, nil
}

func encodeGameInput(in GameInput) (distance, leagues, players []byte, err error) {
	if distance, err = json.Marshal(in.Ranking); err != nil {
		return nil, nil, nil, fmt.Errorf("encode ranking: %w", err)
	}
	leagueIDs := in.Leagues
	if leagueIDs == nil {
		leagueIDs = []int{}
	}
	if leagues, err = json.Marshal(leagueIDs); err != nil {
		return nil, nil, nil, fmt.Errorf("encode leagues: %w", err)
	}
	autocomplete := in.Players
	if autocomplete == nil {
		autocomplete = []models.AutocompletePlayer{}
	}
	if players, err = json.Marshal(autocomplete); err != nil {
		return nil, nil, nil, fmt.Errorf("encode players: %w", err)
	}
	return distance, leagues, players, nil
}

func (r *PostgresRepository) CreateGame(ctx context.Context, in GameInput) (int, error) {
	distance, leagues, players, err := encodeGameInput(in)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create game transaction: %w", err)
	}
	defer tx.Rollback()

	var id int
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO games (activate_at, distance, max_rank, hint, leagues, players)
		VALUES ($1, $2::jsonb, $3, $4, $5::jsonb, $6::jsonb)
		RETURNING id
	`, in.ActivateAt, distance, rankings.MaxRank(in.Ranking), in.Hint, leagues, players).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}

	if _, err := tx.ExecContext(ctx, renumberGames); err != nil {
		return 0, fmt.Errorf("renumber games: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create game transaction: %w", err)
	}
	return id, nil
}

// UpdateGame replaces a game in place and returns the number it held before
// renumbering.
func (r *PostgresRepository) UpdateGame(ctx context.Context, id int, in GameInput) (*int, error) {
	distance, leagues, players, err := encodeGameInput(in)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update game transaction: %w", err)
	}
	defer tx.Rollback()

	var previous sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		UPDATE games
		SET activate_at = $1, distance = $2::jsonb, max_rank = $3, hint = $4, leagues = $5::jsonb, players = $6::jsonb
		WHERE id = $7
		RETURNING game_number
	`, in.ActivateAt, distance, rankings.MaxRank(in.Ranking), in.Hint, leagues, players, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update game id=%d: %w", id, ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update game id=%d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, renumberGames); err != nil {
		return nil, fmt.Errorf("renumber games: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update game transaction: %w", err)
	}

	if !previous.Valid {
		return nil, nil
	}
	n := int(previous.Int64)
	return &n, nil
}

func (r *PostgresRepository) SearchGames(ctx context.Context, filter SearchFilter) ([]GameSummary, error) {
	var (
		where []string
		args  []any
	)
	if filter.Date != nil {
		args = append(args, filter.Date.Format("2006-01-02"))
		where = append(where, fmt.Sprintf("g.activate_at::date = $%d::date", len(args)))
	}
	if filter.GameNumber != nil {
		args = append(args, *filter.GameNumber)
		where = append(where, fmt.Sprintf("g.game_number = $%d", len(args)))
	}
	if name := strings.TrimSpace(filter.PlayerName); name != "" {
		args = append(args, "%"+name+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(p.display_name_he ILIKE $%d OR p.first_name_he ILIKE $%d OR p.last_name_he ILIKE $%d OR p.display_name ILIKE $%d)",
			n, n, n, n))
	}

	query := `
		SELECT g.id, g.activate_at, g.hint, p.display_name_he, g.game_number
		FROM games g
		LEFT JOIN players p ON p.id = (g.distance->0->>'id')::int
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY g.activate_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	defer rows.Close()

	summaries := make([]GameSummary, 0)
	for rows.Next() {
		var (
			s          GameSummary
			gameNumber sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.ActivateAt, &s.Hint, &s.PlayerName, &gameNumber); err != nil {
			return nil, fmt.Errorf("scan game summary: %w", err)
		}
		if gameNumber.Valid {
			n := int(gameNumber.Int64)
			s.GameNumber = &n
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game summaries: %w", err)
	}
	return summaries, nil
}

func (r *PostgresRepository) GetAdminGame(ctx context.Context, id int) (*AdminGame, error) {
	var (
		game       AdminGameDetail
		leagueJSON []byte
		playerID   sql.NullInt64
		gameNumber sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT g.id, g.activate_at, g.hint, g.leagues, g.game_number, (g.distance->0->>'id')::int, p.display_name_he
		FROM games g
		LEFT JOIN players p ON p.id = (g.distance->0->>'id')::int
		WHERE g.id = $1
	`, id).Scan(&game.ID, &game.ActivateAt, &game.Hint, &leagueJSON, &gameNumber, &playerID, &game.PlayerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch admin game id=%d: %w", id, err)
	}
	game.PlayerID = int(playerID.Int64)
	if gameNumber.Valid {
		n := int(gameNumber.Int64)
		game.GameNumber = &n
	}

	var leagueIDs []int
	if len(leagueJSON) > 0 {
		if err := json.Unmarshal(leagueJSON, &leagueIDs); err != nil {
			return nil, fmt.Errorf("decode leagues for game id=%d: %w", id, err)
		}
	}

	leagues := make([]models.League, 0, len(leagueIDs))
	if len(leagueIDs) > 0 {
		rows, err := r.db.QueryContext(ctx, `
			SELECT id, name FROM leagues WHERE id = ANY($1) ORDER BY name
		`, pq.Array(leagueIDs))
		if err != nil {
			return nil, fmt.Errorf("fetch leagues for game id=%d: %w", id, err)
		}
		defer rows.Close()
		for rows.Next() {
			var l models.League
			if err := rows.Scan(&l.ID, &l.Name); err != nil {
				return nil, fmt.Errorf("scan league: %w", err)
			}
			leagues = append(leagues, l)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate leagues: %w", err)
		}
	}

	return &AdminGame{Game: game, Leagues: leagues}, nil
}

// NextActivation is when the game after the current one opens, or nil if none
// is scheduled.
func (r *PostgresRepository) NextActivation(ctx context.Context) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT activate_at
		FROM games
		WHERE game_number > COALESCE((
			SELECT game_number
			FROM games
			WHERE activate_at <= NOW() AND game_number IS NOT NULL
			ORDER BY game_number DESC
			LIMIT 1
		), 0)
		ORDER BY game_number ASC
		LIMIT 1
	`).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch next activation: %w", err)
	}
	return &at, nil
}

var _ Repository = (*PostgresRepository)(nil)
