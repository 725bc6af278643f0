package rankings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const profileColumns = `
	p.id,
	COALESCE(p.first_name, ''),
	COALESCE(p.last_name, ''),
	p.nationality_id,
	COALESCE(p.date_of_birth, ''),
	pts.team_id,
	pts.season_id,
	s.league_id,
	pts.position_id,
	pts.shirt_number,
	COALESCE(pts.is_captain, FALSE)`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FetchAffiliationIndex(ctx context.Context, leagueIDs []int) (Index, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if leagueIDs == nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+profileColumns+`
			FROM players p
			LEFT JOIN player_team_seasons pts ON pts.player_id = p.id
			LEFT JOIN seasons s ON s.id = pts.season_id
			ORDER BY p.id
		`)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+profileColumns+`
			FROM players p
			JOIN player_team_seasons pts ON pts.player_id = p.id
			JOIN seasons s ON s.id = pts.season_id AND s.league_id = ANY($1)
			ORDER BY p.id
		`, pq.Array(leagueIDs))
	}
	if err != nil {
		return nil, fmt.Errorf("query affiliation index: %w", err)
	}
	defer rows.Close()

	index := make(Index)
	for rows.Next() {
		var (
			p                        Profile
			nationality              sql.NullInt64
			teamID, seasonID, league sql.NullInt64
			positionID, shirtNumber  sql.NullInt64
			isCaptain                bool
		)
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &nationality, &p.DateOfBirth,
			&teamID, &seasonID, &league, &positionID, &shirtNumber, &isCaptain,
		); err != nil {
			return nil, fmt.Errorf("scan affiliation row: %w", err)
		}

		existing, ok := index[p.ID]
		if !ok {
			p.NationalityID = nullableInt(nationality)
			existing = p
		}
		if teamID.Valid && seasonID.Valid {
			existing.Affiliations = append(existing.Affiliations, Affiliation{
				TeamID:      int(teamID.Int64),
				SeasonID:    int(seasonID.Int64),
				LeagueID:    int(league.Int64),
				PositionID:  nullableInt(positionID),
				ShirtNumber: nullableInt(shirtNumber),
				IsCaptain:   isCaptain,
			})
		}
		index[p.ID] = existing
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affiliation rows: %w", err)
	}

	return index, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

var _ IndexProvider = (*PostgresRepository)(nil)
