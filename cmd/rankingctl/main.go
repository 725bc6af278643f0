// Command rankingctl previews and imports similarity rankings outside the
// admin API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"football-backend/config"
	"football-backend/database"
	"football-backend/games"
	"football-backend/models"
	"football-backend/players"
	"football-backend/rankings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "database-url",
		Usage:   "Postgres connection string",
		EnvVars: []string{"DATABASE_URL"},
	}
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "YAML file holding ranking.weights",
		EnvVars: []string{"CONFIG_FILE"},
	}
	leaguesFlag := &cli.StringFlag{
		Name:  "leagues",
		Usage: "comma separated league ids; empty ranks every player",
	}

	return &cli.App{
		Name:  "rankingctl",
		Usage: "compute and import player similarity rankings",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "rank every candidate against a player and write the result as CSV",
				Flags: []cli.Flag{
					dbFlag, configFlag, leaguesFlag,
					&cli.IntFlag{Name: "player", Usage: "target player id", Required: true},
					&cli.StringFlag{Name: "out", Usage: "output file (default stdout)"},
				},
				Action: func(c *cli.Context) error {
					pool, err := parsePool(c.String("leagues"))
					if err != nil {
						return err
					}
					weights, err := config.LoadWeights(c.String("config"))
					if err != nil {
						return err
					}
					db, err := database.Connect(c.Context, c.String("database-url"), database.DefaultPool)
					if err != nil {
						return err
					}
					defer db.Close()

					out := io.Writer(os.Stdout)
					if path := c.String("out"); path != "" {
						f, err := os.Create(path)
						if err != nil {
							return fmt.Errorf("create %s: %w", path, err)
						}
						defer f.Close()
						out = f
					}

					engine := rankings.NewEngine(rankings.NewPostgresRepository(db), weights)
					n, err := preview(c.Context, engine, c.Int("player"), pool, out)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "Ranked %d players\n", n)
					return nil
				},
			},
			{
				Name:  "import",
				Usage: "store a precomputed ranking CSV as a new game",
				Flags: []cli.Flag{
					dbFlag, leaguesFlag,
					&cli.StringFlag{Name: "csv", Usage: "ranking CSV (player_id,rank[,name])", Required: true},
					&cli.StringFlag{Name: "activate-at", Usage: "activation time, RFC3339 or YYYY-MM-DD", Required: true},
					&cli.StringFlag{Name: "hint", Usage: "optional hint shown to players"},
				},
				Action: func(c *cli.Context) error {
					pool, err := parsePool(c.String("leagues"))
					if err != nil {
						return err
					}
					activateAt, err := parseActivation(c.String("activate-at"))
					if err != nil {
						return err
					}
					file, err := os.Open(c.String("csv"))
					if err != nil {
						return fmt.Errorf("open csv file: %w", err)
					}
					defer file.Close()

					db, err := database.Connect(c.Context, c.String("database-url"), database.DefaultPool)
					if err != nil {
						return err
					}
					defer db.Close()

					var hint *string
					if h := strings.TrimSpace(c.String("hint")); h != "" {
						hint = &h
					}
					id, n, err := importRanking(c.Context, file, activateAt, pool, hint,
						players.NewPostgresRepository(db), games.NewPostgresRepository(db))
					if err != nil {
						return err
					}
					fmt.Printf("Imported game %d with %d ranking entries\n", id, n)
					return nil
				},
			},
		},
	}
}

type ranker interface {
	ComputeRanking(ctx context.Context, targetID int, pool rankings.Pool) ([]rankings.RankedPlayer, error)
}

type autocompleter interface {
	Autocomplete(ctx context.Context, leagueIDs []int, query string) ([]models.AutocompletePlayer, error)
}

type gameCreator interface {
	CreateGame(ctx context.Context, in games.GameInput) (int, error)
}

func preview(ctx context.Context, r ranker, playerID int, pool rankings.Pool, out io.Writer) (int, error) {
	rows, err := r.ComputeRanking(ctx, playerID, pool)
	if err != nil {
		return 0, fmt.Errorf("rank player %d: %w", playerID, err)
	}
	if err := rankings.WriteRankingCSV(out, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func importRanking(ctx context.Context, csv io.Reader, activateAt time.Time, pool rankings.Pool, hint *string, catalog autocompleter, store gameCreator) (int, int, error) {
	rows, err := rankings.ParseRankingCSV(csv)
	if err != nil {
		return 0, 0, fmt.Errorf("parse csv: %w", err)
	}
	if err := rankings.ValidateRanking(rows); err != nil {
		return 0, 0, err
	}

	list, err := catalog.Autocomplete(ctx, pool.LeagueIDs(), "")
	if err != nil {
		return 0, 0, fmt.Errorf("load autocomplete list: %w", err)
	}

	id, err := store.CreateGame(ctx, games.GameInput{
		ActivateAt: activateAt,
		Ranking:    rows,
		Hint:       hint,
		Leagues:    pool.LeagueIDs(),
		Players:    list,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("create game: %w", err)
	}
	return id, len(rows), nil
}

func parsePool(raw string) (rankings.Pool, error) {
	if strings.TrimSpace(raw) == "" {
		return rankings.AllPlayers(), nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return rankings.Pool{}, fmt.Errorf("--leagues: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return rankings.Pool{}, errors.New("--leagues: no ids given")
	}
	return rankings.InLeagues(ids...), nil
}

func parseActivation(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --activate-at value %q", raw)
	}
	return t, nil
}
