package rankings

import (
	"context"
	"fmt"
	"sort"
)

// Pool selects the candidates a target is ranked against.
type Pool struct {
	leagueIDs  []int
	restricted bool
}

// AllPlayers is the pool of every known player.
func AllPlayers() Pool { return Pool{} }

// InLeagues restricts the pool to players with an affiliation in one of the leagues.
func InLeagues(ids ...int) Pool {
	return Pool{leagueIDs: append([]int(nil), ids...), restricted: true}
}

func (p Pool) LeagueIDs() []int { return p.leagueIDs }

func (p Pool) Restricted() bool { return p.restricted }

func (p Pool) validate() error {
	if !p.restricted {
		return nil
	}
	if len(p.leagueIDs) == 0 {
		return fmt.Errorf("%w: league filter is empty", ErrInvalidArgument)
	}
	for _, id := range p.leagueIDs {
		if id <= 0 {
			return fmt.Errorf("%w: league id %d", ErrInvalidArgument, id)
		}
	}
	return nil
}

type Engine struct {
	provider IndexProvider
	weights  Weights
}

func NewEngine(provider IndexProvider, weights Weights) *Engine {
	return &Engine{provider: provider, weights: weights}
}

func (e *Engine) Weights() Weights { return e.weights }

// ComputeRanking loads the index for pool and ranks every member against targetID.
func (e *Engine) ComputeRanking(ctx context.Context, targetID int, pool Pool) ([]RankedPlayer, error) {
	if err := pool.validate(); err != nil {
		return nil, err
	}

	var leagueIDs []int
	if pool.restricted {
		leagueIDs = pool.leagueIDs
	}
	index, err := e.provider.FetchAffiliationIndex(ctx, leagueIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch affiliation index: %w", err)
	}

	return Rank(targetID, index, e.weights)
}

type scored struct {
	profile Profile
	score   float64
}

// Rank orders the index by similarity to targetID. The target is rank 1 and
// every other player follows from 2 by descending score. Equal scores keep
// ascending player ID order.
func Rank(targetID int, index Index, w Weights) ([]RankedPlayer, error) {
	target, ok := index[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: player %d is not in the candidate pool", ErrNotFound, targetID)
	}

	ids := make([]int, 0, len(index))
	for id := range index {
		if id != targetID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	tf := newFeatures(target)
	candidates := make([]scored, 0, len(ids))
	for _, id := range ids {
		p := index[id]
		candidates = append(candidates, scored{profile: p, score: score(signals, w, tf, newFeatures(p))})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	out := make([]RankedPlayer, 0, len(candidates)+1)
	out = append(out, RankedPlayer{ID: target.ID, Rank: 1, Name: target.Name()})
	for i, c := range candidates {
		out = append(out, RankedPlayer{ID: c.profile.ID, Rank: i + 2, Name: c.profile.Name()})
	}
	return out, nil
}

// ValidateRanking checks that rows start with rank 1 and continue with
// contiguous ranks and unique player IDs.
func ValidateRanking(rows []RankedPlayer) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: ranking is empty", ErrInvalidArgument)
	}
	seen := make(map[int]struct{}, len(rows))
	for i, row := range rows {
		if row.Rank != i+1 {
			return fmt.Errorf("%w: row %d has rank %d, want %d", ErrInvalidArgument, i+1, row.Rank, i+1)
		}
		if row.ID <= 0 {
			return fmt.Errorf("%w: row %d has invalid player id %d", ErrInvalidArgument, i+1, row.ID)
		}
		if _, dup := seen[row.ID]; dup {
			return fmt.Errorf("%w: player %d ranked twice", ErrInvalidArgument, row.ID)
		}
		seen[row.ID] = struct{}{}
	}
	return nil
}

// MaxRank is the highest rank in rows.
func MaxRank(rows []RankedPlayer) int {
	highest := 0
	for _, r := range rows {
		if r.Rank > highest {
			highest = r.Rank
		}
	}
	return highest
}
