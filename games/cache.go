package games

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	gameByNumberTTL = 24 * time.Hour
	rankTTL         = time.Hour
	latestInterval  = 5
)

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

type rankKey struct {
	game   int
	player int
}

// Cache sits in front of a Store. Games by number live for a day and are
// only cached when found. The latest game is pinned until the next five
// minute mark. Rank lookups live for an hour, misses included.
type Cache struct {
	store   Store
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
	flight  singleflight.Group

	gameMu   sync.Mutex
	byNumber map[int]cacheEntry[*Snapshot]
	latest   cacheEntry[*Snapshot]
	gameGen  uint64

	rankMu  sync.Mutex
	ranks   map[rankKey]cacheEntry[*int]
	rankGen uint64
}

type CacheOption func(*Cache)

func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(m *Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

func NewCache(store Store, opts ...CacheOption) *Cache {
	c := &Cache{
		store:    store,
		now:      time.Now,
		logger:   slog.Default(),
		byNumber: make(map[int]cacheEntry[*Snapshot]),
		ranks:    make(map[rankKey]cacheEntry[*int]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextInterval is the first five minute wall-clock mark after now.
func nextInterval(now time.Time) time.Time {
	minutes := latestInterval - now.Minute()%latestInterval
	if minutes == 0 {
		minutes = latestInterval
	}
	mark := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())
	return mark.Add(time.Duration(minutes) * time.Minute)
}

// GetGame returns the game with the given number, or the latest active game
// when number is nil. A nil snapshot with a nil error means no such game.
// Shared fetches ignore the caller's cancellation since other callers may be
// waiting on them.
func (c *Cache) GetGame(ctx context.Context, number *int) (*Snapshot, error) {
	if number == nil {
		return c.getLatest(ctx)
	}
	return c.getByNumber(ctx, *number)
}

func (c *Cache) getByNumber(ctx context.Context, number int) (*Snapshot, error) {
	now := c.now()

	c.gameMu.Lock()
	entry, ok := c.byNumber[number]
	c.gameMu.Unlock()
	if ok && now.Before(entry.expires) {
		c.metrics.hit(CacheByNumber)
		return entry.value, nil
	}
	c.metrics.miss(CacheByNumber)

	gen := c.gameGeneration()
	v, err, _ := c.flight.Do(gameFlightKey(number, gen), func() (any, error) {
		snap, err := c.store.FetchGameByNumber(context.WithoutCancel(ctx), number)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return (*Snapshot)(nil), nil
		}

		c.gameMu.Lock()
		if gen == c.gameGen {
			c.byNumber[number] = cacheEntry[*Snapshot]{value: snap, expires: c.now().Add(gameByNumberTTL)}
		}
		c.gameMu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (c *Cache) getLatest(ctx context.Context) (*Snapshot, error) {
	now := c.now()

	c.gameMu.Lock()
	entry := c.latest
	c.gameMu.Unlock()
	if entry.value != nil && now.Before(entry.expires) {
		c.metrics.hit(CacheLatest)
		return entry.value, nil
	}
	c.metrics.miss(CacheLatest)

	gen := c.gameGeneration()
	v, err, _ := c.flight.Do(latestFlightKey(gen), func() (any, error) {
		snap, err := c.store.FetchLatestGame(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.gameMu.Lock()
		if gen == c.gameGen {
			c.latest = cacheEntry[*Snapshot]{value: snap, expires: nextInterval(c.now())}
		}
		c.gameMu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// GetRank returns the rank of playerID in game number, or nil if the player
// is not ranked there.
func (c *Cache) GetRank(ctx context.Context, number, playerID int) (*int, error) {
	key := rankKey{game: number, player: playerID}
	now := c.now()

	c.rankMu.Lock()
	entry, ok := c.ranks[key]
	c.rankMu.Unlock()
	if ok && now.Before(entry.expires) {
		c.metrics.hit(CacheRank)
		return entry.value, nil
	}
	c.metrics.miss(CacheRank)

	gen := c.rankGeneration()
	v, err, _ := c.flight.Do(rankFlightKey(key, gen), func() (any, error) {
		rank, err := c.store.FetchRank(context.WithoutCancel(ctx), number, playerID)
		if errors.Is(err, ErrMalformedRanking) {
			c.logger.Warn("stored ranking is malformed, treating as unranked",
				slog.Int("game_number", number),
				slog.Int("player_id", playerID),
				slog.Any("error", err),
			)
			rank, err = nil, nil
		}
		if err != nil {
			return nil, err
		}

		c.rankMu.Lock()
		if gen == c.rankGen {
			c.ranks[key] = cacheEntry[*int]{value: rank, expires: c.now().Add(rankTTL)}
		}
		c.rankMu.Unlock()
		return rank, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*int), nil
}

// RevokeGame drops the cached game for number.
func (c *Cache) RevokeGame(number int) {
	c.gameMu.Lock()
	_, ok := c.byNumber[number]
	delete(c.byNumber, number)
	c.gameGen++
	c.gameMu.Unlock()

	if ok {
		c.metrics.evicted(CacheByNumber, reasonRevoke, 1)
	}
}

// RevokeRanksForGame drops every cached rank for number, and the latest game
// if it is that game.
func (c *Cache) RevokeRanksForGame(number int) {
	c.rankMu.Lock()
	removed := 0
	for key := range c.ranks {
		if key.game == number {
			delete(c.ranks, key)
			removed++
		}
	}
	c.rankGen++
	c.rankMu.Unlock()
	c.metrics.evicted(CacheRank, reasonRevoke, removed)

	c.gameMu.Lock()
	latestEvicted := false
	if c.latest.value != nil && c.latest.value.GameNumber == number {
		c.latest = cacheEntry[*Snapshot]{}
		latestEvicted = true
	}
	c.gameGen++
	c.gameMu.Unlock()

	if latestEvicted {
		c.metrics.evicted(CacheLatest, reasonRevoke, 1)
	}
}

// RevokeRank drops one cached rank.
func (c *Cache) RevokeRank(number, playerID int) {
	key := rankKey{game: number, player: playerID}

	c.rankMu.Lock()
	_, ok := c.ranks[key]
	delete(c.ranks, key)
	c.rankGen++
	c.rankMu.Unlock()

	if ok {
		c.metrics.evicted(CacheRank, reasonRevoke, 1)
	}
}

// ClearAll empties every cache.
func (c *Cache) ClearAll() {
	c.gameMu.Lock()
	games := len(c.byNumber)
	latest := 0
	if c.latest.value != nil {
		latest = 1
	}
	c.byNumber = make(map[int]cacheEntry[*Snapshot])
	c.latest = cacheEntry[*Snapshot]{}
	c.gameGen++
	c.gameMu.Unlock()

	c.rankMu.Lock()
	ranks := len(c.ranks)
	c.ranks = make(map[rankKey]cacheEntry[*int])
	c.rankGen++
	c.rankMu.Unlock()

	c.metrics.evicted(CacheByNumber, reasonClear, games)
	c.metrics.evicted(CacheLatest, reasonClear, latest)
	c.metrics.evicted(CacheRank, reasonClear, ranks)
}

// Sweep removes expired entries and reports how many were dropped. Reads
// already ignore expired entries; this only bounds memory.
func (c *Cache) Sweep() int {
	now := c.now()

	c.gameMu.Lock()
	games := 0
	for n, e := range c.byNumber {
		if !now.Before(e.expires) {
			delete(c.byNumber, n)
			games++
		}
	}
	latest := 0
	if c.latest.value != nil && !now.Before(c.latest.expires) {
		c.latest = cacheEntry[*Snapshot]{}
		latest = 1
	}
	c.gameMu.Unlock()

	c.rankMu.Lock()
	ranks := 0
	for k, e := range c.ranks {
		if !now.Before(e.expires) {
			delete(c.ranks, k)
			ranks++
		}
	}
	c.rankMu.Unlock()

	c.metrics.evicted(CacheByNumber, reasonSweep, games)
	c.metrics.evicted(CacheLatest, reasonSweep, latest)
	c.metrics.evicted(CacheRank, reasonSweep, ranks)
	return games + latest + ranks
}

func (c *Cache) gameGeneration() uint64 {
	c.gameMu.Lock()
	defer c.gameMu.Unlock()
	return c.gameGen
}

func (c *Cache) rankGeneration() uint64 {
	c.rankMu.Lock()
	defer c.rankMu.Unlock()
	return c.rankGen
}

// Flight keys carry the generation they were started under, so a lookup made
// after a revoke never joins a fetch that began before it.

func latestFlightKey(gen uint64) string { return fmt.Sprintf("latest:%d", gen) }

func gameFlightKey(number int, gen uint64) string { return fmt.Sprintf("game:%d:%d", number, gen) }

func rankFlightKey(k rankKey, gen uint64) string {
	return fmt.Sprintf("rank:%d:%d:%d", k.game, k.player, gen)
}
