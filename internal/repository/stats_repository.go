package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"

	"github.com/gridrelay/tictactoe/internal/game"
)

var tracer = otel.Tracer("repository.stats")

// Redis keys for the relay-wide match counters.
const (
	keyGamesStarted = "stats:games_started"
	keyWinsX        = "stats:wins:x"
	keyWinsO        = "stats:wins:o"
	keyDraws        = "stats:draws"
)

// Stats is a snapshot of the relay-wide match counters.
type Stats struct {
	GamesStarted int64 `json:"games_started"`
	WinsX        int64 `json:"wins_x"`
	WinsO        int64 `json:"wins_o"`
	Draws        int64 `json:"draws"`
}

// StatsRepository records match outcomes observed by the relay.
type StatsRepository interface {
	RecordGameStarted(ctx context.Context) error
	RecordResult(ctx context.Context, result game.Result) error
	Snapshot(ctx context.Context) (*Stats, error)
}

type redisStatsRepository struct {
	rdb *redis.Client
}

// NewStatsRepository creates a new Redis-based StatsRepository.
func NewStatsRepository(rdb *redis.Client) StatsRepository {
	return &redisStatsRepository{rdb: rdb}
}

// RecordGameStarted bumps the started-games counter. Called when a
// room's second participant joins.
func (r *redisStatsRepository) RecordGameStarted(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "StatsRepository.RecordGameStarted")
	defer span.End()

	if err := r.rdb.Incr(ctx, keyGamesStarted).Err(); err != nil {
		return fmt.Errorf("failed to record game start: %w", err)
	}
	return nil
}

// RecordResult bumps the counter matching a terminal board.
func (r *redisStatsRepository) RecordResult(ctx context.Context, result game.Result) error {
	ctx, span := tracer.Start(ctx, "StatsRepository.RecordResult")
	defer span.End()

	var key string
	switch {
	case result.Winner == game.X:
		key = keyWinsX
	case result.Winner == game.O:
		key = keyWinsO
	case result.Draw:
		key = keyDraws
	default:
		return fmt.Errorf("result is not terminal")
	}

	if err := r.rdb.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// Snapshot reads all counters in one round trip.
func (r *redisStatsRepository) Snapshot(ctx context.Context) (*Stats, error) {
	ctx, span := tracer.Start(ctx, "StatsRepository.Snapshot")
	defer span.End()

	values, err := r.rdb.MGet(ctx, keyGamesStarted, keyWinsX, keyWinsO, keyDraws).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats from redis: %w", err)
	}

	counters := make([]int64, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		var n int64
		if _, err := fmt.Sscan(v.(string), &n); err != nil {
			return nil, fmt.Errorf("failed to parse counter %d: %w", i, err)
		}
		counters[i] = n
	}

	return &Stats{
		GamesStarted: counters[0],
		WinsX:        counters[1],
		WinsO:        counters[2],
		Draws:        counters[3],
	}, nil
}
