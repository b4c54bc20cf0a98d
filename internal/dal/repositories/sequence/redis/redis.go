package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/corray333/fasttech/internal/dal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

// keyTTL keeps a day's counter around long enough for late requests around midnight.
const keyTTL = 48 * time.Hour

// SequenceRepository issues per-day order sequences with INCR.
type SequenceRepository struct {
	client *redis.Client
	prefix string
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(client *redis.Client) *SequenceRepository {
	return &SequenceRepository{
		client: client,
		prefix: "orders:seq:",
	}
}

// Next returns the next sequence for the UTC day of day, starting at 1.
func (r *SequenceRepository) Next(ctx context.Context, day time.Time) (int64, error) {
	ctx, span := otel.Tracer("repository").Start(ctx, "SequenceRepository.Next")
	defer span.End()

	key := r.prefix + day.UTC().Format("20060102")

	var incr *goredis.IntCmd
	_, err := r.client.Redis().TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, keyTTL)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment order sequence: %w", err)
	}

	return incr.Val(), nil
}
