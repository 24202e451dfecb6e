package course

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"course-marketplace/internal/domain"
)

const cacheKeyPrefix = "course:"

// cachedRepo is a pull-through cache over the catalog. Misses and cache
// failures fall back to the inner repository; writes never happen here, so
// staleness is bounded only by the TTL.
type cachedRepo struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCached wraps a Repository with a Redis pull-through cache for single
// course lookups.
func NewCached(inner Repository, client *redis.Client, ttl time.Duration, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &cachedRepo{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedRepo) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	key := fmt.Sprintf("%s%d", cacheKeyPrefix, id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var c domain.Course
		if err := json.Unmarshal(data, &c); err == nil {
			return &c, nil
		}
		// corrupt entry, fall through to the source
	} else if err != redis.Nil {
		r.logger.Printf("course cache get %d: %v", id, err)
	}

	c, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(c); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Printf("course cache set %d: %v", id, err)
		}
	}
	return c, nil
}

func (r *cachedRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.Course, error) {
	return r.inner.ListByIDs(ctx, ids)
}

func (r *cachedRepo) ListPublished(ctx context.Context) ([]domain.Course, error) {
	return r.inner.ListPublished(ctx)
}
