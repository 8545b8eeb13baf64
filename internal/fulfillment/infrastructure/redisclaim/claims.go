package redisclaim

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claims holds short-lived SETNX claims on (category, date, slot) keys so two
// checkouts racing for the same slot usually fail fast instead of both
// reaching the booking insert.
type Claims struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Claims {
	return &Claims{rdb: rdb, ttl: ttl}
}

func (c *Claims) Claim(ctx context.Context, categoryID, date, slot string) (bool, error) {
	key := fmt.Sprintf("slot:%s:%s:%s", categoryID, date, slot)
	return c.rdb.SetNX(ctx, key, "1", c.ttl).Result()
}
