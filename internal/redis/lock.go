package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"club95/internal/logger"
)

// Redis holds short-lived purchase locks per ticket tier. A lock only
// thins the herd in front of the database row lock; expiry makes sure an
// abandoned purchase never wedges a tier.
type Redis struct {
	Client *redis.Client
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, log *logger.Logger) *Redis {
	return &Redis{Client: client, Logger: log}
}

func (r *Redis) lockDuration() time.Duration {
	defaultDuration := 30 * time.Second

	ttlStr := os.Getenv("TIER_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("REDIS", "Invalid TIER_LOCK_TTL_SECONDS value '"+ttlStr+"', using default 30 seconds")
		}
		return defaultDuration
	}
	return time.Duration(ttlSec) * time.Second
}

func (r *Redis) lockTier(ctx context.Context, ticketID, token string) (bool, error) {
	key := "tier_lock:" + ticketID
	return r.Client.SetNX(ctx, key, token, r.lockDuration()).Result()
}

func (r *Redis) unlockTier(ctx context.Context, ticketID, token string) error {
	key := fmt.Sprintf("tier_lock:%s", ticketID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	// Only the holder may release it.
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockTiers locks every tier in the selection or none of them.
func (r *Redis) LockTiers(ctx context.Context, ticketIDs []string, token string) (bool, error) {
	locked := []string{}
	for _, ticketID := range ticketIDs {
		ok, err := r.lockTier(ctx, ticketID, token)
		if err != nil {
			for _, l := range locked {
				_ = r.unlockTier(ctx, l, token)
			}
			return false, err
		}
		if !ok {
			for _, l := range locked {
				_ = r.unlockTier(ctx, l, token)
			}
			return false, nil
		}
		locked = append(locked, ticketID)
	}
	return true, nil
}

// UnlockTiers releases the locks held under token.
func (r *Redis) UnlockTiers(ctx context.Context, ticketIDs []string, token string) error {
	var firstErr error
	for _, ticketID := range ticketIDs {
		if err := r.unlockTier(ctx, ticketID, token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
