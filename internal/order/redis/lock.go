package redis

import (
	"context"
	"fmt"
	"time"

	"dreamstate-ticketing/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	fulfillmentPrefix = "fulfillment_lock:"
	redemptionPrefix  = "redemption_lock:"
)

// unlockScript deletes the key only while it still holds the caller's owner value.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client         *redis.Client
	Logger         *logger.Logger
	FulfillmentTTL time.Duration
	RedemptionTTL  time.Duration
}

func NewRedis(client *redis.Client, fulfillmentTTL, redemptionTTL time.Duration, log *logger.Logger) *Redis {
	return &Redis{
		Client:         client,
		Logger:         log,
		FulfillmentTTL: fulfillmentTTL,
		RedemptionTTL:  redemptionTTL,
	}
}

func (r *Redis) lock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := r.Client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		r.Logger.Debug("REDIS", fmt.Sprintf("Lock %s already held", key))
	}
	return ok, nil
}

func (r *Redis) unlock(ctx context.Context, key, owner string) error {
	if err := unlockScript.Run(ctx, r.Client, []string{key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// LockFulfillment guards one checkout session while its webhook is processed.
func (r *Redis) LockFulfillment(ctx context.Context, sessionID, owner string) (bool, error) {
	return r.lock(ctx, fulfillmentPrefix+sessionID, owner, r.FulfillmentTTL)
}

func (r *Redis) UnlockFulfillment(ctx context.Context, sessionID, owner string) error {
	return r.unlock(ctx, fulfillmentPrefix+sessionID, owner)
}

// LockRedemption guards one normalized email during in-person redemption.
func (r *Redis) LockRedemption(ctx context.Context, email, owner string) (bool, error) {
	return r.lock(ctx, redemptionPrefix+email, owner, r.RedemptionTTL)
}

func (r *Redis) UnlockRedemption(ctx context.Context, email, owner string) error {
	return r.unlock(ctx, redemptionPrefix+email, owner)
}
