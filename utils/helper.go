package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mitrabooks/pos_backend/config"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// BusinessLock serializes a posting phase per business across instances.
// The lock is best-effort: without redis the caller proceeds unserialized, which is
// safe for correctness (row locks still guard the aggregates) but may retry more.
func BusinessLock(ctx context.Context, businessId string, lockType string, moduleName string, functionName string) (release func(), err error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	logger := config.GetLogger()
	lockKey := fmt.Sprintf("%s:%s", lockType, businessId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 20),
	})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for businessID", businessId, err)
		return nil, errors.New("could not obtain lock for businessID")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for businessID", businessId, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
