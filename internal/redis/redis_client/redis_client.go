package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	poolPerCPU  = 4
	poolCap     = 256
	pingTimeout = 5 * time.Second
)

// NewRedisClient builds the client backing the presence stream and
// verifies the connection with a ping before handing it out.
func NewRedisClient(ctx context.Context, host string, port int) (*redis.Client, error) {
	pool := runtime.NumCPU() * poolPerCPU
	if pool > poolCap {
		pool = poolCap
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		PoolSize: pool,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zap.L().Error("redis_connect", zap.Error(err))
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
