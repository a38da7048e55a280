package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/FreecityDong/gandengyan/logger"
)

// InitRedis 连接 Redis；连接失败不致命，累计分持久化会退化为仅内存
func InitRedis(addr, password string, db int) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Warnf("⚠️ Redis 连接失败，累计分仅保留在内存中: %v", err)
		return nil
	}
	logger.Infof("✅ Redis 连接成功: %s", addr)
	return rdb
}
