// 包 utils：Postgres 与 Redis 连接工具
package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"zone-api/internal/config"
	"zone-api/internal/logger"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：未启用或 Ping 失败时返回 nil，调用方回退到进程内缓存
func OpenRedis(ctx context.Context, rc config.Redis) *redis.Client {
	if !rc.Enabled || rc.Addr == "" {
		logger.L().Info("redis_disabled")
		return nil
	}
	logger.L().Debug("redis_env", "addr", rc.Addr, "db", rc.DB)
	c := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		logger.L().Error("redis_ping_error", "addr", rc.Addr, "err", err)
		_ = c.Close()
		return nil
	}
	logger.L().Info("redis_ping_ok", "addr", rc.Addr)
	return c
}
