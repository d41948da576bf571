// Package cache 提供 Redis 缓存操作的封装
// 目前只承载发送频率限制的计数器
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatbot-sehat-server/internal/config"
)

// RedisCache 封装 Redis 客户端，提供业务相关的缓存操作
type RedisCache struct {
	client *redis.Client // Redis 客户端实例
}

// NewRedisCache 创建 RedisCache 实例
// 参数:
//   - cfg: 应用配置（包含 Redis 连接信息）
//
// 返回:
//   - *RedisCache: 缓存实例
//   - error: 连接错误
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Username: cfg.Redis.Username, // 阿里云 Redis 需要用户名
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// ==================== 发送频率限制 ====================
// 固定窗口计数：INCR + EXPIRE NX 打包在同一个事务管道里发出

// IncrSendCount 累加某个会话在当前窗口内的发送次数
// EXPIRE NX 只在键没有过期时间的情况下生效：
// 既不会让后续 INCR 延长窗口，也能补上历史遗留的无过期键
// 参数:
//   - ctx: 上下文
//   - userID: 匿名用户标识
//   - window: 窗口长度
//
// 返回:
//   - int64: 累加后的计数值
//   - error: Redis 操作错误
func (c *RedisCache) IncrSendCount(ctx context.Context, userID string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("chat:%s:send_count", userID)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}
