package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"chatbot-sehat-server/internal/cache"
	"chatbot-sehat-server/pkg/response"
)

// 发送限流参数
// 固定窗口：每个匿名会话一分钟内最多 sendLimit 条消息
const (
	sendLimit  = 20
	sendWindow = time.Minute
)

// RateLimitMiddleware 创建发送限流中间件
// 只挂在发送消息的路由上；Redis 未配置时整体关闭
// 参数:
//   - redisCache: Redis 缓存实例，传 nil 表示不限流
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func RateLimitMiddleware(redisCache *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisCache == nil {
			c.Next()
			return
		}

		sess := GetSession(c)

		count, err := redisCache.IncrSendCount(c.Request.Context(), sess.UserID, sendWindow)
		if err != nil {
			// Redis 故障时放行：限流是保护措施，不能反过来挡住正常对话
			log.Printf("[WARN] rate limit check failed for %s: %v", sess.UserID, err)
			c.Next()
			return
		}

		if count > sendLimit {
			response.RateLimited(c, "too many messages, please wait a moment")
			c.Abort()
			return
		}

		c.Next()
	}
}
