// Package middleware 提供 HTTP 请求的中间件
// 包括匿名会话 Cookie、CORS 跨域、日志记录和发送限流
package middleware

import (
	"github.com/gin-gonic/gin"

	"chatbot-sehat-server/internal/session"
	"chatbot-sehat-server/pkg/jwt"
	"chatbot-sehat-server/pkg/response"
	"chatbot-sehat-server/pkg/util"
)

// SessionCookieName 会话 Cookie 名称
const SessionCookieName = "chat_session"

// SessionKey Gin 上下文中会话对象的键
const SessionKey = "session"

// SessionMiddleware 创建匿名会话中间件
// 首次访问时生成一次匿名标识并下发签名 Cookie；
// 之后的每个请求通过 Cookie 映射回同一个服务端会话对象
// 参数:
//   - jwtService: JWT 服务实例，用于签发和验证会话 Cookie
//   - manager: 会话管理器
//
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func SessionMiddleware(jwtService *jwt.JWTService, manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID, tokenID string

		// 1. 读取并验证已有的会话 Cookie
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			if claims, err := jwtService.ValidateSessionToken(cookie); err == nil {
				userID = claims.UserID
				tokenID = claims.ID
			}
		}

		// 2. Cookie 缺失或失效：生成新的匿名标识并下发新 Cookie
		// 标识在会话生命周期内保持稳定，只用于给历史记录打标签
		if tokenID == "" {
			userID = util.GenerateAnonID()
			token, id, err := jwtService.GenerateSessionToken(userID)
			if err != nil {
				response.InternalError(c, "failed to establish session")
				c.Abort()
				return
			}
			tokenID = id
			// MaxAge 为 0：随浏览器会话结束而失效
			c.SetCookie(SessionCookieName, token, 0, "/", "", false, true)
		}

		// 3. 将会话对象存入上下文，供后续 Handler 使用
		sess := manager.GetOrCreate(tokenID, userID)
		c.Set(SessionKey, sess)

		c.Next()
	}
}

// GetSession 从 Gin 上下文取出会话对象
// 只能在 SessionMiddleware 之后的 Handler 中调用
func GetSession(c *gin.Context) *session.Session {
	return c.MustGet(SessionKey).(*session.Session)
}
