// Package jwt 提供会话 Cookie 的生成和验证功能
// 匿名会话没有账号体系，Cookie 里的 JWT 只承载匿名标识和令牌 ID
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 定义错误类型
var (
	ErrInvalidToken = errors.New("invalid token")     // Token 无效
	ErrExpiredToken = errors.New("token has expired") // Token 已过期
)

// SessionClaims 会话 JWT 的声明（Payload）
// UserID 是一次性生成的匿名标识，RegisteredClaims.ID 作为服务端会话键
type SessionClaims struct {
	UserID string `json:"user_id"` // 匿名标识，如 anon-1234
	jwt.RegisteredClaims
}

// JWTService 提供会话 Token 相关操作
type JWTService struct {
	secret []byte        // JWT 签名密钥
	expire time.Duration // Token 过期时间
}

// NewJWTService 创建 JWTService 实例
// 参数:
//   - secret: JWT 签名密钥
//   - expire: Token 过期时间
//
// 返回:
//   - *JWTService: JWT 服务实例
func NewJWTService(secret string, expire time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expire: expire,
	}
}

// GenerateSessionToken 生成会话 Token
// 每个浏览器会话调用一次，令牌 ID 使用 UUID v4
// 参数:
//   - userID: 匿名标识
//
// 返回:
//   - string: JWT Token 字符串
//   - string: 令牌 ID（服务端会话键）
//   - error: 生成错误
func (s *JWTService) GenerateSessionToken(userID string) (string, string, error) {
	tokenID := uuid.New().String()

	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			// ID: 令牌唯一标识，同时作为服务端会话映射的键
			ID: tokenID,
			// ExpiresAt: Token 过期时间
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expire)),
			// IssuedAt: Token 签发时间
			IssuedAt: jwt.NewNumericDate(time.Now()),
			// NotBefore: Token 生效时间（设为现在）
			NotBefore: jwt.NewNumericDate(time.Now()),
			// Issuer: 签发者标识
			Issuer: "chatbot-sehat",
			// Subject: 主题
			Subject: "session",
		},
	}

	// jwt.SigningMethodHS256: 使用 HMAC SHA256 算法签名
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", err
	}
	return signed, tokenID, nil
}

// ValidateSessionToken 验证会话 Token
// 参数:
//   - tokenString: JWT Token 字符串
//
// 返回:
//   - *SessionClaims: Token 中的声明信息
//   - error: 验证错误（无效或已过期）
func (s *JWTService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法，确保使用的是我们期望的算法（HMAC）
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		// 检查是否是过期错误
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	// 类型断言获取 claims
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
