package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
	TokenKey  = "token"
)

// Authenticator 校验 token 并返回用户 ID
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// Auth JWT 认证中间件
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "请提供认证信息")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			response.AuthError(c, "认证格式错误")
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(TokenKey, tokenString)
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// GetToken 从上下文获取原始 token
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
