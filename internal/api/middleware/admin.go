package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

// RequireAdmin 仅管理员可访问，需放在 Auth 之后
func RequireAdmin(checker service.AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			return
		}

		isAdmin, err := checker.IsAdmin(userID)
		if err != nil {
			response.ServerError(c, "权限检查失败")
			return
		}
		if !isAdmin {
			response.PermissionError(c, "需要管理员权限")
			return
		}

		c.Next()
	}
}
