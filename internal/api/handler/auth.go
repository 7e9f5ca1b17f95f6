package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/api/middleware"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.ConflictError(c, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "注册成功", resp)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// Logout 退出登录，当前 token 立即失效
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.GetToken(c)
	if token == "" {
		response.AuthError(c, "")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			response.AuthError(c, err.Error())
			return
		}
		serverError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已退出登录", nil)
}
