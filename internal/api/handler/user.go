package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/api/middleware"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

type UserHandler struct {
	userService   *service.UserService
	creditService *service.CreditService
}

func NewUserHandler(userService *service.UserService, creditService *service.CreditService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		creditService: creditService,
	}
}

// GetProfile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.userService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		serverError(c, err)
		return
	}

	response.Success(c, info)
}

// UpdateProfile 更新用户信息
// PUT /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.userService.UpdateProfile(userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		serverError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", info)
}

// GetCredits 额度与最近流水
// GET /api/v1/user/credits
func (h *UserHandler) GetCredits(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	summary, err := h.creditService.Summary(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		serverError(c, err)
		return
	}

	response.Success(c, summary)
}
