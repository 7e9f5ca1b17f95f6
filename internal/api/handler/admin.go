package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// Stats 后台统计
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats()
	if err != nil {
		serverError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListUsers 用户列表
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	users, total, err := h.adminService.ListUsers(&query)
	if err != nil {
		serverError(c, err)
		return
	}
	response.SuccessPage(c, total, query.Page, query.PageSize, users)
}

// ListPayments 支付订单列表
// GET /api/v1/admin/payments?status=
func (h *AdminHandler) ListPayments(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	payments, total, err := h.adminService.ListPayments(c.Query("status"), &query)
	if err != nil {
		serverError(c, err)
		return
	}
	response.SuccessPage(c, total, query.Page, query.PageSize, payments)
}
