package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/api/middleware"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Plans 套餐与币种
// GET /api/v1/payments/plans
func (h *PaymentHandler) Plans(c *gin.Context) {
	response.Success(c, h.paymentService.Plans())
}

// CreateIntent 创建支付订单
// POST /api/v1/payments/intents
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), userID, &req)
	if err != nil {
		paymentError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetIntent 查询订单
// GET /api/v1/payments/intents/:id
func (h *PaymentHandler) GetIntent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.paymentService.GetIntent(userID, c.Param("id"))
	if err != nil {
		paymentError(c, err)
		return
	}

	response.Success(c, resp)
}

// Confirm 提交交易哈希确认支付
// POST /api/v1/payments/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.paymentService.Confirm(c.Request.Context(), userID, &req)
	if err != nil {
		paymentError(c, err)
		return
	}

	response.SuccessWithMessage(c, "支付成功，高级会员已开通", resp)
}

func paymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedPlan), errors.Is(err, service.ErrUnsupportedCurrency):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrIntentNotFound), errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrIntentExpired):
		response.GoneError(c, err.Error())
	case errors.Is(err, service.ErrIntentNotActionable), errors.Is(err, service.ErrTxAlreadyUsed):
		response.ConflictError(c, err.Error())
	case errors.Is(err, service.ErrInvalidProof):
		response.Error(c, response.CodeInvalidProof, err.Error())
	case errors.Is(err, service.ErrAccountMismatch):
		response.PermissionError(c, err.Error())
	default:
		serverError(c, err)
	}
}
