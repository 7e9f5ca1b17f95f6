package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/api/middleware"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Submit 提交 AI 任务并同步返回结果
// POST /api/v1/tasks
func (h *TaskHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.taskService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		taskError(c, err)
		return
	}

	response.Success(c, resp)
}

// List 任务历史
// GET /api/v1/tasks?kind=&page=&page_size=
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.taskService.List(userID, c.Query("kind"), &query)
	if err != nil {
		taskError(c, err)
		return
	}

	response.SuccessPage(c, total, query.Page, query.PageSize, items)
}

// Get 任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.taskService.Get(userID, id)
	if err != nil {
		taskError(c, err)
		return
	}

	response.Success(c, detail)
}

// AnswerPractice 提交练习题答案
// POST /api/v1/practice/:id/answer
func (h *TaskHandler) AnswerPractice(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.AnswerPracticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.taskService.AnswerPractice(userID, id, *req.Answer)
	if err != nil {
		taskError(c, err)
		return
	}

	response.Success(c, result)
}

func taskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTaskKind), errors.Is(err, service.ErrMissingField):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrTierInsufficient):
		response.TierError(c, err.Error())
	case errors.Is(err, service.ErrInsufficientCredits):
		response.QuotaError(c, err.Error())
	case errors.Is(err, service.ErrExecutionFailed):
		_ = c.Error(err)
		response.Error(c, response.CodeExecutionFailed, service.ErrExecutionFailed.Error())
	case errors.Is(err, service.ErrTaskNotFound), errors.Is(err, service.ErrPracticeNotFound), errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrAlreadyAnswered):
		response.ConflictError(c, err.Error())
	default:
		serverError(c, err)
	}
}
