package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/api/middleware"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/service"
)

type UploadHandler struct {
	uploadService *service.UploadService
}

func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

// Upload 上传作业文档，返回文本内容
// POST /api/v1/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.ParamError(c, "请上传文件")
		return
	}
	defer file.Close()

	result, err := h.uploadService.Upload(userID, header.Filename, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge),
			errors.Is(err, service.ErrInvalidFormat),
			errors.Is(err, service.ErrInvalidEncoding),
			errors.Is(err, service.ErrEmptyUpload):
			response.ParamError(c, err.Error())
		default:
			serverError(c, err)
		}
		return
	}

	response.Success(c, result)
}
