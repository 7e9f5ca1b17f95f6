package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/prep_go_server/internal/pkg/response"
)

// serverError 记录原始错误供请求日志输出，只向客户端返回通用信息
func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.ServerError(c, "")
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的 ID")
		return 0, false
	}
	return id, true
}
