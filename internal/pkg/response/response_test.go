package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestSuccess(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, gin.H{"key": "value"})
	})

	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", data["key"])
}

func TestSuccess_NilData(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, nil)
	})

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestSuccessWithMessage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessWithMessage(c, "已退出登录", nil)
	})

	resp := parseResponse(t, w)
	assert.Equal(t, "已退出登录", resp.Message)
}

func TestSuccessPage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessPage(c, 100, 1, 10, []string{"a", "b", "c"})
	})

	resp := parseResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(100), data["total"])
	assert.Equal(t, float64(1), data["page"])
	assert.Equal(t, float64(10), data["page_size"])

	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 3)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(*gin.Context, string)
		message    string
		wantStatus int
		wantCode   int
		wantError  string
	}{
		{"param", ParamError, "", http.StatusBadRequest, CodeParamError, "参数错误"},
		{"auth", AuthError, "token已过期", http.StatusUnauthorized, CodeAuthFailed, "token已过期"},
		{"permission", PermissionError, "", http.StatusForbidden, CodePermissionDenied, "权限不足"},
		{"tier", TierError, "", http.StatusForbidden, CodeTierInsufficient, "需要高级会员"},
		{"not found", NotFoundError, "任务不存在", http.StatusNotFound, CodeResourceNotFound, "任务不存在"},
		{"quota", QuotaError, "", http.StatusTooManyRequests, CodeQuotaExceeded, "额度不足"},
		{"rate limit", RateLimitError, "", http.StatusTooManyRequests, CodeRateLimited, "请求过于频繁"},
		{"conflict", ConflictError, "", http.StatusConflict, CodeConflict, "状态冲突"},
		{"gone", GoneError, "支付意向已过期", http.StatusGone, CodeExpired, "支付意向已过期"},
		{"server", ServerError, "", http.StatusInternalServerError, CodeServerError, "服务器内部错误"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(func(c *gin.Context) {
				tt.fn(c, tt.message)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := parseError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestError_InvalidProofAndExecution(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Error(c, CodeInvalidProof, "")
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(func(c *gin.Context) {
		Error(c, CodeExecutionFailed, "")
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "任务执行失败", parseError(t, w).Error)
}

func TestError_AbortsChain(t *testing.T) {
	router := gin.New()
	reached := false
	router.GET("/test", func(c *gin.Context) {
		AuthError(c, "")
	}, func(c *gin.Context) {
		reached = true
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestStatusOf_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(424242))
}
