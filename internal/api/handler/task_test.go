package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/pkg/llm"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
	"github.com/qs3c/prep_go_server/internal/repository"
	"github.com/qs3c/prep_go_server/internal/service"
	"github.com/qs3c/prep_go_server/internal/testutil"
)

const practiceOutput = `{"question":"Choose the synonym of 'rapid'.","options":["slow","quick","late","calm"],"correctAnswer":1,"explanation":"'Quick' means fast."}`

// fakeProvider 模拟 OpenAI chat completion 接口
type fakeProvider struct {
	content string
	status  int
	calls   int32
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&p.calls, 1)
	w.Header().Set("Content-Type", "application/json")
	if p.status != 0 {
		w.WriteHeader(p.status)
		fmt.Fprint(w, `{"error":{"message":"upstream unavailable","type":"server_error"}}`)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": p.content},
				"finish_reason": "stop",
			},
		},
	})
}

func (p *fakeProvider) Calls() int {
	return int(atomic.LoadInt32(&p.calls))
}

func setupTaskHandler(t *testing.T, provider *fakeProvider) (*TaskHandler, *testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	srv := httptest.NewServer(provider)
	cfg := testConfig()

	userRepo := repository.NewUserRepository(db)
	credits := service.NewCreditService(db, userRepo, repository.NewCreditRepository(db), cfg, nil, nil)
	client := llm.NewClient(config.LLMConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		Model:          "gpt-4o",
		TimeoutSeconds: 5,
	}, nil)

	taskService := service.NewTaskService(
		db,
		repository.NewTaskRepository(db),
		userRepo,
		repository.NewPracticeRepository(db),
		service.NewGate(cfg.Tasks.FreeKinds),
		service.NewExecutor(client, nil, nil),
		credits,
		nil,
		nil,
	)
	handler := NewTaskHandler(taskService)

	cleanup := func() {
		srv.Close()
		testutil.CleanupTestDB(t, db)
	}

	return handler, &testContext{DB: db}, cleanup
}

func taskRouter(handler *TaskHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(mockAuth(userID))
	router.POST("/tasks", handler.Submit)
	router.GET("/tasks", handler.List)
	router.GET("/tasks/:id", handler.Get)
	router.POST("/practice/:id/answer", handler.AnswerPractice)
	return router
}

func TestTaskHandler_Submit_Success(t *testing.T) {
	provider := &fakeProvider{content: "The passive voice moves the object to the front."}
	handler, ctx, cleanup := setupTaskHandler(t, provider)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithPremium(3))
	router := taskRouter(handler, user.ID)

	w := performRequest(router, "POST", "/tasks", map[string]interface{}{
		"kind":   "tutor",
		"fields": map[string]string{"question": "Explain the passive voice"},
	})
	resp := parseResponse(t, w)

	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, "The passive voice moves the object to the front.", data["output"])
	assert.Equal(t, float64(1), data["credits_used"])
	assert.Equal(t, float64(2), data["credits_remaining"])
	assert.Equal(t, 1, provider.Calls())
}

func TestTaskHandler_Submit_FreeTier(t *testing.T) {
	provider := &fakeProvider{content: "unused"}
	handler, ctx, cleanup := setupTaskHandler(t, provider)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithCredits(10))
	router := taskRouter(handler, user.ID)

	w := performRequest(router, "POST", "/tasks", map[string]interface{}{
		"kind":   "homework",
		"fields": map[string]string{"question": "Solve 2x = 4"},
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodeTierInsufficient, parseError(t, w).Code)
	assert.Zero(t, provider.Calls())
}

func TestTaskHandler_Submit_NoCredits(t *testing.T) {
	provider := &fakeProvider{content: "unused"}
	handler, ctx, cleanup := setupTaskHandler(t, provider)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithPremium(0))
	router := taskRouter(handler, user.ID)

	w := performRequest(router, "POST", "/tasks", map[string]interface{}{
		"kind":   "tutor",
		"fields": map[string]string{"question": "Why?"},
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.CodeQuotaExceeded, parseError(t, w).Code)
}

func TestTaskHandler_Submit_BadInput(t *testing.T) {
	handler, ctx, cleanup := setupTaskHandler(t, &fakeProvider{content: "unused"})
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithPremium(3))
	router := taskRouter(handler, user.ID)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"unknown kind", map[string]interface{}{"kind": "poetry", "fields": map[string]string{"question": "x"}}},
		{"missing field", map[string]interface{}{"kind": "tutor", "fields": map[string]string{}}},
		{"no kind", map[string]interface{}{"fields": map[string]string{"question": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, response.CodeParamError, parseError(t, w).Code)
		})
	}
}

func TestTaskHandler_Submit_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{status: http.StatusServiceUnavailable}
	handler, ctx, cleanup := setupTaskHandler(t, provider)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithPremium(3))
	router := taskRouter(handler, user.ID)

	w := performRequest(router, "POST", "/tasks", map[string]interface{}{
		"kind":   "tutor",
		"fields": map[string]string{"question": "Explain gravity"},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	errResp := parseError(t, w)
	assert.Equal(t, response.CodeExecutionFailed, errResp.Code)
	assert.NotContains(t, errResp.Error, "upstream")

	var reloaded model.User
	require.NoError(t, ctx.DB.First(&reloaded, user.ID).Error)
	assert.Equal(t, 3, reloaded.Credits)
}

func TestTaskHandler_PracticeFlow(t *testing.T) {
	handler, ctx, cleanup := setupTaskHandler(t, &fakeProvider{content: practiceOutput})
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB, testutil.WithPremium(3))
	router := taskRouter(handler, user.ID)

	w := performRequest(router, "POST", "/tasks", map[string]interface{}{
		"kind":   "practice",
		"fields": map[string]string{"category": "Vocabulary"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	practice := parseResponse(t, w).Data.(map[string]interface{})["practice"].(map[string]interface{})
	assert.Nil(t, practice["correct_answer"])
	qID := int64(practice["id"].(float64))

	path := fmt.Sprintf("/practice/%d/answer", qID)
	w = performRequest(router, "POST", path, map[string]int{"answer": 1})
	require.Equal(t, http.StatusOK, w.Code)

	result := parseResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, true, result["is_correct"])
	assert.Equal(t, float64(1), result["correct_answer"])

	w = performRequest(router, "POST", path, map[string]int{"answer": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(router, "POST", path, map[string]int{"answer": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_ListAndGet(t *testing.T) {
	handler, ctx, cleanup := setupTaskHandler(t, &fakeProvider{content: "unused"})
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	other := testutil.TestUser(t, ctx.DB)
	tutor := testutil.TestTask(t, ctx.DB, user.ID, model.TaskTutor, model.TaskStatusCompleted)
	testutil.TestTask(t, ctx.DB, user.ID, model.TaskHomework, model.TaskStatusCompleted)
	foreign := testutil.TestTask(t, ctx.DB, other.ID, model.TaskTutor, model.TaskStatusCompleted)

	router := taskRouter(handler, user.ID)

	w := performRequest(router, "GET", "/tasks?kind=tutor&page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := parseResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(1), page["total"])
	assert.Len(t, page["items"], 1)

	w = performRequest(router, "GET", fmt.Sprintf("/tasks/%d", tutor.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := parseResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "A derivative measures change.", detail["output"])

	w = performRequest(router, "GET", fmt.Sprintf("/tasks/%d", foreign.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "GET", "/tasks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
