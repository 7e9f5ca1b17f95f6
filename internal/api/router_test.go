package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/api/handler"
	"github.com/qs3c/prep_go_server/internal/pkg/llm"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/pkg/rates"
	"github.com/qs3c/prep_go_server/internal/pkg/tokenstore"
	"github.com/qs3c/prep_go_server/internal/pkg/txverify"
	"github.com/qs3c/prep_go_server/internal/repository"
	"github.com/qs3c/prep_go_server/internal/service"
	"github.com/qs3c/prep_go_server/internal/testutil"
)

func setupEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.Default()
	cfg.JWT.Secret = "router-test-secret"
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	authService := service.NewAuthService(userRepo, tokenstore.New(rdb), cfg, nil)
	credits := service.NewCreditService(db, userRepo, creditRepo, cfg, collector, nil)
	taskService := service.NewTaskService(
		db,
		taskRepo,
		userRepo,
		repository.NewPracticeRepository(db),
		service.NewGate(cfg.Tasks.FreeKinds),
		service.NewExecutor(llm.NewClient(cfg.LLM, nil), collector, nil),
		credits,
		collector,
		nil,
	)
	paymentService := service.NewPaymentService(
		db,
		paymentRepo,
		userRepo,
		repository.NewSubscriptionRepository(db),
		credits,
		rates.NewStaticProvider(cfg.Payment.Currencies),
		txverify.FormatVerifier{},
		cfg,
		collector,
		nil,
	)
	adminService := service.NewAdminService(userRepo, taskRepo, paymentRepo, creditRepo)

	router := NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(service.NewUserService(userRepo), credits),
		handler.NewTaskHandler(taskService),
		handler.NewPaymentHandler(paymentService),
		handler.NewUploadHandler(service.NewUploadService(nil, cfg, nil)),
		handler.NewAdminHandler(adminService),
		handler.NewHealthHandler(nil),
		authService,
		adminService,
		collector,
		registry,
		nil,
		cfg,
	)
	return router.Setup()
}

func TestRouter_Routes(t *testing.T) {
	engine := setupEngine(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/healthz", http.StatusOK},
		{"GET", "/api/v1/payments/plans", http.StatusOK},
		{"GET", "/api/v1/user/profile", http.StatusUnauthorized},
		{"POST", "/api/v1/tasks", http.StatusUnauthorized},
		{"GET", "/api/v1/tasks/1", http.StatusUnauthorized},
		{"POST", "/api/v1/payments/confirm", http.StatusUnauthorized},
		{"GET", "/api/v1/admin/stats", http.StatusUnauthorized},
		{"POST", "/api/v1/auth/logout", http.StatusUnauthorized},
		{"GET", "/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	engine := setupEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "prep_http_requests_total"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	engine := setupEngine(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
