package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/api/handler"
	"github.com/qs3c/prep_go_server/internal/api/middleware"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/service"
)

type Router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	taskHandler    *handler.TaskHandler
	paymentHandler *handler.PaymentHandler
	uploadHandler  *handler.UploadHandler
	adminHandler   *handler.AdminHandler
	healthHandler  *handler.HealthHandler

	authenticator middleware.Authenticator
	adminChecker  service.AdminChecker
	rateLimiter   *middleware.RateLimiter
	metrics       *metrics.Collector
	gatherer      prometheus.Gatherer
	log           *zap.Logger
	cfg           *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	taskHandler *handler.TaskHandler,
	paymentHandler *handler.PaymentHandler,
	uploadHandler *handler.UploadHandler,
	adminHandler *handler.AdminHandler,
	healthHandler *handler.HealthHandler,
	authenticator middleware.Authenticator,
	adminChecker service.AdminChecker,
	m *metrics.Collector,
	gatherer prometheus.Gatherer,
	log *zap.Logger,
	cfg *config.Config,
) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		authHandler:    authHandler,
		userHandler:    userHandler,
		taskHandler:    taskHandler,
		paymentHandler: paymentHandler,
		uploadHandler:  uploadHandler,
		adminHandler:   adminHandler,
		healthHandler:  healthHandler,
		authenticator:  authenticator,
		adminChecker:   adminChecker,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimit),
		metrics:        m,
		gatherer:       gatherer,
		log:            log,
		cfg:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.Metrics(r.metrics))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", r.healthHandler.Healthz)
	if r.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(r.gatherer)))
	}

	api := engine.Group("/api/v1")
	{
		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 公开接口 - 套餐
		api.GET("/payments/plans", r.paymentHandler.Plans)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.authenticator))
		{
			authenticated.POST("/auth/logout", r.authHandler.Logout)

			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
				user.GET("/credits", r.userHandler.GetCredits)
			}

			// 任务
			tasks := authenticated.Group("/tasks")
			{
				tasks.POST("", r.rateLimiter.Middleware(), r.taskHandler.Submit)
				tasks.GET("", r.taskHandler.List)
				tasks.GET("/:id", r.taskHandler.Get)
			}
			authenticated.POST("/practice/:id/answer", r.taskHandler.AnswerPractice)

			// 上传
			authenticated.POST("/upload", r.uploadHandler.Upload)

			// 支付
			payments := authenticated.Group("/payments")
			{
				payments.POST("/intents", r.paymentHandler.CreateIntent)
				payments.GET("/intents/:id", r.paymentHandler.GetIntent)
				payments.POST("/confirm", r.paymentHandler.Confirm)
			}

			// 管理后台
			admin := authenticated.Group("/admin")
			admin.Use(middleware.RequireAdmin(r.adminChecker))
			{
				admin.GET("/stats", r.adminHandler.Stats)
				admin.GET("/users", r.adminHandler.ListUsers)
				admin.GET("/payments", r.adminHandler.ListPayments)
			}
		}
	}

	return engine
}
