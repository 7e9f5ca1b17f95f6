package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/api"
	"github.com/qs3c/prep_go_server/internal/api/handler"
	"github.com/qs3c/prep_go_server/internal/database"
	"github.com/qs3c/prep_go_server/internal/pkg/llm"
	"github.com/qs3c/prep_go_server/internal/pkg/logger"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/pkg/oss"
	"github.com/qs3c/prep_go_server/internal/pkg/rates"
	"github.com/qs3c/prep_go_server/internal/pkg/tokenstore"
	"github.com/qs3c/prep_go_server/internal/pkg/txverify"
	"github.com/qs3c/prep_go_server/internal/repository"
	"github.com/qs3c/prep_go_server/internal/service"
)

var configPath = flag.String("config", "config.yaml", "配置文件路径")

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	// 初始化数据库
	db, err := database.Open(&cfg.Database)
	if err != nil {
		zl.Fatal("failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zl.Fatal("failed to get sql.DB", zap.Error(err))
	}
	zl.Info("database connected", zap.String("driver", cfg.Database.Driver))

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zl.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	zl.Info("redis connected")

	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// 初始化 OSS（可选）
	var store service.DocumentStore
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			zl.Warn("failed to init OSS client, falling back to temp dir", zap.Error(err))
		} else {
			store = ossClient
			zl.Info("OSS client initialized", zap.String("bucket", cfg.OSS.BucketName))
		}
	}

	// 汇率：配置了行情源时使用实时汇率，静态汇率兜底
	var rateProvider rates.Provider = rates.NewStaticProvider(cfg.Payment.Currencies)
	if cfg.Rates.FeedURL != "" {
		rateProvider = rates.NewFeedProvider(cfg.Rates, cfg.Payment.Currencies, rdb, rateProvider, collector, zl)
		zl.Info("live rate feed enabled", zap.String("feed_url", cfg.Rates.FeedURL))
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, tokenstore.New(rdb), cfg, zl)
	userService := service.NewUserService(userRepo)
	creditService := service.NewCreditService(db, userRepo, creditRepo, cfg, collector, zl)
	executor := service.NewExecutor(llm.NewClient(cfg.LLM, zl), collector, zl)
	taskService := service.NewTaskService(
		db,
		taskRepo,
		userRepo,
		practiceRepo,
		service.NewGate(cfg.Tasks.FreeKinds),
		executor,
		creditService,
		collector,
		zl,
	)
	paymentService := service.NewPaymentService(
		db,
		paymentRepo,
		userRepo,
		subRepo,
		creditService,
		rateProvider,
		txverify.FormatVerifier{},
		cfg,
		collector,
		zl,
	)
	uploadService := service.NewUploadService(store, cfg, zl)
	adminService := service.NewAdminService(userRepo, taskRepo, paymentRepo, creditRepo)

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService, creditService),
		handler.NewTaskHandler(taskService),
		handler.NewPaymentHandler(paymentService),
		handler.NewUploadHandler(uploadService),
		handler.NewAdminHandler(adminService),
		handler.NewHealthHandler(sqlDB),
		authService,
		adminService,
		collector,
		registry,
		zl,
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	zl.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	zl.Info("server shutdown complete")
}
