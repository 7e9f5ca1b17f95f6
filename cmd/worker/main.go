package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/database"
	"github.com/qs3c/prep_go_server/internal/pkg/cron"
	"github.com/qs3c/prep_go_server/internal/pkg/logger"
	"github.com/qs3c/prep_go_server/internal/pkg/rates"
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

	userRepo := repository.NewUserRepository(db)
	creditService := service.NewCreditService(db, userRepo, repository.NewCreditRepository(db), cfg, nil, zl)
	paymentService := service.NewPaymentService(
		db,
		repository.NewPaymentRepository(db),
		userRepo,
		repository.NewSubscriptionRepository(db),
		creditService,
		rates.NewStaticProvider(cfg.Payment.Currencies),
		txverify.FormatVerifier{},
		cfg,
		nil,
		zl,
	)
	uploadService := service.NewUploadService(nil, cfg, zl)

	scheduler := cron.NewService(creditService, paymentService, uploadService, cfg, zl)
	if err := scheduler.Setup(); err != nil {
		zl.Fatal("failed to register cron jobs", zap.Error(err))
	}
	scheduler.Start()
	zl.Info("worker started", zap.Int("jobs", scheduler.Entries()))

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	zl.Info("received shutdown signal")

	// 等待正在运行的任务结束
	<-scheduler.Stop().Done()
	zl.Info("worker shutdown complete")
}
