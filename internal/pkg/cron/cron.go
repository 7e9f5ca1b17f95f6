package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/qs3c/prep_go_server/config"
)

const (
	intentSweepSpec = "@every 5m"
	downgradeSpec   = "@hourly"
	cleanupSpec     = "@hourly"
)

// CreditResetter 每月额度重置
type CreditResetter interface {
	ResetAll() (int, error)
}

// PaymentSweeper 订单过期与会员降级
type PaymentSweeper interface {
	ExpireStale() (int64, error)
	DowngradeExpired() (int64, error)
}

// TempCleaner 上传临时目录清理
type TempCleaner interface {
	CleanupTemp(expire time.Duration) (int, error)
}

type Service struct {
	cron        *cron.Cron
	credits     CreditResetter
	payments    PaymentSweeper
	uploads     TempCleaner
	resetSpec   string
	expireHours int
	log         *zap.Logger
}

func NewService(
	credits CreditResetter,
	payments PaymentSweeper,
	uploads TempCleaner,
	cfg *config.Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(zapLogger{log.Sugar()}), cron.SkipIfStillRunning(zapLogger{log.Sugar()})),
		),
		credits:     credits,
		payments:    payments,
		uploads:     uploads,
		resetSpec:   cfg.Credits.ResetCron,
		expireHours: cfg.Upload.ExpireHours,
		log:         log,
	}
}

// Setup 注册全部定时任务
func (s *Service) Setup() error {
	jobs := []struct {
		spec string
		fn   func()
	}{
		{s.resetSpec, s.ResetCredits},
		{intentSweepSpec, s.ExpireIntents},
		{downgradeSpec, s.DowngradePremium},
		{cleanupSpec, s.CleanupUploads},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return err
		}
	}

	s.log.Info("cron jobs configured",
		zap.String("credit_reset", s.resetSpec),
		zap.String("intent_sweep", intentSweepSpec),
		zap.String("premium_downgrade", downgradeSpec),
		zap.String("upload_cleanup", cleanupSpec),
	)
	return nil
}

// Start 启动定时任务
func (s *Service) Start() {
	s.cron.Start()
	s.log.Info("cron service started")
}

// Stop 停止调度并等待运行中的任务结束
func (s *Service) Stop() context.Context {
	ctx := s.cron.Stop()
	s.log.Info("cron service stopped")
	return ctx
}

// Entries 已注册的任务数
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// ResetCredits 重置高级会员额度
func (s *Service) ResetCredits() {
	start := time.Now()
	n, err := s.credits.ResetAll()
	if err != nil {
		s.log.Error("credit reset finished with errors", zap.Int("reset", n), zap.Error(err))
		return
	}
	s.log.Info("credit reset completed", zap.Int("reset", n), zap.Duration("took", time.Since(start)))
}

// ExpireIntents 过期超时的支付订单
func (s *Service) ExpireIntents() {
	if _, err := s.payments.ExpireStale(); err != nil {
		s.log.Error("expire payment intents failed", zap.Error(err))
	}
}

// DowngradePremium 降级到期会员
func (s *Service) DowngradePremium() {
	if _, err := s.payments.DowngradeExpired(); err != nil {
		s.log.Error("downgrade expired premium failed", zap.Error(err))
	}
}

// CleanupUploads 清理过期的上传目录
func (s *Service) CleanupUploads() {
	expireHours := s.expireHours
	if expireHours <= 0 {
		expireHours = 1
	}

	n, err := s.uploads.CleanupTemp(time.Duration(expireHours) * time.Hour)
	if err != nil {
		s.log.Error("cleanup uploads failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("cleanup uploads", zap.Int("removed", n))
	}
}

// zapLogger 适配 cron.Logger
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
