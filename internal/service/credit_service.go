package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/repository"
)

var ErrInsufficientCredits = errors.New("额度已用完，每月自动重置")

const recentCreditEntries = 20

// CreditService 额度账本：扣减、重置、流水
type CreditService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	creditRepo *repository.CreditRepository
	cfg        *config.Config
	metrics    *metrics.Collector
	log        *zap.Logger
	now        func() time.Time
}

func NewCreditService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	creditRepo *repository.CreditRepository,
	cfg *config.Config,
	m *metrics.Collector,
	log *zap.Logger,
) *CreditService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CreditService{
		db:         db,
		userRepo:   userRepo,
		creditRepo: creditRepo,
		cfg:        cfg,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

// ConsumeTx 在事务 tx 中扣减一个额度并记录流水，返回扣减后的余额
func (s *CreditService) ConsumeTx(tx *gorm.DB, userID, taskID int64) (int, error) {
	users := s.userRepo.WithTx(tx)

	rows, err := users.ConsumeCredit(userID)
	if err != nil {
		return 0, err
	}

	user, err := users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if rows == 0 {
		return 0, ErrInsufficientCredits
	}

	entry := &model.CreditEntry{
		UserID:       userID,
		TaskID:       &taskID,
		Delta:        -1,
		BalanceAfter: user.Credits,
		Reason:       model.CreditReasonConsume,
	}
	if err := s.creditRepo.WithTx(tx).Create(entry); err != nil {
		return 0, fmt.Errorf("write credit entry: %w", err)
	}

	return user.Credits, nil
}

// Consume 独立事务中扣减一个额度
func (s *CreditService) Consume(userID, taskID int64) (int, error) {
	var balance int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		b, err := s.ConsumeTx(tx, userID, taskID)
		balance = b
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.RecordCreditConsumed()
	return balance, nil
}

// ResetTx 在事务 tx 中把余额和总量设为 total
func (s *CreditService) ResetTx(tx *gorm.DB, userID int64, total int) error {
	users := s.userRepo.WithTx(tx)

	user, err := users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := users.ResetCredits(userID, total, s.now()); err != nil {
		return err
	}

	entry := &model.CreditEntry{
		UserID:       userID,
		Delta:        total - user.Credits,
		BalanceAfter: total,
		Reason:       model.CreditReasonReset,
	}
	return s.creditRepo.WithTx(tx).Create(entry)
}

// Reset 重置单个用户额度
func (s *CreditService) Reset(userID int64, total int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.ResetTx(tx, userID, total)
	})
}

// ResetAll 每月重置所有有效高级会员的额度，返回成功重置的人数
func (s *CreditService) ResetAll() (int, error) {
	ids, err := s.userRepo.ListActivePremiumIDs(s.now())
	if err != nil {
		return 0, err
	}

	total := s.cfg.Credits.PremiumMonthly
	reset := 0
	var firstErr error
	for _, id := range ids {
		if err := s.Reset(id, total); err != nil {
			s.log.Error("reset credits failed", zap.Int64("user_id", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reset++
	}

	return reset, firstErr
}

// Summary 额度概览与最近流水
func (s *CreditService) Summary(userID int64) (*dto.CreditSummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	entries, err := s.creditRepo.ListByUser(userID, recentCreditEntries)
	if err != nil {
		return nil, err
	}

	summary := &dto.CreditSummary{
		CreditInfo: buildCreditInfo(user, s.now()),
		Recent:     make([]dto.CreditEntryItem, 0, len(entries)),
	}
	for _, e := range entries {
		summary.Recent = append(summary.Recent, dto.CreditEntryItem{
			TaskID:       e.TaskID,
			Delta:        e.Delta,
			BalanceAfter: e.BalanceAfter,
			Reason:       e.Reason,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}
	return summary, nil
}

func buildCreditInfo(user *model.User, now time.Time) dto.CreditInfo {
	info := dto.CreditInfo{
		Tier:             user.EffectiveTier(now),
		CreditsRemaining: user.Credits,
		CreditsTotal:     user.CreditsTotal,
	}
	if user.CreditsResetAt != nil {
		info.ResetAt = user.CreditsResetAt.Format(time.RFC3339)
	}
	return info
}
