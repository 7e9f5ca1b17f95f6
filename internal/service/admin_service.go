package service

import (
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/repository"
)

var ErrInvalidRole = errors.New("无效的角色")

// AdminChecker 判断用户是否为管理员
type AdminChecker interface {
	IsAdmin(userID int64) (bool, error)
}

type AdminService struct {
	userRepo    *repository.UserRepository
	taskRepo    *repository.TaskRepository
	paymentRepo *repository.PaymentRepository
	creditRepo  *repository.CreditRepository
	now         func() time.Time
}

func NewAdminService(
	userRepo *repository.UserRepository,
	taskRepo *repository.TaskRepository,
	paymentRepo *repository.PaymentRepository,
	creditRepo *repository.CreditRepository,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		paymentRepo: paymentRepo,
		creditRepo:  creditRepo,
		now:         time.Now,
	}
}

func (s *AdminService) IsAdmin(userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}

// Stats 后台统计
func (s *AdminService) Stats() (*dto.AdminStats, error) {
	total, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}
	premium, err := s.userRepo.CountActivePremium(s.now())
	if err != nil {
		return nil, err
	}
	byKind, err := s.taskRepo.CountByKind()
	if err != nil {
		return nil, err
	}
	byStatus, err := s.taskRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	revenue, err := s.paymentRepo.SumConfirmedRevenue()
	if err != nil {
		return nil, err
	}
	consumed, err := s.creditRepo.SumConsumed()
	if err != nil {
		return nil, err
	}

	return &dto.AdminStats{
		TotalUsers:       total,
		PremiumUsers:     premium,
		FreeUsers:        total - premium,
		TasksByKind:      byKind,
		TasksByStatus:    byStatus,
		PaymentsByStatus: payments,
		ConfirmedRevenue: Round2(revenue),
		CreditsConsumed:  consumed,
	}, nil
}

// ListUsers 用户列表
func (s *AdminService) ListUsers(query *dto.ListQuery) ([]dto.AdminUser, int64, error) {
	query.Normalize()

	users, total, err := s.userRepo.List(query.Page, query.PageSize)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	items := make([]dto.AdminUser, 0, len(users))
	for _, u := range users {
		item := dto.AdminUser{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			Role:             u.Role,
			SubscriptionTier: u.EffectiveTier(now),
			Credits:          u.Credits,
			CreatedAt:        u.CreatedAt.Format(time.RFC3339),
		}
		if u.PremiumExpiresAt != nil {
			item.PremiumExpiresAt = u.PremiumExpiresAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// ListPayments 支付订单列表，status 为空时返回全部
func (s *AdminService) ListPayments(status string, query *dto.ListQuery) ([]dto.AdminPayment, int64, error) {
	query.Normalize()

	intents, total, err := s.paymentRepo.List(status, query.Page, query.PageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.AdminPayment, 0, len(intents))
	for _, p := range intents {
		item := dto.AdminPayment{
			ID:        p.ID,
			UserID:    p.UserID,
			Plan:      p.Plan,
			Currency:  p.Currency,
			Amount:    p.Amount,
			PriceUSD:  p.PriceUSD,
			Status:    p.Status,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
		if p.TxHash != nil {
			item.TxHash = *p.TxHash
		}
		if p.ConfirmedAt != nil {
			item.ConfirmedAt = p.ConfirmedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, total, nil
}

// SetRole 按邮箱设置角色
func (s *AdminService) SetRole(email, role string) error {
	if role != model.RoleAdmin && role != model.RoleStudent {
		return ErrInvalidRole
	}
	rows, err := s.userRepo.SetRole(strings.ToLower(strings.TrimSpace(email)), role)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Round2 保留 2 位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
