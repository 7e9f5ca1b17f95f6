package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

var seq int64

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := atomic.AddInt64(&seq, 1)
	user := &model.User{
		Name:             fmt.Sprintf("student_%d", n),
		Email:            fmt.Sprintf("test_%d_%d@example.com", n, time.Now().UnixNano()),
		PasswordHash:     "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Role:             model.RoleStudent,
		SubscriptionTier: model.TierFree,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithPremium 设置为高级会员，有效期 30 天
func WithPremium(credits int) func(*model.User) {
	return func(u *model.User) {
		expires := time.Now().Add(30 * 24 * time.Hour)
		u.SubscriptionTier = model.TierPremium
		u.PremiumExpiresAt = &expires
		u.Credits = credits
		u.CreditsTotal = credits
	}
}

// WithCredits 设置剩余额度
func WithCredits(credits int) func(*model.User) {
	return func(u *model.User) {
		u.Credits = credits
	}
}

// WithPremiumExpiresAt 设置会员过期时间
func WithPremiumExpiresAt(at time.Time) func(*model.User) {
	return func(u *model.User) {
		u.PremiumExpiresAt = &at
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// TestTask 创建测试任务
func TestTask(t *testing.T, db *gorm.DB, userID int64, kind model.TaskKind, status string) *model.TaskSubmission {
	t.Helper()

	task := &model.TaskSubmission{
		UserID: userID,
		Kind:   kind,
		Title:  "Test Task",
		Input:  model.Fields{"question": "What is a derivative?"},
		Status: status,
	}
	if status == model.TaskStatusCompleted {
		now := time.Now()
		task.Output = "A derivative measures change."
		task.WordCount = 4
		task.CompletedAt = &now
	}

	if err := db.Create(task).Error; err != nil {
		t.Fatalf("Failed to create test task: %v", err)
	}

	return task
}

// TestIntent 创建测试支付意向
func TestIntent(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.PaymentIntent)) *model.PaymentIntent {
	t.Helper()

	now := time.Now()
	intent := &model.PaymentIntent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      "monthly",
		Currency:  "USDT",
		Network:   "Ethereum (ERC20)",
		Address:   "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",
		PriceUSD:  29.99,
		Amount:    29.99,
		Status:    model.IntentStatusCreated,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}

	for _, opt := range opts {
		opt(intent)
	}

	if err := db.Create(intent).Error; err != nil {
		t.Fatalf("Failed to create test intent: %v", err)
	}

	return intent
}

// WithIntentStatus 设置意向状态
func WithIntentStatus(status string) func(*model.PaymentIntent) {
	return func(p *model.PaymentIntent) {
		p.Status = status
	}
}

// WithIntentExpiresAt 设置过期时间
func WithIntentExpiresAt(at time.Time) func(*model.PaymentIntent) {
	return func(p *model.PaymentIntent) {
		p.ExpiresAt = at
	}
}

// WithIntentCurrency 设置币种
func WithIntentCurrency(currency string) func(*model.PaymentIntent) {
	return func(p *model.PaymentIntent) {
		p.Currency = currency
	}
}
