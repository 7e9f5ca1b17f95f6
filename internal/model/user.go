package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	TierFree    = "free"
	TierPremium = "premium"

	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:100" json:"name"`
	Email            string         `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash     string         `gorm:"size:255;not null" json:"-"`
	Role             string         `gorm:"size:20;default:student" json:"role"`
	SubscriptionTier string         `gorm:"size:20;default:free;index" json:"subscription_tier"`
	Credits          int            `gorm:"not null;default:0" json:"credits"`
	CreditsTotal     int            `gorm:"not null;default:0" json:"credits_total"`
	CreditsResetAt   *time.Time     `json:"credits_reset_at,omitempty"`
	PremiumExpiresAt *time.Time     `gorm:"index" json:"premium_expires_at,omitempty"`
	ExamType         string         `gorm:"size:20" json:"exam_type,omitempty"` // IELTS, SAT, GMAT, GRE, ACT
	TargetScore      string         `gorm:"size:20" json:"target_score,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// EffectiveTier 返回 now 时刻实际生效的套餐，过期的 premium 视为 free
func (u *User) EffectiveTier(now time.Time) string {
	if u.SubscriptionTier != TierPremium {
		return TierFree
	}
	if u.PremiumExpiresAt != nil && !now.Before(*u.PremiumExpiresAt) {
		return TierFree
	}
	return TierPremium
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
