package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

const (
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// ExpireEnded 标记已到期的订阅记录
func (r *SubscriptionRepository) ExpireEnded(now time.Time) (int64, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("status = ? AND expires_at <= ?", SubscriptionActive, now).
		Update("status", SubscriptionExpired)
	return result.RowsAffected, result.Error
}
