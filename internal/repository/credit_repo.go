package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) WithTx(tx *gorm.DB) *CreditRepository {
	return &CreditRepository{db: tx}
}

func (r *CreditRepository) Create(entry *model.CreditEntry) error {
	return r.db.Create(entry).Error
}

func (r *CreditRepository) ListByUser(userID int64, limit int) ([]model.CreditEntry, error) {
	var entries []model.CreditEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SumConsumed 累计扣减的额度
func (r *CreditRepository) SumConsumed() (int64, error) {
	var total int64
	err := r.db.Model(&model.CreditEntry{}).
		Where("reason = ?", model.CreditReasonConsume).
		Select("COALESCE(SUM(-delta), 0)").
		Scan(&total).Error
	return total, err
}
