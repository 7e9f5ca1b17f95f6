package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(intent *model.PaymentIntent) error {
	return r.db.Create(intent).Error
}

func (r *PaymentRepository) GetByID(id string) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	err := r.db.Where("id = ?", id).First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// ConfirmIfActive 仅当意向仍为 created 且未过期时确认，返回受影响行数
func (r *PaymentRepository) ConfirmIfActive(id, txHash string, now time.Time) (int64, error) {
	result := r.db.Model(&model.PaymentIntent{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, model.IntentStatusCreated, now).
		Updates(map[string]interface{}{
			"status":       model.IntentStatusConfirmed,
			"tx_hash":      txHash,
			"confirmed_at": now,
		})
	return result.RowsAffected, result.Error
}

// MarkExpired 将单个 created 意向标记为过期
func (r *PaymentRepository) MarkExpired(id string) error {
	return r.db.Model(&model.PaymentIntent{}).
		Where("id = ? AND status = ?", id, model.IntentStatusCreated).
		Update("status", model.IntentStatusExpired).Error
}

// ExpireStale 批量过期超时的 created 意向
func (r *PaymentRepository) ExpireStale(now time.Time) (int64, error) {
	result := r.db.Model(&model.PaymentIntent{}).
		Where("status = ? AND expires_at <= ?", model.IntentStatusCreated, now).
		Update("status", model.IntentStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *PaymentRepository) ExistsByTxHash(txHash string) (bool, error) {
	var count int64
	err := r.db.Model(&model.PaymentIntent{}).Where("tx_hash = ?", txHash).Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepository) List(status string, page, pageSize int) ([]model.PaymentIntent, int64, error) {
	var intents []model.PaymentIntent
	var total int64

	query := r.db.Model(&model.PaymentIntent{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&intents).Error
	return intents, total, err
}

func (r *PaymentRepository) CountByStatus() (map[string]int64, error) {
	var rows []groupCount
	err := r.db.Model(&model.PaymentIntent{}).
		Select("status AS grp, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Grp] = row.Total
	}
	return counts, nil
}

// SumConfirmedRevenue 已确认支付的美元总额
func (r *PaymentRepository) SumConfirmedRevenue() (float64, error) {
	var total float64
	err := r.db.Model(&model.PaymentIntent{}).
		Where("status = ?", model.IntentStatusConfirmed).
		Select("COALESCE(SUM(price_usd), 0)").
		Scan(&total).Error
	return total, err
}
