package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ConsumeCredit 条件扣减一个额度，余额为 0 时不修改，返回受影响行数
func (r *UserRepository) ConsumeCredit(id int64) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("id = ? AND credits > 0", id).
		Update("credits", gorm.Expr("credits - 1"))
	return result.RowsAffected, result.Error
}

// ResetCredits 重置余额与额度总量
func (r *UserRepository) ResetCredits(id int64, total int, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"credits":          total,
		"credits_total":    total,
		"credits_reset_at": at,
	}).Error
}

// UpgradePremium 升级为高级会员并设置到期时间
func (r *UserRepository) UpgradePremium(id int64, expiresAt time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"subscription_tier":  model.TierPremium,
		"premium_expires_at": expiresAt,
	}).Error
}

// ListActivePremiumIDs 返回 now 时刻仍在有效期内的高级会员
func (r *UserRepository) ListActivePremiumIDs(now time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&model.User{}).
		Where("subscription_tier = ?", model.TierPremium).
		Where("premium_expires_at IS NULL OR premium_expires_at > ?", now).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// DowngradeExpired 将过期的高级会员降级为免费用户并清空额度
func (r *UserRepository) DowngradeExpired(now time.Time) (int64, error) {
	result := r.db.Model(&model.User{}).
		Where("subscription_tier = ? AND premium_expires_at IS NOT NULL AND premium_expires_at <= ?", model.TierPremium, now).
		Updates(map[string]interface{}{
			"subscription_tier": model.TierFree,
			"credits":           0,
			"credits_total":     0,
		})
	return result.RowsAffected, result.Error
}

// SetRole 按邮箱设置角色
func (r *UserRepository) SetRole(email, role string) (int64, error) {
	result := r.db.Model(&model.User{}).Where("email = ?", email).Update("role", role)
	return result.RowsAffected, result.Error
}

func (r *UserRepository) List(page, pageSize int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.db.Model(&model.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

// CountActivePremium 统计 now 时刻有效的高级会员数
func (r *UserRepository) CountActivePremium(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).
		Where("subscription_tier = ?", model.TierPremium).
		Where("premium_expires_at IS NULL OR premium_expires_at > ?", now).
		Count(&count).Error
	return count, err
}
