package model

import (
	"time"
)

const (
	IntentStatusCreated   = "created"
	IntentStatusConfirmed = "confirmed"
	IntentStatusExpired   = "expired"
)

type PaymentIntent struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	Plan        string     `gorm:"size:20;not null" json:"plan"`
	Currency    string     `gorm:"size:20;not null" json:"currency"`
	Network     string     `gorm:"size:100" json:"network"`
	Address     string     `gorm:"size:100;not null" json:"address"`
	PriceUSD    float64    `gorm:"type:decimal(10,2)" json:"price_usd"`
	Amount      float64    `gorm:"type:decimal(24,8)" json:"amount"`
	Status      string     `gorm:"size:20;default:created;index" json:"status"`
	TxHash      *string    `gorm:"size:100;uniqueIndex" json:"tx_hash,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// Expired 判断 now 时刻是否已超过有效期
func (p *PaymentIntent) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
