package model

import (
	"time"
)

const (
	CreditReasonConsume = "consume"
	CreditReasonReset   = "reset"
)

// CreditEntry 额度流水，只追加
type CreditEntry struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       int64     `gorm:"not null;index" json:"user_id"`
	TaskID       *int64    `gorm:"index" json:"task_id,omitempty"`
	Delta        int       `gorm:"not null" json:"delta"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	Reason       string    `gorm:"size:20;not null" json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CreditEntry) TableName() string {
	return "credit_entries"
}
