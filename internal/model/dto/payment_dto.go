package dto

// CreateIntentRequest 创建支付意向
type CreateIntentRequest struct {
	AccountID *int64 `json:"account_id,omitempty"`
	Plan      string `json:"plan" binding:"required"`
	Currency  string `json:"currency" binding:"required"`
}

// IntentResponse 支付意向
type IntentResponse struct {
	IntentID     string   `json:"intent_id"`
	Plan         string   `json:"plan"`
	Currency     string   `json:"currency"`
	Address      string   `json:"address"`
	Network      string   `json:"network"`
	Amount       float64  `json:"amount"`
	PriceUSD     float64  `json:"price_usd"`
	Status       string   `json:"status"`
	ExpiresAt    string   `json:"expires_at"`
	QRCodeURL    string   `json:"qr_code_url"`
	Instructions []string `json:"instructions,omitempty"`
}

// ConfirmPaymentRequest 确认支付
type ConfirmPaymentRequest struct {
	AccountID *int64 `json:"account_id,omitempty"`
	IntentID  string `json:"intent_id" binding:"required"`
	TxHash    string `json:"tx_hash" binding:"required,max=100"`
}

// ConfirmPaymentResponse 确认结果
type ConfirmPaymentResponse struct {
	Verified     bool   `json:"verified"`
	PremiumUntil string `json:"premium_until,omitempty"`
	Credits      int    `json:"credits"`
}

// PlanInfo 套餐
type PlanInfo struct {
	Name         string  `json:"name"`
	PriceUSD     float64 `json:"price_usd"`
	DurationDays int     `json:"duration_days"`
	Credits      int     `json:"credits"`
}

// CurrencyInfo 支持的币种
type CurrencyInfo struct {
	Code    string `json:"code"`
	Network string `json:"network"`
}

// PlansResponse 套餐与币种
type PlansResponse struct {
	Plans      []PlanInfo     `json:"plans"`
	Currencies []CurrencyInfo `json:"currencies"`
}
