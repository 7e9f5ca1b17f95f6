package dto

// AdminStats 后台统计
type AdminStats struct {
	TotalUsers       int64            `json:"total_users"`
	PremiumUsers     int64            `json:"premium_users"`
	FreeUsers        int64            `json:"free_users"`
	TasksByKind      map[string]int64 `json:"tasks_by_kind"`
	TasksByStatus    map[string]int64 `json:"tasks_by_status"`
	PaymentsByStatus map[string]int64 `json:"payments_by_status"`
	ConfirmedRevenue float64          `json:"confirmed_revenue_usd"`
	CreditsConsumed  int64            `json:"credits_consumed"`
}

// AdminUser 后台用户列表项
type AdminUser struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	SubscriptionTier string `json:"subscription_tier"`
	Credits          int    `json:"credits"`
	PremiumExpiresAt string `json:"premium_expires_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// AdminPayment 后台支付列表项
type AdminPayment struct {
	ID          string  `json:"id"`
	UserID      int64   `json:"user_id"`
	Plan        string  `json:"plan"`
	Currency    string  `json:"currency"`
	Amount      float64 `json:"amount"`
	PriceUSD    float64 `json:"price_usd"`
	Status      string  `json:"status"`
	TxHash      string  `json:"tx_hash,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ConfirmedAt string  `json:"confirmed_at,omitempty"`
}
