package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Role             string      `json:"role"`
	SubscriptionTier string      `json:"subscription_tier"`
	PremiumExpiresAt string      `json:"premium_expires_at,omitempty"`
	ExamType         string      `json:"exam_type,omitempty"`
	TargetScore      string      `json:"target_score,omitempty"`
	CreditInfo       *CreditInfo `json:"credit_info,omitempty"`
	CreatedAt        string      `json:"created_at,omitempty"`
}

// CreditInfo 额度信息
type CreditInfo struct {
	Tier             string `json:"tier"`
	CreditsRemaining int    `json:"credits_remaining"`
	CreditsTotal     int    `json:"credits_total"`
	ResetAt          string `json:"reset_at,omitempty"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=100"`
	ExamType    *string `json:"exam_type,omitempty" binding:"omitempty,oneof=IELTS SAT GMAT GRE ACT TOEFL"`
	TargetScore *string `json:"target_score,omitempty" binding:"omitempty,max=20"`
}

// CreditEntryItem 额度流水
type CreditEntryItem struct {
	TaskID       *int64 `json:"task_id,omitempty"`
	Delta        int    `json:"delta"`
	BalanceAfter int    `json:"balance_after"`
	Reason       string `json:"reason"`
	CreatedAt    string `json:"created_at"`
}

// CreditSummary 额度概览
type CreditSummary struct {
	CreditInfo
	Recent []CreditEntryItem `json:"recent"`
}
