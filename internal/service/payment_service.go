package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
	"github.com/qs3c/prep_go_server/internal/pkg/rates"
	"github.com/qs3c/prep_go_server/internal/pkg/txverify"
	"github.com/qs3c/prep_go_server/internal/repository"
)

var (
	ErrIntentNotFound      = errors.New("支付订单不存在")
	ErrIntentExpired       = errors.New("支付订单已过期，请重新下单")
	ErrIntentNotActionable = errors.New("支付订单已确认")
	ErrInvalidProof        = errors.New("交易哈希无效")
	ErrTxAlreadyUsed       = errors.New("该交易已被使用")
	ErrUnsupportedPlan     = errors.New("不支持的套餐")
	ErrUnsupportedCurrency = errors.New("不支持的币种")
	ErrAccountMismatch     = errors.New("账户不匹配")
)

const paymentMethodCrypto = "crypto"

// TxVerifier 校验交易凭证
type TxVerifier interface {
	Verify(ctx context.Context, chain, txHash string) error
}

// PaymentService 加密货币支付：创建订单、确认、过期
type PaymentService struct {
	db          *gorm.DB
	paymentRepo *repository.PaymentRepository
	userRepo    *repository.UserRepository
	subRepo     *repository.SubscriptionRepository
	credits     *CreditService
	rates       rates.Provider
	verifier    TxVerifier
	cfg         *config.Config
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	userRepo *repository.UserRepository,
	subRepo *repository.SubscriptionRepository,
	credits *CreditService,
	rateProvider rates.Provider,
	verifier TxVerifier,
	cfg *config.Config,
	m *metrics.Collector,
	log *zap.Logger,
) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{
		db:          db,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		subRepo:     subRepo,
		credits:     credits,
		rates:       rateProvider,
		verifier:    verifier,
		cfg:         cfg,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// Plans 套餐与支持的币种
func (s *PaymentService) Plans() *dto.PlansResponse {
	resp := &dto.PlansResponse{}
	for name, plan := range s.cfg.Payment.Plans {
		resp.Plans = append(resp.Plans, dto.PlanInfo{
			Name:         name,
			PriceUSD:     plan.PriceUSD,
			DurationDays: plan.DurationDays,
			Credits:      s.cfg.Credits.PremiumMonthly,
		})
	}
	sort.Slice(resp.Plans, func(i, j int) bool {
		return resp.Plans[i].PriceUSD < resp.Plans[j].PriceUSD
	})

	for code, c := range s.cfg.Payment.Currencies {
		resp.Currencies = append(resp.Currencies, dto.CurrencyInfo{Code: code, Network: c.Network})
	}
	sort.Slice(resp.Currencies, func(i, j int) bool {
		return resp.Currencies[i].Code < resp.Currencies[j].Code
	})
	return resp
}

// CreateIntent 生成支付订单，金额按汇率换算并保留 8 位小数
func (s *PaymentService) CreateIntent(ctx context.Context, userID int64, req *dto.CreateIntentRequest) (*dto.IntentResponse, error) {
	if req.AccountID != nil && *req.AccountID != userID {
		return nil, ErrAccountMismatch
	}

	planName := strings.ToLower(strings.TrimSpace(req.Plan))
	plan, ok := s.cfg.Payment.Plans[planName]
	if !ok {
		return nil, ErrUnsupportedPlan
	}

	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	currency, ok := s.cfg.Payment.Currencies[code]
	if !ok {
		return nil, ErrUnsupportedCurrency
	}

	rate, err := s.rates.Rate(ctx, code)
	if err != nil {
		if errors.Is(err, rates.ErrUnknownCurrency) {
			return nil, ErrUnsupportedCurrency
		}
		return nil, fmt.Errorf("exchange rate for %s: %w", code, err)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("exchange rate for %s: non-positive rate %v", code, rate)
	}

	now := s.now()
	intent := &model.PaymentIntent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      planName,
		Currency:  code,
		Network:   currency.Network,
		Address:   currency.Address,
		PriceUSD:  plan.PriceUSD,
		Amount:    Round8(plan.PriceUSD / rate),
		Status:    model.IntentStatusCreated,
		ExpiresAt: now.Add(time.Duration(s.cfg.Payment.IntentTTLMinutes) * time.Minute),
	}
	if err := s.paymentRepo.Create(intent); err != nil {
		return nil, err
	}

	s.metrics.RecordIntent(code, model.IntentStatusCreated)
	s.log.Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.Int64("user_id", userID),
		zap.String("currency", code),
		zap.Float64("amount", intent.Amount),
	)

	return s.intentResponse(intent, true), nil
}

// GetIntent 查询订单状态，超时的订单在此时标记为过期
func (s *PaymentService) GetIntent(userID int64, intentID string) (*dto.IntentResponse, error) {
	intent, err := s.loadIntent(userID, intentID)
	if err != nil {
		return nil, err
	}

	if intent.Status == model.IntentStatusCreated && intent.Expired(s.now()) {
		if err := s.expire(intent); err != nil {
			return nil, err
		}
	}

	return s.intentResponse(intent, intent.Status == model.IntentStatusCreated), nil
}

// Confirm 确认支付：校验凭证后在一个事务内升级会员、重置额度、写入订阅记录
func (s *PaymentService) Confirm(ctx context.Context, userID int64, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error) {
	if req.AccountID != nil && *req.AccountID != userID {
		return nil, ErrAccountMismatch
	}

	intent, err := s.loadIntent(userID, req.IntentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch intent.Status {
	case model.IntentStatusConfirmed:
		return nil, ErrIntentNotActionable
	case model.IntentStatusExpired:
		return nil, ErrIntentExpired
	}
	if intent.Expired(now) {
		if err := s.expire(intent); err != nil {
			return nil, err
		}
		return nil, ErrIntentExpired
	}

	plan, ok := s.cfg.Payment.Plans[intent.Plan]
	if !ok {
		return nil, ErrUnsupportedPlan
	}

	chain := s.cfg.Payment.Currencies[intent.Currency].Chain
	if err := s.verifier.Verify(ctx, chain, req.TxHash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	txHash := txverify.Normalize(req.TxHash)

	used, err := s.paymentRepo.ExistsByTxHash(txHash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrTxAlreadyUsed
	}

	var premiumUntil time.Time
	err = s.db.Transaction(func(tx *gorm.DB) error {
		payments := s.paymentRepo.WithTx(tx)
		rows, err := payments.ConfirmIfActive(intent.ID, txHash, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			current, err := payments.GetByID(intent.ID)
			if err != nil {
				return err
			}
			if current.Status == model.IntentStatusConfirmed {
				return ErrIntentNotActionable
			}
			return ErrIntentExpired
		}

		users := s.userRepo.WithTx(tx)
		user, err := users.GetByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		premiumUntil = extendPremium(user, now, plan.DurationDays)
		if err := users.UpgradePremium(userID, premiumUntil); err != nil {
			return err
		}

		if err := s.credits.ResetTx(tx, userID, s.cfg.Credits.PremiumMonthly); err != nil {
			return err
		}

		return s.subRepo.WithTx(tx).Create(&model.Subscription{
			UserID:        userID,
			Plan:          intent.Plan,
			AmountUSD:     intent.PriceUSD,
			Currency:      intent.Currency,
			StartedAt:     now,
			ExpiresAt:     premiumUntil,
			Status:        repository.SubscriptionActive,
			PaymentMethod: paymentMethodCrypto,
			TransactionID: txHash,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordIntent(intent.Currency, model.IntentStatusConfirmed)
	s.log.Info("payment confirmed",
		zap.String("intent_id", intent.ID),
		zap.Int64("user_id", userID),
		zap.Time("premium_until", premiumUntil),
	)

	return &dto.ConfirmPaymentResponse{
		Verified:     true,
		PremiumUntil: premiumUntil.Format(time.RFC3339),
		Credits:      s.cfg.Credits.PremiumMonthly,
	}, nil
}

// ExpireStale 批量过期超时订单
func (s *PaymentService) ExpireStale() (int64, error) {
	n, err := s.paymentRepo.ExpireStale(s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired stale payment intents", zap.Int64("count", n))
	}
	return n, nil
}

// DowngradeExpired 降级到期的高级会员
func (s *PaymentService) DowngradeExpired() (int64, error) {
	now := s.now()
	n, err := s.userRepo.DowngradeExpired(now)
	if err != nil {
		return 0, err
	}
	if _, err := s.subRepo.ExpireEnded(now); err != nil {
		return n, err
	}
	if n > 0 {
		s.log.Info("downgraded expired premium accounts", zap.Int64("count", n))
	}
	return n, nil
}

func (s *PaymentService) loadIntent(userID int64, intentID string) (*model.PaymentIntent, error) {
	intent, err := s.paymentRepo.GetByID(intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, err
	}
	// 不暴露其他用户的订单
	if intent.UserID != userID {
		return nil, ErrIntentNotFound
	}
	return intent, nil
}

func (s *PaymentService) expire(intent *model.PaymentIntent) error {
	if err := s.paymentRepo.MarkExpired(intent.ID); err != nil {
		return err
	}
	intent.Status = model.IntentStatusExpired
	s.metrics.RecordIntent(intent.Currency, model.IntentStatusExpired)
	return nil
}

func (s *PaymentService) intentResponse(intent *model.PaymentIntent, withInstructions bool) *dto.IntentResponse {
	resp := &dto.IntentResponse{
		IntentID:  intent.ID,
		Plan:      intent.Plan,
		Currency:  intent.Currency,
		Address:   intent.Address,
		Network:   intent.Network,
		Amount:    intent.Amount,
		PriceUSD:  intent.PriceUSD,
		Status:    intent.Status,
		ExpiresAt: intent.ExpiresAt.Format(time.RFC3339),
		QRCodeURL: s.cfg.Payment.QRCodeBaseURL + url.QueryEscape(intent.Address),
	}
	if withInstructions {
		resp.Instructions = []string{
			fmt.Sprintf("Send exactly %s %s to the address above", FormatAmount(intent.Amount), intent.Currency),
			fmt.Sprintf("Use the %s network only", intent.Network),
			fmt.Sprintf("Complete the payment within %d minutes", s.cfg.Payment.IntentTTLMinutes),
			"Submit the transaction hash to activate premium",
		}
	}
	return resp
}

// extendPremium 从 max(now, 当前到期时间) 起顺延
func extendPremium(user *model.User, now time.Time, days int) time.Time {
	base := now
	if user.EffectiveTier(now) == model.TierPremium && user.PremiumExpiresAt != nil && user.PremiumExpiresAt.After(now) {
		base = *user.PremiumExpiresAt
	}
	return base.AddDate(0, 0, days)
}

// Round8 保留 8 位小数
func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// FormatAmount 去掉多余的 0
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
