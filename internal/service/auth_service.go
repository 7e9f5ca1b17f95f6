package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/pkg/jwt"
	"github.com/qs3c/prep_go_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUnauthenticated    = errors.New("认证失败或已过期")
)

// TokenRevoker 登出黑名单
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthService struct {
	userRepo *repository.UserRepository
	revoker  TokenRevoker
	cfg      *config.Config
	log      *zap.Logger
}

// NewAuthService revoker 为 nil 时登出只在客户端生效
func NewAuthService(userRepo *repository.UserRepository, revoker TokenRevoker, cfg *config.Config, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		userRepo: userRepo,
		revoker:  revoker,
		cfg:      cfg,
		log:      log,
	}
}

// Register 用户注册，新用户为免费会员且没有额度
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userRepo.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user := &model.User{
		Name:             name,
		Email:            email,
		PasswordHash:     string(hashedPassword),
		Role:             model.RoleStudent,
		SubscriptionTier: model.TierFree,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{
		UserID: user.ID,
	}, nil
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  buildUserInfo(user, time.Now()),
	}, nil
}

// Logout 把 token 加入黑名单直到其自然过期
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		return ErrUnauthenticated
	}
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, token, claims.ExpiresIn(time.Now())); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate 校验 token 并返回用户 ID
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		return 0, ErrUnauthenticated
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, token)
		if err != nil {
			// redis 不可用时不阻断请求
			s.log.Warn("token revocation lookup failed", zap.Error(err))
		} else if revoked {
			return 0, ErrUnauthenticated
		}
	}

	return claims.UserID, nil
}

func buildUserInfo(user *model.User, now time.Time) *dto.UserInfo {
	credit := buildCreditInfo(user, now)
	info := &dto.UserInfo{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Role:             user.Role,
		SubscriptionTier: credit.Tier,
		ExamType:         user.ExamType,
		TargetScore:      user.TargetScore,
		CreditInfo:       &credit,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
	}
	if user.PremiumExpiresAt != nil {
		info.PremiumExpiresAt = user.PremiumExpiresAt.Format(time.RFC3339)
	}
	return info
}
