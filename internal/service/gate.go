package service

import (
	"errors"
	"time"

	"github.com/qs3c/prep_go_server/internal/model"
)

var ErrTierInsufficient = errors.New("该功能仅对高级会员开放，请先升级")

// Gate 任务提交前的权限检查，不产生任何副作用
type Gate struct {
	freeKinds map[model.TaskKind]bool
}

// NewGate freeKinds 中的任务类型不检查会员与额度，也不扣减额度
func NewGate(freeKinds []string) *Gate {
	g := &Gate{freeKinds: make(map[model.TaskKind]bool, len(freeKinds))}
	for _, k := range freeKinds {
		g.freeKinds[model.TaskKind(k)] = true
	}
	return g
}

// Charged 该类型任务是否需要扣减额度
func (g *Gate) Charged(kind model.TaskKind) bool {
	return !g.freeKinds[kind]
}

// Check 检查用户能否提交 kind 类型的任务
func (g *Gate) Check(user *model.User, kind model.TaskKind, now time.Time) error {
	if !g.Charged(kind) {
		return nil
	}
	if user.EffectiveTier(now) != model.TierPremium {
		return ErrTierInsufficient
	}
	if user.Credits <= 0 {
		return ErrInsufficientCredits
	}
	return nil
}
