package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/qs3c/prep_go_server/config"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Provider 返回 1 单位币种对应的美元价格
type Provider interface {
	Rate(ctx context.Context, currency string) (float64, error)
}

// StaticProvider 使用配置中的固定汇率
type StaticProvider struct {
	rates map[string]float64
}

func NewStaticProvider(currencies map[string]config.CurrencyConfig) *StaticProvider {
	rates := make(map[string]float64, len(currencies))
	for code, c := range currencies {
		rates[code] = c.RateUSD
	}
	return &StaticProvider{rates: rates}
}

func (p *StaticProvider) Rate(_ context.Context, currency string) (float64, error) {
	r, ok := p.rates[currency]
	if !ok || r <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}
	return r, nil
}
