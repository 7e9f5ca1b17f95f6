package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/pkg/metrics"
)

const cacheKeyPrefix = "rate:usd:"

// FeedProvider 从行情接口拉取实时汇率，带缓存与限流，失败时回退到静态汇率
//
// 行情接口格式: GET {feed_url}?ids=bitcoin&vs_currencies=usd -> {"bitcoin":{"usd":43000}}
type FeedProvider struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	feedURL    string
	feedIDs    map[string]string
	retries    int
	backoff    time.Duration
	ttl        time.Duration
	cache      *redis.Client
	fallback   Provider
	metrics    *metrics.Collector
	log        *zap.Logger
}

// NewFeedProvider 创建实时汇率源，cache 可为 nil
func NewFeedProvider(
	cfg config.RatesConfig,
	currencies map[string]config.CurrencyConfig,
	cache *redis.Client,
	fallback Provider,
	m *metrics.Collector,
	log *zap.Logger,
) *FeedProvider {
	if log == nil {
		log = zap.NewNop()
	}
	feedIDs := make(map[string]string, len(currencies))
	for code, c := range currencies {
		if c.FeedID != "" {
			feedIDs[code] = c.FeedID
		}
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &FeedProvider{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		feedURL:    cfg.FeedURL,
		feedIDs:    feedIDs,
		retries:    retries,
		backoff:    time.Second,
		ttl:        time.Duration(cfg.CacheTTLSeconds) * time.Second,
		cache:      cache,
		fallback:   fallback,
		metrics:    m,
		log:        log,
	}
}

// Rate 依次尝试缓存、行情接口、静态汇率
func (p *FeedProvider) Rate(ctx context.Context, currency string) (float64, error) {
	id, ok := p.feedIDs[currency]
	if !ok {
		return p.fallback.Rate(ctx, currency)
	}

	if v, ok := p.cached(ctx, currency); ok {
		p.metrics.RecordRateFetch("cache")
		return v, nil
	}

	v, err := p.fetch(ctx, id)
	if err != nil {
		p.log.Warn("rate feed unavailable, using static rate", zap.String("currency", currency), zap.Error(err))
		p.metrics.RecordRateFetch("fallback")
		return p.fallback.Rate(ctx, currency)
	}

	p.metrics.RecordRateFetch("feed")
	p.store(ctx, currency, v)
	return v, nil
}

func (p *FeedProvider) cached(ctx context.Context, currency string) (float64, bool) {
	if p.cache == nil || p.ttl <= 0 {
		return 0, false
	}
	s, err := p.cache.Get(ctx, cacheKeyPrefix+currency).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.Warn("rate cache read failed", zap.Error(err))
		}
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func (p *FeedProvider) store(ctx context.Context, currency string, v float64) {
	if p.cache == nil || p.ttl <= 0 {
		return
	}
	if err := p.cache.Set(ctx, cacheKeyPrefix+currency, strconv.FormatFloat(v, 'f', -1, 64), p.ttl).Err(); err != nil {
		p.log.Warn("rate cache write failed", zap.Error(err))
	}
}

func (p *FeedProvider) fetch(ctx context.Context, id string) (float64, error) {
	u, err := url.Parse(p.feedURL)
	if err != nil {
		return 0, fmt.Errorf("parse feed url: %w", err)
	}
	q := u.Query()
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	wait := p.backoff
	var lastErr error
	for i := 0; i < p.retries; i++ {
		v, retry, err := p.doRequest(ctx, u.String(), id)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !retry || i == p.retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return 0, fmt.Errorf("fetch rate after %d attempts: %w", p.retries, lastErr)
}

func (p *FeedProvider) doRequest(ctx context.Context, rawURL, id string) (float64, bool, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, false, fmt.Errorf("rate limit canceled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, false, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, true, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, true, fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("unexpected response status: %s", resp.Status)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, false, fmt.Errorf("decode feed response: %w", err)
	}
	v := body[id]["usd"]
	if v <= 0 {
		return 0, false, fmt.Errorf("no usd price for %s", id)
	}
	return v, false, nil
}
