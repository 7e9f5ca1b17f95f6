package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/prep_go_server/config"
)

func testCurrencies() map[string]config.CurrencyConfig {
	return config.Default().Payment.Currencies
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(testCurrencies())
	ctx := context.Background()

	tests := []struct {
		currency string
		want     float64
	}{
		{"BTC", 43000},
		{"ETH", 2300},
		{"BNB", 310},
		{"USDT", 1},
		{"USDT-TRC20", 1},
		{"USDC", 1},
	}
	for _, tt := range tests {
		got, err := p.Rate(ctx, tt.currency)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.currency)
	}

	_, err := p.Rate(ctx, "DOGE")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func newFeed(t *testing.T, handler http.HandlerFunc, cache *redis.Client) *FeedProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.RatesConfig{
		FeedURL:         srv.URL + "/simple/price",
		CacheTTLSeconds: 60,
		RequestsPerSec:  100,
		Retries:         3,
		TimeoutSeconds:  2,
	}
	p := NewFeedProvider(cfg, testCurrencies(), cache, NewStaticProvider(testCurrencies()), nil, nil)
	p.backoff = time.Millisecond
	return p
}

func TestFeedProvider_Fetch(t *testing.T) {
	p := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		fmt.Fprint(w, `{"bitcoin":{"usd":61000.5}}`)
	}, nil)

	got, err := p.Rate(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 61000.5, got)
}

func TestFeedProvider_StablecoinSkipsFeed(t *testing.T) {
	var calls int32
	p := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, nil)

	got, err := p.Rate(context.Background(), "USDT")
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFeedProvider_RetriesServerErrors(t *testing.T) {
	var calls int32
	p := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ethereum":{"usd":2500}}`)
	}, nil)

	got, err := p.Rate(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, float64(2500), got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFeedProvider_FallsBackToStatic(t *testing.T) {
	var calls int32
	p := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	got, err := p.Rate(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, float64(43000), got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFeedProvider_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	p := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	got, err := p.Rate(context.Background(), "BNB")
	require.NoError(t, err)
	assert.Equal(t, float64(310), got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFeedProvider_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var calls int32
	p := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"bitcoin":{"usd":50000}}`)
	}, rdb)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := p.Rate(ctx, "BTC")
		require.NoError(t, err)
		assert.Equal(t, float64(50000), got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	cached, err := mr.Get(cacheKeyPrefix + "BTC")
	require.NoError(t, err)
	assert.Equal(t, "50000", cached)

	mr.FastForward(2 * time.Minute)
	_, err = p.Rate(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
