package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/qs3c/prep_go_server/config"
	"github.com/qs3c/prep_go_server/internal/pkg/response"
)

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter 按用户限制任务提交频率
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	retryAfter int
	ttl        time.Duration

	mu       sync.Mutex
	limiters map[int64]*userLimiter
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	perMinute := cfg.TasksPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:      rate.Limit(float64(perMinute) / 60.0),
		burst:      burst,
		retryAfter: int(math.Max(1, math.Ceil(60.0/float64(perMinute)))),
		ttl:        10 * time.Minute,
		limiters:   make(map[int64]*userLimiter),
	}
}

// Middleware 需放在 Auth 之后
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			return
		}

		if !rl.get(userID).Allow() {
			c.Header("Retry-After", strconv.Itoa(rl.retryAfter))
			response.RateLimitError(c, "")
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) get(userID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if ul, ok := rl.limiters[userID]; ok {
		ul.lastAccess = now
		return ul.limiter
	}

	rl.cleanupLocked(now)
	ul := &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastAccess: now}
	rl.limiters[userID] = ul
	return ul.limiter
}

// cleanupLocked 新建条目时顺带清理长时间未访问的用户
func (rl *RateLimiter) cleanupLocked(now time.Time) {
	for id, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > rl.ttl {
			delete(rl.limiters, id)
		}
	}
}

// Size 当前跟踪的用户数
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
