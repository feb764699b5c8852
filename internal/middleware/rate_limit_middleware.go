package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests - максимальное количество запросов за Window
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// ViolationReportRateLimitConfig - лимит отчетов о нарушениях от одного пользователя
func ViolationReportRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	if maxRequests <= 0 {
		maxRequests = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		MaxRequests: maxRequests,
		Window:      window,
		KeyPrefix:   "rl:violations",
	}
}

// PublicReadRateLimitConfig - лимит анонимных чтений рейтинга и статистики с одного IP
func PublicReadRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	if maxRequests <= 0 {
		maxRequests = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		MaxRequests: maxRequests,
		Window:      window,
		KeyPrefix:   "rl:public",
	}
}

// counterStore - подмножество redis.Cmdable, нужное лимитеру
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimiter ограничивает частоту запросов счетчиками в Redis (fixed window)
type RateLimiter struct {
	store  counterStore
	logger *zap.Logger
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{store: redisClient, logger: logger.Named("rate_limiter")}
}

// Limit ограничивает запросы по IP и шаблону маршрута
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return rl.limit(cfg, func(c *gin.Context) string {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		return fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, c.ClientIP(), path)
	})
}

// LimitByUser ограничивает запросы по аутентифицированному пользователю.
// Без пользователя в контексте используется IP. Должен стоять после RequireAuth.
func (rl *RateLimiter) LimitByUser(cfg RateLimitConfig) gin.HandlerFunc {
	return rl.limit(cfg, func(c *gin.Context) string {
		if userID := UserIDFromContext(c); userID != 0 {
			return fmt.Sprintf("%s:user:%d", cfg.KeyPrefix, userID)
		}
		return fmt.Sprintf("%s:ip:%s", cfg.KeyPrefix, c.ClientIP())
	})
}

func (rl *RateLimiter) limit(cfg RateLimitConfig, keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.store.Incr(ctx, key).Result()
		if err != nil {
			// fail-open: недоступный Redis не должен блокировать участников
			rl.logger.Warn("Redis error, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if count == 1 {
			if err := rl.store.Expire(ctx, key, cfg.Window).Err(); err != nil {
				rl.logger.Warn("Failed to set TTL", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}

		ttl, _ := rl.store.TTL(ctx, key).Result()
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = int(cfg.Window.Seconds())
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

		if int(count) > cfg.MaxRequests {
			rl.logger.Info("Rate limit exceeded",
				zap.String("key", key), zap.Int64("count", count), zap.Int("limit", cfg.MaxRequests))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
