package middleware

import (
	"context"
	"errors"
	"strconv"

	"supportdesk/config"
	"supportdesk/internal/core"
	"supportdesk/internal/database/redis/repository"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultRateLimitWindowSeconds int64 = 60

type quotaConsumer interface {
	Consume(ctx context.Context, subject, scope string, windowSeconds int64, limitCount int) (int, int64, error)
}

type RateLimit struct {
	logger  *zap.Logger
	trace   *telemetry.Trace
	metric  *telemetry.Metric
	limiter quotaConsumer
	limit   int
	window  int64
}

func NewRateLimit(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	conf *config.Configuration,
	rateLimiterRepository *repository.RateLimiterRepository,
) *RateLimit {
	window := conf.RateLimit.WindowSeconds
	if window <= 0 {
		window = defaultRateLimitWindowSeconds
	}
	return &RateLimit{
		logger:  logger,
		trace:   trace,
		metric:  metric,
		limiter: rateLimiterRepository,
		limit:   conf.RateLimit.MessagesPerWindow,
		window:  window,
	}
}

// Guard 以本地使用者為單位限流，必須掛在 User middleware 之後。
// redis 出錯時放行
func (middleware *RateLimit) Guard(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.limit <= 0 {
			c.Next()
			return
		}
		ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanRateLimitMiddleware))

		viewer, ok := ViewerFrom(c)
		if !ok {
			cause := cErr.Unauthorized("missing user context")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}
		subject := viewer.ID.Hex()

		remaining, ttl, err := middleware.limiter.Consume(ctx, subject, scope, middleware.window, middleware.limit)
		blocked := errors.Is(err, repository.ErrRateLimitExceeded)
		if err != nil && !blocked {
			middleware.logger.Warn("[RateLimit] limiter unavailable, allowing request",
				zap.String("userId", subject),
				zap.String("scope", scope),
				zap.Error(err))
			end(nil)
			c.Next()
			return
		}

		middleware.trace.ApplyTraceAttributes(span, core.TraceRateLimitMiddlewareMeta{
			UserID:      subject,
			Scope:       scope,
			ConfigLimit: middleware.limit,
			Remaining:   remaining,
			TTLSeconds:  ttl,
			Blocked:     blocked,
		})
		c.Header("X-RateLimit-Limit", strconv.Itoa(middleware.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if ttl > 0 {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(ttl, 10))
		}

		if blocked {
			retryAfter := ttl
			if retryAfter <= 0 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			middleware.metric.IncRateLimited(c.FullPath())
			cause := cErr.RateLimitExceeded("too many messages, retry later")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}
		end(nil)
		c.Next()
	}
}
