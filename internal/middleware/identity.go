package middleware

import (
	"context"
	"strings"

	"supportdesk/internal/core"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier 驗證 bearer token 並回傳外部身分
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (core.Identity, bool, error)
}

type Identity struct {
	logger   *zap.Logger
	trace    *telemetry.Trace
	verifier TokenVerifier
}

func NewIdentity(
	logger *zap.Logger,
	trace *telemetry.Trace,
	provider *service.IdentityProvider,
) *Identity {
	return &Identity{
		logger:   logger,
		trace:    trace,
		verifier: provider,
	}
}

// Handler token 缺少或無效時回 401，不會碰資料庫
func (middleware *Identity) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanIdentityMiddleware))
		token, from := readBearerToken(c)
		meta := core.TraceIdentityMiddlewareMeta{
			Where:    from,
			ClientIP: c.ClientIP(),
		}

		if token == "" {
			meta.Status = "missing_token"
			middleware.trace.ApplyTraceAttributes(span, meta)
			cause := cErr.Unauthorized("missing bearer token")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}

		identity, enriched, err := middleware.verifier.Verify(ctx, token)
		if err != nil {
			meta.Status = "invalid_token"
			middleware.trace.ApplyTraceAttributes(span, meta)
			middleware.logger.Debug("[Identity] token rejected", zap.String("from", from), zap.Error(err))
			response.AbortWithError(c, err)
			end(err)
			return
		}

		meta.ExternalID = identity.ExternalID
		meta.Enriched = enriched
		meta.Status = "success"
		middleware.trace.ApplyTraceAttributes(span, meta)
		end(nil)

		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// readBearerToken EventSource 無法帶 header，SSE 允許 access_token query
func readBearerToken(c *gin.Context) (token string, from string) {
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); auth != "" {
		if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
			return strings.TrimSpace(auth[len("bearer "):]), "bearer"
		}
	}
	if q := strings.TrimSpace(c.Query("access_token")); q != "" {
		return q, "query"
	}
	return "", "none"
}
