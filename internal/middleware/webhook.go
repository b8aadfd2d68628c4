package middleware

import (
	"bytes"
	"io"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/signature"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	WebhookSignatureHeader = "X-Webhook-Signature"
	WebhookTimestampHeader = "X-Webhook-Timestamp"

	maxWebhookBody       = 1 << 20
	webhookTimestampSkew = 5 * time.Minute
)

// Webhook 驗證身分提供者送來的佈建事件簽章
type Webhook struct {
	logger *zap.Logger
	trace  *telemetry.Trace
	secret string
	now    func() time.Time
}

func NewWebhook(logger *zap.Logger, trace *telemetry.Trace, conf *config.Configuration) *Webhook {
	return &Webhook{
		logger: logger,
		trace:  trace,
		secret: conf.Auth.WebhookSecret,
		now:    time.Now,
	}
}

func (middleware *Webhook) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanWebhookMiddleware))

		if middleware.secret == "" {
			cause := cErr.ServiceUnavailable("webhook secret is not configured")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil || len(body) > maxWebhookBody {
			cause := cErr.BadRequestBody("unreadable webhook body")
			response.AbortWithError(c, cause)
			end(cause)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		verifyErr := signature.Verify(
			middleware.secret,
			c.GetHeader(WebhookSignatureHeader),
			c.GetHeader(WebhookTimestampHeader),
			body,
			middleware.now(),
			webhookTimestampSkew,
		)
		span.SetAttributes(attribute.Bool("webhook.signature_valid", verifyErr == nil))
		if verifyErr != nil {
			middleware.logger.Warn("[Webhook] signature rejected",
				zap.String("clientIp", c.ClientIP()),
				zap.Error(verifyErr))
			cause := cErr.InvalidSignature(verifyErr.Error())
			response.AbortWithError(c, cause)
			end(cause)
			return
		}
		end(nil)
		c.Next()
	}
}
