package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"supportdesk/config"
	"supportdesk/internal/core"
	"supportdesk/internal/database/fluentd/model"
	"supportdesk/internal/database/fluentd/repository"
	cErr "supportdesk/internal/pkg/error"
	res "supportdesk/internal/pkg/response"
	"supportdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const responseTSLayout = "2006-01-02 15:04:05.999999 UTC"

type Recovery struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	metric            *telemetry.Metric
	config            *config.Configuration
	fluentdRepository *repository.LogRepository
}

func NewRecovery(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	config *config.Configuration,
	fluentdRepository *repository.LogRepository,
) *Recovery {
	return &Recovery{
		logger:            logger,
		trace:             trace,
		metric:            metric,
		config:            config,
		fluentdRepository: fluentdRepository,
	}
}

func (middleware *Recovery) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestTime := time.Now()
		if startTime, exists := c.Get("requestDuration"); exists {
			if t, ok := startTime.(time.Time); ok {
				requestTime = t
			}
		}
		RequestID, err := uuid.NewV7()
		if err != nil {
			RequestID = uuid.New()
		}
		requestID := RequestID.String()

		// ---- panic recover 必須在 c.Next() 之前註冊 ----
		defer func() {
			if rec := recover(); rec != nil {
				duration := time.Since(requestTime)

				ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanRecoveryMiddleware))
				traceID := span.SpanContext().TraceID()
				spanID := span.SpanContext().SpanID()

				meta := core.TracePanicMeta{
					Path:       c.Request.URL.Path,
					Method:     c.Request.Method,
					ClientIP:   c.ClientIP(),
					UserAgent:  c.Request.UserAgent(),
					DurationMs: float64(duration.Milliseconds()),
					Message:    toSafeString(fmt.Sprint(rec)),
					Stack:      toSafeStack(debug.Stack()),
					Status:     http.StatusInternalServerError,
				}
				middleware.trace.ApplyTraceAttributes(span, meta)

				middleware.logger.Error("[PANIC] Recovered",
					zap.String("path", meta.Path),
					zap.String("method", meta.Method),
					zap.String("client_ip", meta.ClientIP),
					zap.String("user_agent", meta.UserAgent),
					zap.Duration("duration", duration),
					zap.String("panic", meta.Message),
					zap.String("stacktrace", meta.Stack),
					zap.String("requestId", requestID),
					zap.String("spanId", fmt.Sprintf("%x", spanID[:])),
					zap.String("traceId", fmt.Sprintf("%x", traceID[:])),
				)

				cause := cErr.InternalServer("unexpected panic")
				// 尚未回寫才輸出；SSE 已開始串流時只能中斷
				if !c.Writer.Written() {
					res.FailByErr(c, requestID, cause)
				}
				end(cause)

				middleware.logResponse(ctx, model.ResponseLog{
					RequestID:  requestID,
					Code:       cErr.INTERNAL_ERROR,
					StatusCode: http.StatusInternalServerError,
					Error:      meta.Message,
				})
				middleware.metric.ObserveFailure("panic", c.FullPath(), duration)
				c.Abort()
			}
		}()

		c.Next()

		// ---- 統一處理非 panic 的 gin errors（若尚未回寫）----
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		duration := time.Since(requestTime)

		ctx, span, end := middleware.trace.WithSpan(c.Request.Context(), string(core.SpanRecoveryMiddleware))
		traceID := span.SpanContext().TraceID()
		spanID := span.SpanContext().SpanID()

		// 找第一個 *cErr.Error
		for _, e := range c.Errors {
			var appErr *cErr.Error
			if !errors.As(e.Err, &appErr) {
				continue
			}
			middleware.trace.ApplyTraceAttributes(span, core.TraceErrorMeta{
				Code:       appErr.ErrorCode(),
				Message:    appErr.Error(),
				Detail:     appErr.ErrorDesc(),
				DurationMs: float64(duration.Milliseconds()),
				Status:     appErr.HttpCode(),
			})
			fields := []zap.Field{
				zap.Int("code", appErr.ErrorCode()),
				zap.String("data", appErr.ErrorDesc()),
				zap.String("path", c.Request.URL.Path),
				zap.Duration("duration", duration),
				zap.String("requestId", requestID),
				zap.String("spanId", fmt.Sprintf("%x", spanID[:])),
				zap.String("traceId", fmt.Sprintf("%x", traceID[:])),
			}
			if appErr.HttpCode() >= http.StatusInternalServerError {
				middleware.logger.Error(appErr.Error(), fields...)
			} else {
				middleware.logger.Warn(appErr.Error(), fields...)
			}
			middleware.logResponse(ctx, model.ResponseLog{
				RequestID:  requestID,
				Code:       appErr.ErrorCode(),
				StatusCode: appErr.HttpCode(),
				Error:      appErr.Error(),
			})
			middleware.metric.ObserveFailure(appErr.Error(), c.FullPath(), duration)

			res.FailByErr(c, requestID, appErr)
			end(nil)
			c.Abort()
			return
		}

		// 其餘未知錯誤
		unknown := c.Errors.String()
		middleware.trace.ApplyTraceAttributes(span, core.TraceErrorMeta{
			Code:       cErr.INTERNAL_ERROR,
			Message:    "unknown-error",
			Detail:     toSafeString(unknown),
			DurationMs: float64(duration.Milliseconds()),
			Status:     http.StatusInternalServerError,
		})
		middleware.logger.Error("[ERROR] unknown",
			zap.String("error", unknown),
			zap.Duration("duration", duration),
			zap.String("requestId", requestID),
			zap.String("spanId", fmt.Sprintf("%x", spanID[:])),
			zap.String("traceId", fmt.Sprintf("%x", traceID[:])),
		)
		middleware.logResponse(ctx, model.ResponseLog{
			RequestID:  requestID,
			Code:       cErr.INTERNAL_ERROR,
			StatusCode: http.StatusInternalServerError,
			Error:      toSafeString(unknown),
		})
		middleware.metric.ObserveFailure("unknown", c.FullPath(), duration)
		res.Fail(c, requestID, http.StatusInternalServerError, cErr.INTERNAL_ERROR, "unknown-error", unknown)
		end(c.Errors.Last().Err)
		c.Abort()
	}
}

func (middleware *Recovery) logResponse(ctx context.Context, record model.ResponseLog) {
	record.ProjectName = middleware.config.App.Name
	record.Version = middleware.config.App.Version
	record.ResponseTS = time.Now().UTC().Format(responseTSLayout)
	if err := middleware.fluentdRepository.LogResponse(ctx, record); err != nil {
		middleware.logger.Debug("fluentd response log failed", zap.Error(err))
	}
}

// ---- helpers ----

func toSafeString(s string) string {
	const max = 8000
	if utf8.ValidString(s) {
		if len(s) > max {
			return s[:max] + "…"
		}
		return s
	}
	b := []byte(s)
	if len(b) > max {
		b = b[:max]
	}
	return "b64:" + base64.StdEncoding.EncodeToString(b)
}

func toSafeStack(b []byte) string {
	const max = 16000
	if utf8.Valid(b) {
		if len(b) > max {
			return string(b[:max]) + "…"
		}
		return string(b)
	}
	if len(b) > max {
		b = b[:max]
	}
	return "b64:" + base64.StdEncoding.EncodeToString(b)
}
