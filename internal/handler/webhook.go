package handler

import (
	"supportdesk/internal/dto"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/validate"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type WebhookHandler struct {
	trace           *telemetry.Trace
	identityService *service.IdentityService
}

func NewWebhookHandler(trace *telemetry.Trace, identityService *service.IdentityService) *WebhookHandler {
	return &WebhookHandler{trace: trace, identityService: identityService}
}

// Identity 身分提供者佈建事件
// @Summary 接收身分提供者的使用者佈建事件
// @Description 需帶 X-Webhook-Signature（HMAC-SHA256）；user.deleted 會停用使用者並釋放指派
// @Tags Webhook
// @Accept json
// @Produce json
// @Param body body dto.IdentityWebhookDto true "佈建事件"
// @Success 200 {object} dto.IdentityWebhookResponseDto
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /webhooks/identity [post]
func (h *WebhookHandler) Identity(c *gin.Context) {
	ctx, span, end := h.trace.WithSpan(c)
	var req dto.IdentityWebhookDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	span.SetAttributes(
		attribute.String("webhook.type", req.Type),
		attribute.String("identity.external_id", req.Data.ID),
	)

	user, err := h.identityService.Provision(ctx, service.IdentityEvent{Type: req.Type, Identity: req.Identity()})
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	status := "processed"
	if user == nil {
		status = "ignored"
	}
	response.Success(c, dto.IdentityWebhookResponseDto{
		Type:   req.Type,
		Status: status,
		User:   dto.NewUserResponseDto(user),
	})
}
