package handler

import (
	"supportdesk/internal/dto"
	"supportdesk/internal/middleware"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	trace           *telemetry.Trace
	identityService *service.IdentityService
}

func NewSyncHandler(trace *telemetry.Trace, identityService *service.IdentityService) *SyncHandler {
	return &SyncHandler{trace: trace, identityService: identityService}
}

// Sync 登入後同步使用者
// @Summary 同步目前登入者到本地使用者
// @Description 依 token 的外部身分建立或更新本地使用者，重複呼叫結果相同
// @Tags User-Sync
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SyncResponseDto
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /user/sync [post]
func (h *SyncHandler) Sync(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		cause := cErr.Unauthorized("missing identity")
		end(cause)
		response.AbortWithError(c, cause)
		return
	}

	user, err := h.identityService.Reconcile(ctx, identity)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.SyncResponseDto{
		Message: "user synced",
		UserID:  user.ID.Hex(),
		User:    dto.NewUserResponseDto(user),
	})
}

// Status 查詢是否已同步
// @Summary 查詢目前登入者是否已有本地使用者
// @Tags User-Sync
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SyncStatusDto
// @Failure 401 {object} response.Response
// @Router /user/sync [get]
func (h *SyncHandler) Status(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		cause := cErr.Unauthorized("missing identity")
		end(cause)
		response.AbortWithError(c, cause)
		return
	}

	user, err := h.identityService.Exists(ctx, identity.ExternalID)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.SyncStatusDto{Exists: user != nil, User: dto.NewUserResponseDto(user)})
}
