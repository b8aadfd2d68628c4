package handler

import (
	"supportdesk/internal/dto"
	"supportdesk/internal/middleware"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/validate"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	trace       *telemetry.Trace
	userService *service.UserService
}

func NewMeHandler(trace *telemetry.Trace, userService *service.UserService) *MeHandler {
	return &MeHandler{trace: trace, userService: userService}
}

// Get 目前登入者
// @Summary 取得目前登入者
// @Tags Me
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserResponseDto
// @Failure 401 {object} response.Response
// @Router /api/v1/me [get]
func (h *MeHandler) Get(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		response.AbortWithError(c, cErr.Unauthorized("missing user context"))
		return
	}
	response.Success(c, dto.NewUserResponseDto(user))
}

// UpdateNotifications 更新通知偏好
// @Summary 更新目前登入者的通知偏好（部分更新）
// @Tags Me
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.UpdateNotificationsDto true "通知偏好"
// @Success 200 {object} dto.UserResponseDto
// @Failure 400 {object} response.Response
// @Router /api/v1/me/notifications [patch]
func (h *MeHandler) UpdateNotifications(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	user, ok := middleware.UserFrom(c)
	if !ok {
		cause := cErr.Unauthorized("missing user context")
		end(cause)
		response.AbortWithError(c, cause)
		return
	}
	var req dto.UpdateNotificationsDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	updated, err := h.userService.UpdateNotifications(ctx, user.ID, req.Apply(user.Notifications))
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewUserResponseDto(updated))
}
