package handler

import (
	"context"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/dto"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/validate"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminUserHandler struct {
	trace       *telemetry.Trace
	userService *service.UserService
}

func NewAdminUserHandler(trace *telemetry.Trace, userService *service.UserService) *AdminUserHandler {
	return &AdminUserHandler{trace: trace, userService: userService}
}

// List 用戶列表
// @Summary 取得用戶列表
// @Tags Admin-User
// @Security BearerAuth
// @Produce json
// @Param page query int false "頁碼（從 0 開始）"
// @Param size query int false "每頁筆數"
// @Param role query string false "角色"
// @Param status query string false "狀態"
// @Success 200 {array} dto.UserResponseDto
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/admin/users [get]
func (h *AdminUserHandler) List(c *gin.Context) {
	ctx, span, end := h.trace.WithSpan(c)
	var query dto.ListUsersQuery
	if cause, respErr := validate.BindQuery(c, &query); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	users, err := h.userService.List(ctx, query.ToUserQuery())
	h.trace.ApplyTraceAttributes(span, core.TraceAdminUserListMeta{
		Page:        query.Page,
		Size:        query.Size,
		Role:        query.Role,
		Status:      query.Status,
		ResultCount: len(users),
	})
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewUserResponseDtos(users))
}

// Get 取得用戶
// @Summary 取得單一用戶資訊
// @Tags Admin-User
// @Security BearerAuth
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} dto.UserResponseDto
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/users/{userID} [get]
func (h *AdminUserHandler) Get(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	id, cause, respErr := validate.ParseObjectID(c, "userID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	user, err := h.userService.Get(ctx, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewUserResponseDto(user))
}

// UpdateStatus 更新用戶狀態
// @Summary 更新用戶狀態（停用客服會釋放其指派）
// @Tags Admin-User
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param body body dto.UpdateUserStatusDto true "狀態資訊"
// @Success 200 {object} dto.UserResponseDto
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/users/{userID}/status [patch]
func (h *AdminUserHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateUserStatusDto
	h.updateField(c, &req, func(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
		return h.userService.UpdateStatus(ctx, id, req.Status)
	})
}

// UpdateRole 更新用戶角色
// @Summary 更新用戶角色
// @Tags Admin-User
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param body body dto.UpdateUserRoleDto true "角色資訊"
// @Success 200 {object} dto.UserResponseDto
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/users/{userID}/role [patch]
func (h *AdminUserHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateUserRoleDto
	h.updateField(c, &req, func(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
		return h.userService.UpdateRole(ctx, id, req.Role)
	})
}

func (h *AdminUserHandler) updateField(
	c *gin.Context,
	req any,
	updateFn func(ctx context.Context, id primitive.ObjectID) (*model.User, error),
) {
	ctx, _, end := h.trace.WithSpan(c)

	id, cause, respErr := validate.ParseObjectID(c, "userID")
	if cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	if cause, respErr := validate.BindAndValidate(c, req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	user, err := updateFn(ctx, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewUserResponseDto(user))
}
