package handler

import (
	"supportdesk/internal/dto"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/validate"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationHandler struct {
	trace               *telemetry.Trace
	conversationService *service.ConversationService
}

func NewConversationHandler(trace *telemetry.Trace, conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{trace: trace, conversationService: conversationService}
}

// List 對話列表
// @Summary 列出目前使用者看得到的對話（updatedAt 新到舊，含未讀數）
// @Tags Conversation
// @Security BearerAuth
// @Produce json
// @Param status query string false "open / archived"
// @Success 200 {array} dto.ConversationResponseDto
// @Failure 400 {object} response.Response
// @Router /api/v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, ok := requireViewer(c)
	if !ok {
		end(nil)
		return
	}
	var query dto.ListConversationsQuery
	if cause, respErr := validate.BindQuery(c, &query); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	summaries, err := h.conversationService.List(ctx, viewer, query.StatusFilter())
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewConversationSummaryDtos(summaries))
}

// Create 開新對話
// @Summary 開新對話，開單者為 owner
// @Tags Conversation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CreateConversationDto true "主旨"
// @Success 201 {object} dto.ConversationResponseDto
// @Failure 400 {object} response.Response
// @Router /api/v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, ok := requireViewer(c)
	if !ok {
		end(nil)
		return
	}
	var req dto.CreateConversationDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	conversation, err := h.conversationService.Create(ctx, viewer, req.Subject)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, dto.NewConversationResponseDto(conversation))
}

// Get 取得對話
// @Summary 取得單一對話（看不到的對話回 404）
// @Tags Conversation
// @Security BearerAuth
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} dto.ConversationResponseDto
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{conversationID} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	summary, err := h.conversationService.Get(ctx, viewer, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewConversationSummaryDto(summary))
}

// UpdateStatus 封存或重新開啟
// @Summary 更新對話狀態
// @Tags Conversation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Param body body dto.UpdateConversationStatusDto true "狀態"
// @Success 200 {object} dto.ConversationResponseDto
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/status [patch]
func (h *ConversationHandler) UpdateStatus(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}
	var req dto.UpdateConversationStatusDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}

	conversation, err := h.conversationService.SetStatus(ctx, viewer, id, req.Status)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewConversationResponseDto(conversation))
}

// Delete 刪除對話
// @Summary 刪除對話與其所有訊息（限管理員）
// @Tags Conversation
// @Security BearerAuth
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{conversationID} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	err := h.conversationService.Delete(ctx, viewer, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "conversation deleted successfully", "id": id.Hex()})
}

// Assign 指派客服
// @Summary 指派客服（限管理員），被指派者必須是啟用中的 staff/dev
// @Tags Conversation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Param body body dto.AssignConversationDto true "客服 ID"
// @Success 200 {object} dto.ConversationResponseDto
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/assignee [put]
func (h *ConversationHandler) Assign(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}
	var req dto.AssignConversationDto
	if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
		end(cause)
		response.AbortWithError(c, respErr)
		return
	}
	staffID, err := primitive.ObjectIDFromHex(req.StaffID)
	if err != nil {
		end(err)
		response.AbortWithError(c, cErr.ValidationFailed("invalid staffId"))
		return
	}

	conversation, err := h.conversationService.Assign(ctx, viewer, id, staffID)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewConversationResponseDto(conversation))
}

// Unassign 取消指派
// @Summary 取消指派（限管理員）
// @Tags Conversation
// @Security BearerAuth
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} dto.ConversationResponseDto
// @Failure 403 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/assignee [delete]
func (h *ConversationHandler) Unassign(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	conversation, err := h.conversationService.Unassign(ctx, viewer, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewConversationResponseDto(conversation))
}
