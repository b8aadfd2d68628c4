package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"supportdesk/config"
	"supportdesk/internal/dto"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"
	"supportdesk/utils/validate"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// 表單欄位；files[] 給不會自動去掉中括號的前端
const (
	formContent    = "content"
	formFiles      = "files"
	formFilesArray = "files[]"
)

type MessageHandler struct {
	trace          *telemetry.Trace
	messageService *service.MessageService
	maxBodyBytes   int64
}

func NewMessageHandler(trace *telemetry.Trace, conf *config.Configuration, messageService *service.MessageService) *MessageHandler {
	limits := conf.Attachment.WithDefaults()
	// 超過單檔上限的檔案要能進來才能逐檔退回
	maxBody := limits.MaxSizeBytes*int64(limits.MaxFiles+1) + 1<<20
	return &MessageHandler{trace: trace, messageService: messageService, maxBodyBytes: maxBody}
}

// List 開啟對話
// @Summary 取得對話訊息（createdAt 舊到新），並把他人訊息標成已讀
// @Tags Message
// @Security BearerAuth
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Success 200 {array} dto.MessageResponseDto
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	messages, err := h.messageService.Open(ctx, viewer, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.NewMessageResponseDtos(messages))
}

// Send 送出訊息
// @Summary 送出訊息，可附檔（multipart: content + files）；被退回的附件列在 rejections
// @Tags Message
// @Security BearerAuth
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Param content formData string false "訊息內容"
// @Param files formData file false "附件（可多個）"
// @Success 201 {object} dto.SendMessageResponseDto
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	ctx, span, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	content, files, err := h.readSendRequest(c)
	if err != nil {
		end(err)
		response.AbortWithError(c, err)
		return
	}
	span.SetAttributes(attribute.Int("message.files", len(files)))

	result, err := h.messageService.Send(ctx, viewer, id, content, files)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Create(c, dto.NewSendMessageResponseDto(result))
}

// MarkRead 標記已讀
// @Summary 把對話中他人的訊息標成已讀
// @Tags Message
// @Security BearerAuth
// @Produce json
// @Param conversationID path string true "Conversation ID"
// @Success 200 {object} dto.MarkReadResponseDto
// @Failure 404 {object} response.Response
// @Router /api/v1/conversations/{conversationID}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	ctx, _, end := h.trace.WithSpan(c)
	viewer, id, ok := conversationTarget(c)
	if !ok {
		end(nil)
		return
	}

	updated, err := h.messageService.MarkRead(ctx, viewer, id)
	end(err)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Success(c, dto.MarkReadResponseDto{Updated: updated})
}

// readSendRequest multipart 取 content 與檔案，其餘當 JSON
func (h *MessageHandler) readSendRequest(c *gin.Context) (string, []service.AttachmentFile, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req dto.SendMessageDto
		if cause, respErr := validate.BindAndValidate(c, &req); cause != nil {
			return "", nil, respErr
		}
		return req.Content, nil, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, cErr.BadRequestBody("invalid multipart body: " + err.Error())
	}
	var content string
	if values := form.Value[formContent]; len(values) > 0 {
		content = values[0]
	}
	var headers []*multipart.FileHeader
	headers = append(headers, form.File[formFiles]...)
	headers = append(headers, form.File[formFilesArray]...)
	return content, attachmentFiles(headers), nil
}

func attachmentFiles(headers []*multipart.FileHeader) []service.AttachmentFile {
	files := make([]service.AttachmentFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, service.AttachmentFile{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}
