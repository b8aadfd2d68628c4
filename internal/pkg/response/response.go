package response

import (
	"net/http"

	cErr "supportdesk/internal/pkg/error"

	"github.com/gin-gonic/gin"
)

type Response struct {
	RequestID   string `json:"requestID"`
	Code        int    `json:"code"`
	Data        any    `json:"data"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func Create(c *gin.Context, data any) {
	c.Status(http.StatusCreated)
	c.Set("data", data)
	c.Set("message", messageOf(data, "Create Success"))
	c.Abort()
}

func Success(c *gin.Context, data any) {
	c.Set("data", data)
	c.Set("message", messageOf(data, "Request Success"))
	c.Abort()
}

// messageOf gin.H 裡的 message 會被拿出來當描述
func messageOf(data any, fallback string) string {
	msg, ok := data.(gin.H)
	if !ok {
		return fallback
	}
	if s, ok := msg["message"].(string); ok && s != "" {
		delete(msg, "message")
		return s
	}
	return fallback
}

func AbortWithError(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

func Fail(c *gin.Context, RequestID string, httpCode int, errorCode int, msg string, desc string) {
	c.JSON(httpCode, Response{
		RequestID:   RequestID,
		Code:        errorCode,
		Data:        nil,
		Message:     msg,
		Description: desc,
	})
	c.Abort()
}

func FailByErr(c *gin.Context, RequestID string, err error) {
	v, ok := err.(*cErr.Error)
	if ok {
		Fail(c, RequestID, v.HttpCode(), v.ErrorCode(), v.Error(), v.ErrorDesc())
	} else {
		Fail(c, RequestID, http.StatusBadRequest, cErr.INTERNAL_ERROR, err.Error(), "internal error")
	}
}
