package handler

import (
	"supportdesk/internal/core"
	"supportdesk/internal/middleware"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/utils/validate"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// requireViewer 路由沒掛 User middleware 時直接 401
func requireViewer(c *gin.Context) (core.Viewer, bool) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.AbortWithError(c, cErr.Unauthorized("missing user context"))
	}
	return viewer, ok
}

// conversationTarget 取出 viewer 與路徑上的對話 ID，失敗時已回錯
func conversationTarget(c *gin.Context) (core.Viewer, primitive.ObjectID, bool) {
	viewer, ok := requireViewer(c)
	if !ok {
		return core.Viewer{}, primitive.NilObjectID, false
	}
	id, cause, respErr := validate.ParseObjectID(c, "conversationID")
	if cause != nil {
		response.AbortWithError(c, respErr)
		return core.Viewer{}, primitive.NilObjectID, false
	}
	return viewer, id, true
}
