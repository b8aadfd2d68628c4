package middleware

import (
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// Admin 必須掛在 User middleware 之後
type Admin struct {
	access *service.AccessService
}

func NewAdmin(access *service.AccessService) *Admin {
	return &Admin{access: access}
}

func (middleware *Admin) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := ViewerFrom(c)
		if !ok {
			response.AbortWithError(c, cErr.Unauthorized("missing user context"))
			return
		}
		if err := middleware.access.RequireAdmin(viewer); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
