package router

import (
	"supportdesk/internal/handler"
	"supportdesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AdminRouter struct {
	userHandler     *handler.AdminUserHandler
	adminMiddleware *middleware.Admin
}

func NewAdminRouter(
	userHandler *handler.AdminUserHandler,
	adminMiddleware *middleware.Admin,
) *AdminRouter {
	return &AdminRouter{
		userHandler:     userHandler,
		adminMiddleware: adminMiddleware,
	}
}

// RegisterRoutes 掛在已驗證身分的 /api/v1 之下
func (ar *AdminRouter) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin/users")
	admin.Use(ar.adminMiddleware.Handler())
	{
		admin.GET("", ar.userHandler.List)
		admin.GET("/:userID", ar.userHandler.Get)
		admin.PATCH("/:userID/status", ar.userHandler.UpdateStatus)
		admin.PATCH("/:userID/role", ar.userHandler.UpdateRole)
	}
}
