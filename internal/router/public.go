package router

import (
	"supportdesk/internal/handler"
	"supportdesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

// PublicRouter 不需要本地使用者的入口：登入同步與身分提供者 webhook
type PublicRouter struct {
	syncHandler        *handler.SyncHandler
	webhookHandler     *handler.WebhookHandler
	identityMiddleware *middleware.Identity
	webhookMiddleware  *middleware.Webhook
}

func NewPublicRouter(
	syncHandler *handler.SyncHandler,
	webhookHandler *handler.WebhookHandler,
	identityMiddleware *middleware.Identity,
	webhookMiddleware *middleware.Webhook,
) *PublicRouter {
	return &PublicRouter{
		syncHandler:        syncHandler,
		webhookHandler:     webhookHandler,
		identityMiddleware: identityMiddleware,
		webhookMiddleware:  webhookMiddleware,
	}
}

func (publicRouter *PublicRouter) RegisterRoutes(engine *gin.Engine) {
	sync := engine.Group("/user/sync")
	sync.Use(publicRouter.identityMiddleware.Handler())
	{
		sync.POST("", publicRouter.syncHandler.Sync)
		sync.GET("", publicRouter.syncHandler.Status)
	}

	webhooks := engine.Group("/webhooks")
	webhooks.Use(publicRouter.webhookMiddleware.Handler())
	{
		webhooks.POST("/identity", publicRouter.webhookHandler.Identity)
	}
}
