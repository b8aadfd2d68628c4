package router

import (
	"supportdesk/internal/handler"
	"supportdesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

const messageRateLimitScope = "message"

type ApiRouter struct {
	meHandler           *handler.MeHandler
	conversationHandler *handler.ConversationHandler
	messageHandler      *handler.MessageHandler
	streamHandler       *handler.StreamHandler
	identityMiddleware  *middleware.Identity
	userMiddleware      *middleware.User
	ratelimitMiddleware *middleware.RateLimit
	adminRouter         *AdminRouter
}

func NewApiRouter(
	meHandler *handler.MeHandler,
	conversationHandler *handler.ConversationHandler,
	messageHandler *handler.MessageHandler,
	streamHandler *handler.StreamHandler,
	identityMiddleware *middleware.Identity,
	userMiddleware *middleware.User,
	ratelimitMiddleware *middleware.RateLimit,
	adminRouter *AdminRouter,
) *ApiRouter {
	return &ApiRouter{
		meHandler:           meHandler,
		conversationHandler: conversationHandler,
		messageHandler:      messageHandler,
		streamHandler:       streamHandler,
		identityMiddleware:  identityMiddleware,
		userMiddleware:      userMiddleware,
		ratelimitMiddleware: ratelimitMiddleware,
		adminRouter:         adminRouter,
	}
}

func (apiRouter *ApiRouter) RegisterRoutes(engine *gin.Engine) {
	api := engine.Group("/api/v1")
	api.Use(apiRouter.identityMiddleware.Handler())
	api.Use(apiRouter.userMiddleware.Handler())

	me := api.Group("/me")
	{
		me.GET("", apiRouter.meHandler.Get)
		me.PATCH("/notifications", apiRouter.meHandler.UpdateNotifications)
	}

	conversations := api.Group("/conversations")
	{
		conversations.GET("", apiRouter.conversationHandler.List)
		conversations.POST("", apiRouter.conversationHandler.Create)
		conversations.GET("/:conversationID", apiRouter.conversationHandler.Get)
		conversations.PATCH("/:conversationID/status", apiRouter.conversationHandler.UpdateStatus)
		conversations.DELETE("/:conversationID", apiRouter.conversationHandler.Delete)
		conversations.PUT("/:conversationID/assignee", apiRouter.conversationHandler.Assign)
		conversations.DELETE("/:conversationID/assignee", apiRouter.conversationHandler.Unassign)

		conversations.GET("/:conversationID/messages", apiRouter.messageHandler.List)
		conversations.POST("/:conversationID/messages",
			apiRouter.ratelimitMiddleware.Guard(messageRateLimitScope),
			apiRouter.messageHandler.Send)
		conversations.POST("/:conversationID/read", apiRouter.messageHandler.MarkRead)
		conversations.GET("/:conversationID/stream", apiRouter.streamHandler.Stream)
	}

	apiRouter.adminRouter.RegisterRoutes(api)
}
