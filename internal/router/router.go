package router

import (
	"net/http"

	docs "supportdesk/cmd/docs"
	"supportdesk/config"
	"supportdesk/internal/database/storage"
	"supportdesk/internal/middleware"
	"supportdesk/internal/pkg/response"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var ProviderSet = wire.NewSet(
	NewRouter,
	NewAdminRouter,
	NewApiRouter,
	NewPublicRouter,
	NewHealthRouter,
)

// 透過依賴注入將
func NewRouter(
	config *config.Configuration,
	traceEntry *middleware.TraceEntry,
	recovery *middleware.Recovery,
	cors *middleware.Cors,
	logger *middleware.Logger,
	responseMiddleware *middleware.Response,
	objectStorage storage.ObjectStorage,
	apiRouter *ApiRouter,
	publicRouter *PublicRouter,
	healthRouter *HealthRouter,
) *gin.Engine {

	switch config.App.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(traceEntry.Handler())
	router.Use(logger.LoggerHandler())
	router.Use(cors.CorsHandler())
	router.Use(recovery.ErrorHandler())
	router.Use(responseMiddleware.FormatHandler())
	router.GET("/health-check", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Response{
			Code:        0,
			Data:        "ok",
			Message:     "success",
			Description: "service is alive",
		})
		c.Abort()
	})
	router.GET("/version", func(c *gin.Context) {
		response.Success(c, gin.H{"name": config.App.Name, "version": config.App.Version, "env": config.App.Env})
	})
	healthRouter.RegisterHealthRoutes(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if config.App.SwaggerEnabled {
		router.GET("/swagger/*any", func(c *gin.Context) {
			docs.SwaggerInfo.Host = c.Request.Host

			if config.App.Env == "production" {
				docs.SwaggerInfo.Schemes = []string{"https"}
			}
		}, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// local driver 的附件直接由服務提供
	if local, ok := objectStorage.(*storage.LocalStorage); ok {
		router.Static("/attachments", local.BasePath())
	}

	publicRouter.RegisterRoutes(router)
	apiRouter.RegisterRoutes(router)
	pprof.Register(router)
	return router
}
