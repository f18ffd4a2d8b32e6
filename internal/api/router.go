package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/internal/service/orchestrator"
)

type RouterOptions struct {
	AllowOrigins []string
}

func NewRouter(orch *orchestrator.Orchestrator, log *logger.Logger, opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	log = log.Named("api")

	r := gin.New()
	r.Use(requestID())
	r.Use(recovery(log))
	r.Use(corsMiddleware(opts.AllowOrigins))
	r.Use(metricsMiddleware())
	r.Use(requestLogger(log))

	handler := NewHandler(orch, log)

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/list_models", handler.ListModels)
	r.POST("/generate_slides", handler.GenerateSlides)

	return r
}
