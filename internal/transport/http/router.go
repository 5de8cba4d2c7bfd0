package http

import (
	"net/http"

	"github.com/astro-web3/credential-gateway/internal/config"
	"github.com/astro-web3/credential-gateway/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(handler *Handler, cfg *config.Config, m *metrics.Metrics, rpc http.Handler, rpcPath string) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	if cfg.Observability.TraceEnabled {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.POST("/api/credential", handler.Credential)

	if rpc != nil {
		router.Any(rpcPath+"*method", gin.WrapH(rpc))
	}

	return router
}
