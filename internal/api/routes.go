package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with recovery, request IDs, request
// logging, metrics and all routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger), s.metrics.middleware())
	RegisterRoutes(r, s)
	return r
}

func RegisterRoutes(r *gin.Engine, s *Server) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/decorations", s.listDecorations)
		api.GET("/decorations/:name/:user", s.decoratedAvatar)
		api.GET("/qr/:name", s.qrHandler)
		api.GET("/table", s.tableHandler)
	}
	r.GET("/github-banner.png", s.bannerHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
}
