package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bookreel/trailer-service/internal/usecase"
)

// NewRouter registers the API routes. videosDir is served under /videos and
// outputDir under /generated, each only when set.
func NewRouter(h *Handler, videosDir, outputDir string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	v1 := router.Group("/v1")
	{
		v1.POST("/trailers", h.GenerateTrailer)
		v1.POST("/books/:bookID/trailer", h.EnqueueTrailer)
		v1.GET("/books/:bookID/trailer", h.TrailerStatus)
		v1.GET("/health/pipeline", h.PipelineHealth)
	}

	if videosDir != "" {
		router.Static("/videos", videosDir)
	}
	if outputDir != "" {
		router.Static(strings.TrimSuffix(usecase.PreviewPath, "/"), outputDir)
	}
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
