package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/config"
)

// New builds the HTTP server with all routes registered
func New(cfg config.ServerConfig, handler *Handler, logger *zap.Logger) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "receipts-automation",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/receipts/process", handler.Process)
		api.POST("/receipts/run-mailbox", handler.RunMailbox)
		api.GET("/runs", handler.Runs)
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// loggingMiddleware logs each request with latency and status
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
