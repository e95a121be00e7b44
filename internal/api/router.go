// api/router.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

func NewRouter(st storage.Store, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/directories", ListDirectoriesHandler(st))
		apiGroup.POST("/directories", CreateDirectoryHandler(st))
		apiGroup.PUT("/directories/:id", UpdateDirectoryHandler(st))

		apiGroup.GET("/records/:directoryId", ListRecordsHandler(st))
		apiGroup.POST("/records/:directoryId", CreateRecordHandler(st))
		apiGroup.DELETE("/records/:recordId", DeleteRecordHandler(st))
	}

	return r
}

func RunServer(addr string, st storage.Store, log *zap.Logger) error {
	return NewRouter(st, log).Run(addr)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
