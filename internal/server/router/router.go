package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(drafts *handlers.DraftHandler, inventory *handlers.InventoryHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/products", inventory.Products)
	r.POST("/products/refresh", inventory.RefreshProducts)
	r.GET("/departments", inventory.Departments)
	r.POST("/departments/refresh", inventory.RefreshDepartments)
	r.GET("/movements", inventory.Movements)
	r.GET("/notifications", inventory.Notifications)
	r.POST("/notifications", inventory.Broadcast)

	d := r.Group("/drafts")
	d.POST("", drafts.Create)
	d.GET("/:id", drafts.Get)
	d.PUT("/:id", drafts.Update)
	d.DELETE("/:id", drafts.Discard)
	d.POST("/:id/items", drafts.AddItem)
	d.PATCH("/:id/items/:index", drafts.UpdateItem)
	d.DELETE("/:id/items/:index", drafts.RemoveItem)
	d.POST("/:id/submit", drafts.Submit)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request completed", fields...)
	}
}
