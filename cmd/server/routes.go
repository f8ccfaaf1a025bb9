package main

import (
	"net/http"

	"eqic-a2a.backend/internal/interfaces/http/handlers"
	"eqic-a2a.backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeDeps struct {
	platformHandler *handlers.PlatformHandler
	transferHandler *handlers.TransferHandler
	authMiddleware  gin.HandlerFunc
	adminMiddleware gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Platform routes (public)
		platforms := v1.Group("/platforms")
		{
			platforms.GET("", d.platformHandler.ListPlatforms)
			platforms.GET("/compatibility", d.platformHandler.CheckCompatibility)
			platforms.GET("/:id", d.platformHandler.GetPlatform)
		}

		// Transfer routes (protected)
		transfers := v1.Group("/transfers")
		transfers.Use(d.authMiddleware)
		{
			transfers.POST("", middleware.IdempotencyMiddleware(), d.transferHandler.CreateTransfer)
			transfers.POST("/quote", d.transferHandler.QuoteTransfer)
			transfers.POST("/:id/process", d.transferHandler.ProcessTransfer)
			transfers.GET("/history", d.transferHandler.GetHistory)
			transfers.GET("/pending", d.transferHandler.GetPending)
			transfers.GET("/archive", d.transferHandler.GetArchivedHistory)
		}

		// Admin routes (platform registry mutations)
		admin := v1.Group("/admin")
		admin.Use(d.adminMiddleware)
		{
			admin.PUT("/platforms/:id", d.platformHandler.UpdatePlatform)
		}
	}
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Admin-Key, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}
