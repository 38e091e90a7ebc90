package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ridehail-backend/config"
	"github.com/ikkim/ridehail-backend/internal/app/controller"
	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authController         *controller.AuthController
	verificationController *controller.VerificationController
	authMiddleware         *middleware.AuthMiddleware
	metricsGatherer        prometheus.Gatherer
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	verificationController *controller.VerificationController,
	authMiddleware *middleware.AuthMiddleware,
	metricsGatherer prometheus.Gatherer,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		verificationController: verificationController,
		authMiddleware:         authMiddleware,
		metricsGatherer:        metricsGatherer,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Ridehail verification API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.metricsGatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		admin := v1.Group("",
			r.authMiddleware.Authenticate(),
			r.authMiddleware.RequireRole(model.RoleAdmin),
		)

		verifications := admin.Group("/verifications")
		{
			verifications.GET("/pending", r.verificationController.ListPending)
			verifications.GET("/history", r.verificationController.ListHistory)
			verifications.GET("/history/export", r.verificationController.ExportHistory)
			verifications.GET("/entities", r.verificationController.ListEntities)
			verifications.GET("/entity/:entityType/:entityId", r.verificationController.GetEntityVerifications)
			verifications.PATCH("/:verificationId/status", r.verificationController.UpdateStatus)
			verifications.GET("/consistency", r.verificationController.Consistency)
			verifications.GET("/documents/:documentId/url", r.verificationController.DocumentURL)
		}

		v1.GET("/ws/verifications",
			r.authMiddleware.AuthenticateWS(),
			r.authMiddleware.RequireRole(model.RoleAdmin),
			r.verificationController.Feed,
		)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
