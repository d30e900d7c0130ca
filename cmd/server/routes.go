package main

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslink/alumninet/internal/handlers"
	"github.com/campuslink/alumninet/internal/middleware"
	"github.com/campuslink/alumninet/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for media uploads
	uploadLimiter := middleware.NewRateLimiter(2, 5)

	// Health check
	r.GET("/health", handlers.Health)

	// API routes
	api := r.Group("/api")
	{
		// Public listings
		api.GET("/jobs", svc.contentHandler.ListJobs)
		api.GET("/stories", svc.contentHandler.ListStories)
		api.GET("/events", svc.contentHandler.ListEvents)
		api.GET("/media", svc.mediaHandler.ListPublished)

		// Authenticated routes (identity resolved from the IdP assertion)
		authed := api.Group("")
		authed.Use(middleware.AuthRequired(svc.identityService))
		{
			authed.GET("/auth/me", svc.authHandler.Me)
			authed.PUT("/auth/me", svc.authHandler.UpdateProfile)

			// Routes requiring an approved membership
			active := authed.Group("")
			active.Use(middleware.ActiveMemberRequired())
			{
				active.POST("/jobs", svc.contentHandler.CreateJob)
				active.DELETE("/jobs/:id", svc.contentHandler.DeleteJob)
				active.POST("/stories", svc.contentHandler.CreateStory)
				active.POST("/events", svc.contentHandler.CreateEvent)

				active.POST("/media", uploadLimiter.Middleware(), svc.mediaHandler.Upload)
				active.GET("/media/:id/download-url", svc.mediaHandler.DownloadURL)
			}

			// Admin only routes
			admin := authed.Group("/admin")
			admin.Use(middleware.AdminRequired())
			{
				admin.GET("/members", svc.memberHandler.List)
				admin.POST("/members/:id/approve", svc.memberHandler.Approve)
				admin.POST("/members/:id/reject", svc.memberHandler.Reject)
				admin.POST("/members/bulk", svc.memberHandler.Bulk)

				admin.GET("/media", svc.mediaHandler.ListSubmissions)
				admin.POST("/media/:id/approve", svc.mediaHandler.Approve)
				admin.POST("/media/:id/reject", svc.mediaHandler.Reject)
				admin.POST("/media/bulk", svc.mediaHandler.Bulk)

				admin.GET("/moderation-log", svc.ledgerHandler.List)
			}
		}
	}
}
