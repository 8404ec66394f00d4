package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobPortal/internal/api/middleware"
	"jobPortal/internal/auth"
	"jobPortal/internal/storage"
)

// RegisterRoutes 注册全部业务路由。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	sessions *auth.SessionService,
	store storage.Store,
	logger *slog.Logger,
	cookieDomain string,
) {
	authHandler := NewAuthHandler(db, sessions, logger, cookieDomain)
	jobHandler := NewJobHandler(db)
	applicationHandler := NewApplicationHandler(db, store)
	dashboardHandler := NewDashboardHandler(db)
	adminHandler := NewAdminHandler(db, store)
	sessionRequired := middleware.SessionMiddleware(sessions, db)

	router.GET("/", jobHandler.ListJobs)
	router.GET("/jobs", jobHandler.ListJobs)
	router.GET("/jobs/:job_id", jobHandler.GetJob)

	router.GET("/register", authHandler.RegisterForm)
	router.POST("/register", authHandler.Register)
	router.GET("/login", authHandler.LoginForm)
	router.POST("/login", authHandler.Login)

	authed := router.Group("")
	authed.Use(sessionRequired)
	{
		authed.GET("/logout", authHandler.Logout)
		authed.GET("/dashboard", dashboardHandler.Dashboard)

		authed.GET("/post-job", jobHandler.PostJobForm)
		authed.POST("/post-job", jobHandler.PostJob)

		authed.GET("/apply/:job_id", applicationHandler.ApplyForm)
		authed.POST("/apply/:job_id", applicationHandler.Apply)
		authed.GET("/applications/:application_id/resume", applicationHandler.DownloadResume)

		authed.GET("/admin", adminHandler.Dashboard)
		authed.POST("/admin/delete_user/:user_id", adminHandler.DeleteUser)
		authed.POST("/admin/delete_job/:job_id", adminHandler.DeleteJob)
	}
}
