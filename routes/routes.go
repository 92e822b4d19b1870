package routes

import (
	"net/http"

	"github.com/HaianCao/library-management-system/activity"
	"github.com/HaianCao/library-management-system/auth"
	"github.com/HaianCao/library-management-system/books"
	"github.com/HaianCao/library-management-system/borrowings"
	"github.com/HaianCao/library-management-system/config"
	"github.com/HaianCao/library-management-system/dashboard"
	"github.com/HaianCao/library-management-system/middleware"
	"github.com/HaianCao/library-management-system/notifications"
	"github.com/HaianCao/library-management-system/users"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures all the application routes. Role and ownership
// checks live in the authz guard inside handlers; the middleware here only
// authenticates the session.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	var oidc *auth.OIDCClient
	var refresher auth.TokenRefresher
	if cfg.FederatedEnabled() {
		oidc = auth.NewOIDCClient(cfg)
		refresher = oidc
	}

	authSvc := auth.NewService(db, cfg, refresher)
	authHandler := auth.NewHandler(db, authSvc, cfg, oidc)
	bookHandler := books.NewHandler(db)
	borrowHandler := borrowings.NewHandler(db)
	userHandler := users.NewHandler(db)
	activityHandler := activity.NewHandler(db)
	notifHandler := notifications.NewHandler(db)
	dashHandler := dashboard.NewHandler(db)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public authentication routes
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/federated", authHandler.FederatedLogin)
	}

	// Everything below requires a valid session
	api := router.Group("/api")
	api.Use(middleware.Auth(authSvc))
	{
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/user", authHandler.CurrentUser)

		api.GET("/dashboard/stats", dashHandler.GetStats)

		api.GET("/books", bookHandler.ListBooks)
		api.GET("/books/genres", bookHandler.ListGenres)
		api.GET("/books/:id", bookHandler.GetBook)
		api.POST("/books", bookHandler.CreateBook)
		api.PUT("/books/:id", bookHandler.UpdateBook)
		api.DELETE("/books/:id", bookHandler.DeleteBook)

		api.GET("/borrowings", borrowHandler.ListBorrowings)
		api.POST("/borrowings", borrowHandler.CreateBorrowing)
		api.PUT("/borrowings/:id/return", borrowHandler.ReturnBorrowing)
		api.PUT("/borrowings/:id/overdue", borrowHandler.MarkOverdue)

		api.GET("/activity-logs", activityHandler.ListLogs)

		api.GET("/users", userHandler.ListUsers)
		api.PUT("/users/:id/role", userHandler.UpdateRole)
		api.DELETE("/users/:id", userHandler.DeleteUser)

		api.GET("/notifications", notifHandler.ListNotifications)
		api.POST("/notifications", notifHandler.CreateNotification)
		api.DELETE("/notifications/:id", notifHandler.DeleteNotification)
	}
}
