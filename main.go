package main

import (
	"log"

	"github.com/HaianCao/library-management-system/auth"
	"github.com/HaianCao/library-management-system/config"
	"github.com/HaianCao/library-management-system/database"
	"github.com/HaianCao/library-management-system/routes"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	auth.InitJWTKey(cfg.JWTSecret)

	database.InitDB()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS middleware for the browser frontend
	router.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range cfg.CORSOrigins {
			if origin == allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	routes.SetupRoutes(router, database.DB, cfg)

	log.Printf("Starting library backend on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
