package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/letter5700/backend/internal/handlers"
)

type RouterConfig struct {
	RecordHandler *handlers.RecordHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/records", cfg.RecordHandler.Create)
		api.GET("/records/:id", cfg.RecordHandler.Get)
		api.GET("/records", cfg.RecordHandler.List)
		api.DELETE("/records", cfg.RecordHandler.DeleteAll)
	}

	return router
}
