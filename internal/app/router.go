package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"learnmate_backend/docs"
	"learnmate_backend/internal/config"
	"learnmate_backend/internal/middleware"
	"learnmate_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/leaderboard", c.progress.Leaderboard)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(s.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.POST("/users/avatar", c.user.UploadAvatar)

		quiz := authGroup.Group("/quiz")
		{
			quiz.POST("/generate", c.quiz.Generate)
			quiz.POST("/submit", c.quiz.Submit)
			quiz.GET("/history", c.quiz.History)
		}

		chat := authGroup.Group("/chat")
		{
			chat.GET("/messages", c.chat.Messages)
			chat.POST("/send", c.chat.Send)
		}

		authGroup.GET("/progress/stats", c.progress.Stats)
	}
}
