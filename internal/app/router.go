package app

import (
	"testcracker/docs"
	"testcracker/internal/config"
	"testcracker/internal/middleware"
	"testcracker/internal/model"
	"testcracker/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Liveness and readiness stay outside the rate limiter.
	router.GET("/", c.health.Root)
	router.GET("/health", c.health.HealthCheck)
	router.GET("/ready", c.health.Ready)

	api := router.Group("/api")
	api.Use(a.limiter.Middleware())

	// 1. public
	a.registerPublicRoutes(api, c)

	// 2. any signed-in user
	authGroup := api.Group("")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	a.registerStudentRoutes(authGroup, c)

	// 3. admins
	a.registerAdminRoutes(api, c, cfg)
}

func (a *App) registerPublicRoutes(public *gin.RouterGroup, c *controllers) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
	}

	public.GET("/exams", c.exam.GetExams)
	public.GET("/exams/code/:code", c.exam.GetExamByCode)
	public.GET("/exams/:id", c.exam.GetExam)
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.Profile)

	rg.POST("/exams/:id/attempts", c.attempt.StartAttempt)

	rg.GET("/attempts/me", c.attempt.GetMyAttempts)
	rg.GET("/attempts/:id", c.attempt.GetAttempt)
	rg.POST("/attempts/:id/submit", c.attempt.SubmitAttempt)
}

func (a *App) registerAdminRoutes(api *gin.RouterGroup, c *controllers, cfg *config.Config) {
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.RoleAdmin))
	{
		users := admin.Group("/users")
		{
			users.GET("", c.user.GetUsers)
			users.POST("", c.user.CreateUser)
			users.GET("/stats", c.user.GetUserStats)
			users.GET("/:id", c.user.GetUser)
			users.PUT("/:id", c.user.UpdateUser)
			users.DELETE("/:id", c.user.DeleteUser)
		}

		exams := admin.Group("/exams")
		{
			exams.POST("", c.exam.CreateExam)
			exams.POST("/bulk", c.exam.BulkCreateExams)
			exams.PUT("/:id", c.exam.UpdateExam)
			exams.DELETE("/:id", c.exam.DeleteExam)
			exams.POST("/:id/paper", c.exam.UploadPaper)
			exams.GET("/:id/stats", c.exam.GetExamStats)
		}

		attempts := admin.Group("/attempts")
		{
			attempts.GET("", c.attempt.GetAttempts)
			attempts.GET("/stats", c.attempt.GetAttemptStats)
			attempts.DELETE("/:id", c.attempt.DeleteAttempt)
		}
	}
}
