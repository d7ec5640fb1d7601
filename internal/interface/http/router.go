package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/mens-health/internal/domain/access"
	"github.com/yanqian/mens-health/internal/infra/config"
	"github.com/yanqian/mens-health/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, gatherer prometheus.Gatherer, recorder *metrics.Recorder) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		metricsMiddleware(recorder),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.HealthCheck)
	if cfg.Metrics.Enabled && gatherer != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler(gatherer)))
	}

	functions := router.Group("/", functionCORS(), authMiddleware(handler.authSvc))
	{
		functions.Any("/calculateHealthScore", handler.CalculateHealthScore)
		functions.Any("/getHealthHistory", handler.GetHealthHistory)
		functions.Any("/sendHealthEmail", handler.SendHealthEmail)
	}

	api := router.Group("/api/v1", authMiddleware(handler.authSvc))
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", requireView(access.ViewSignup), handler.Register)
		authGroup.POST("/login", requireView(access.ViewLogin), handler.Login)
		authGroup.POST("/login/id-token", requireView(access.ViewLogin), handler.LoginWithIDToken)
		authGroup.GET("/google/login", requireView(access.ViewLogin), handler.GoogleLogin)
		authGroup.GET("/google/callback", handler.GoogleCallback)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.GET("/me", requireSession(), handler.Me)
		authGroup.POST("/logout", requireSession(), handler.Logout)

		admin := api.Group("/admin", requireView(access.ViewUserManagement))
		admin.GET("/users", handler.ListUsers)
		admin.PUT("/users/:id/role", handler.UpdateRole)

		assessments := api.Group("/assessments", requireView(access.ViewHealthAssessment))
		assessments.POST("", handler.SubmitAssessment)
		assessments.GET("", handler.ListAssessments)
		assessments.GET("/latest", handler.LatestAssessment)
		assessments.GET("/stats", handler.AssessmentStats)
		assessments.GET("/history", handler.AssessmentHistory)
		assessments.DELETE("/:id", handler.DeleteAssessment)
		assessments.DELETE("", handler.ClearAssessments)

		ratings := api.Group("/ratings")
		ratings.POST("", requireSession(), handler.SubmitRating)
		ratings.GET("/me", requireSession(), handler.MyRating)
		ratings.GET("/stats", requireView(access.ViewAbout), handler.RatingStats)

		fitnessGroup := api.Group("/fitness", requireView(access.ViewFitness))
		fitnessGroup.GET("/stats", handler.FitnessStats)
		fitnessGroup.GET("/:workout", handler.WorkoutProgress)
		fitnessGroup.POST("/:workout/start", handler.StartWorkout)
		fitnessGroup.POST("/:workout/exercises/:index", handler.CompleteExercise)
		fitnessGroup.POST("/:workout/finish", handler.FinishWorkout)
		fitnessGroup.GET("/:workout/percent", handler.WorkoutPercent)

		api.GET("/access", handler.AccessibleViews)
		api.GET("/access/:view", handler.CanAccessView)

		articles := api.Group("/articles", requireView(access.ViewHealthInfo))
		articles.GET("/random", handler.RandomArticle)
		articles.GET("/:id/html", handler.ArticleHTML)
		articles.POST("/share", handler.ShareArticle)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
