package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "plabroom/internal/app"
	"plabroom/internal/bootstrap"
	"plabroom/internal/cache"
	"plabroom/internal/platform/rabbitmq"
	"plabroom/internal/repository"
	"plabroom/internal/transport/http/handler"
	"plabroom/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(app.Config.CORS.AllowedOrigins))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	categoryRepo := repository.NewCategoryRepository(app.MySQL)
	caseRepo := repository.NewCaseRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	participantRepo := repository.NewParticipantRepository(app.MySQL)
	feedbackRepo := repository.NewFeedbackRepository(app.MySQL)

	stateCache := cache.NewSessionStateCache(
		app.Redis,
		time.Duration(app.Config.Redis.StateTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.StateDirtyTTLSeconds)*time.Second,
	)
	feedbackPublisher := rabbitmq.NewFeedbackPublisher(app.MQConn, app.Config.RabbitMQ.FeedbackPersistQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	sessionService := appsvc.NewSessionService(
		sessionRepo,
		participantRepo,
		caseRepo,
		app.Hub,
		app.Timers,
		stateCache,
		appsvc.SessionConfig{
			CodeLength:                 app.Config.Session.CodeLength,
			DefaultReadingMinutes:      app.Config.Session.DefaultReadingMinutes,
			DefaultConsultationMinutes: app.Config.Session.DefaultConsultationMinutes,
			DefaultFeedbackMinutes:     app.Config.Session.DefaultFeedbackMinutes,
		},
	)
	caseService := appsvc.NewCaseService(caseRepo, categoryRepo)
	feedbackService := appsvc.NewFeedbackService(sessionRepo, participantRepo, feedbackRepo, feedbackPublisher)
	adminService := appsvc.NewAdminService(userRepo)

	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	caseBankHandler := handler.NewCaseBankHandler(caseService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	adminHandler := handler.NewAdminHandler(adminService)
	wsHandler := handler.NewWSHandler(app.Hub, sessionService, app.Config.CORS.AllowedOrigins)

	jwtAuth := middleware.AuthJWT(app.Config.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", jwtAuth, authHandler.Me)

	sessionGroup := v1.Group("/sessions")
	sessionGroup.Use(jwtAuth)
	sessionGroup.POST("", sessionHandler.Create)
	sessionGroup.GET("", sessionHandler.ListMine)
	sessionGroup.GET("/:code", sessionHandler.GetState)
	sessionGroup.POST("/:code/join", sessionHandler.Join)
	sessionGroup.POST("/:code/leave", sessionHandler.Leave)
	sessionGroup.POST("/:code/select-case", sessionHandler.SelectCase)
	sessionGroup.POST("/:code/start", sessionHandler.Start)
	sessionGroup.POST("/:code/skip", sessionHandler.Skip)
	sessionGroup.POST("/:code/complete-round", sessionHandler.CompleteRound)
	sessionGroup.POST("/:code/end", sessionHandler.End)
	sessionGroup.GET("/:code/ws", wsHandler.Subscribe)
	sessionGroup.POST("/:code/feedback", feedbackHandler.Submit)
	sessionGroup.GET("/:code/feedback", feedbackHandler.List)

	caseGroup := v1.Group("/cases")
	caseGroup.Use(jwtAuth)
	caseGroup.GET("", caseBankHandler.ListCases)
	caseGroup.GET("/:id", caseBankHandler.GetCase)

	categoryGroup := v1.Group("/categories")
	categoryGroup.Use(jwtAuth)
	categoryGroup.GET("", caseBankHandler.ListCategories)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(jwtAuth, middleware.RequireAdmin())
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.PUT("/users/:id", adminHandler.UpdateUserFlags)
	adminGroup.POST("/cases", caseBankHandler.CreateCase)
	adminGroup.PUT("/cases/:id", caseBankHandler.UpdateCase)
	adminGroup.DELETE("/cases/:id", caseBankHandler.DeleteCase)
	adminGroup.POST("/categories", caseBankHandler.CreateCategory)
	adminGroup.PUT("/categories/:id", caseBankHandler.UpdateCategory)
	adminGroup.DELETE("/categories/:id", caseBankHandler.DeleteCategory)

	return router
}
