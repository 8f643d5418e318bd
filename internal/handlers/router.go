package handlers

import (
	"github.com/SAP-F-2025/lesson-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-service/internal/services"
	"github.com/SAP-F-2025/lesson-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	challengeHandler *ChallengeHandler
	sessionHandler   *SessionHandler
	auth             gin.HandlerFunc
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	tokenParser TokenParser,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		challengeHandler: NewChallengeHandler(serviceManager.Challenge(), logger),
		sessionHandler:   NewSessionHandler(serviceManager.LessonSession(), logger),
		auth:             AuthMiddleware(tokenParser),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	v1.Use(hm.auth)
	{
		// Challenge catalogue
		challenges := v1.Group("/challenges")
		{
			challenges.GET("", hm.challengeHandler.ListChallenges)
			challenges.GET("/slug/*slug", hm.challengeHandler.GetChallengeBySlug)
			challenges.GET("/:id", hm.challengeHandler.GetChallenge)

			authoring := challenges.Group("", RequireAuthor())
			authoring.POST("", hm.challengeHandler.CreateChallenge)
			authoring.POST("/import", hm.challengeHandler.ImportChallenges)
			authoring.PUT("/:id", hm.challengeHandler.UpdateChallenge)
			authoring.DELETE("/:id", hm.challengeHandler.DeleteChallenge)
		}

		// Lesson page sessions
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.MountLesson)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.UnmountLesson)
			sessions.PUT("/:id/identity", hm.sessionHandler.SyncIdentity)
			sessions.POST("/:id/options", hm.sessionHandler.SelectOption)
			sessions.POST("/:id/assignments", hm.sessionHandler.ToggleAssignment)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitAnswers)
		}
	}
}
