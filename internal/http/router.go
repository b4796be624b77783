package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/studybridge-backend/internal/http/handlers"
	"github.com/yungbote/studybridge-backend/internal/http/middleware"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/services"
)

type RouterConfig struct {
	Mode           string
	AllowedOrigins string
	TracingEnabled bool

	Auth services.AuthService
	Log  *logger.Logger

	Health          *handlers.HealthHandler
	Users           *handlers.UserHandler
	Chat            *handlers.ChatHandler
	Flashcards      *handlers.FlashcardHandler
	Quizzes         *handlers.QuizHandler
	Stats           *handlers.StatsHandler
	KnowledgeSource *handlers.KnowledgeSourceHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "prod" || cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("studybridge-backend"))
	}
	r.Use(middleware.RequestLog(cfg.Log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.Health != nil {
		r.GET("/healthcheck", cfg.Health.Check)
	}

	api := r.Group("/api")
	if cfg.Users != nil {
		api.POST("/users", cfg.Users.Register)
		api.POST("/users/login", cfg.Users.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg.Auth))

	userScoped := protected.Group("/users/:user_id")
	userScoped.Use(middleware.RequirePathUser())
	if cfg.Chat != nil {
		userScoped.POST("/chat-sessions", cfg.Chat.CreateSession)
		userScoped.GET("/chat-sessions", cfg.Chat.ListSessions)
		userScoped.PATCH("/chat-sessions/:chat_id", cfg.Chat.RenameSession)
		userScoped.DELETE("/chat-sessions/:chat_id", cfg.Chat.DeleteSession)
		userScoped.GET("/chat-sessions/:chat_id/messages", cfg.Chat.ListMessages)
		userScoped.POST("/chat-sessions/:chat_id/messages", cfg.Chat.SendMessage)
	}
	if cfg.Flashcards != nil {
		userScoped.POST("/flashcards", cfg.Flashcards.Create)
		userScoped.GET("/flashcards", cfg.Flashcards.List)
		userScoped.PATCH("/flashcards/:flashcard_id", cfg.Flashcards.Update)
		userScoped.DELETE("/flashcards/:flashcard_id", cfg.Flashcards.Delete)
	}
	if cfg.Quizzes != nil {
		userScoped.POST("/quizzes", cfg.Quizzes.Create)
		userScoped.POST("/quizzes/auto-mcq", cfg.Quizzes.CreateAutoMCQ)
		userScoped.GET("/quizzes", cfg.Quizzes.List)
		protected.GET("/quizzes/:quiz_id", cfg.Quizzes.Get)
		protected.POST("/quizzes/:quiz_id/questions/:question_id/answer", cfg.Quizzes.AnswerQuestion)
	}
	if cfg.Stats != nil {
		userScoped.GET("/stats/overview", cfg.Stats.Overview)
		userScoped.GET("/stats/progress", cfg.Stats.Progress)
		userScoped.GET("/stats/flashcards", cfg.Stats.FlashcardStats)
		protected.GET("/questions/:question_id/explanation", cfg.Stats.ExplainQuestion)
	}

	if cfg.KnowledgeSource != nil {
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		admin.GET("/knowledge-sources", cfg.KnowledgeSource.List)
		admin.POST("/knowledge-sources", cfg.KnowledgeSource.Create)
		admin.PATCH("/knowledge-sources/:source_id", cfg.KnowledgeSource.Update)
		admin.DELETE("/knowledge-sources/:source_id", cfg.KnowledgeSource.Delete)
		admin.POST("/knowledge-sources/reindex", cfg.KnowledgeSource.Reindex)
		admin.GET("/knowledge-sources/runtime", cfg.KnowledgeSource.Runtime)
	}

	return r
}
