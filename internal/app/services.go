package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/services"
)

type Services struct {
	Auth            services.AuthService
	Users           services.UserService
	Chat            services.ChatService
	Flashcards      services.FlashcardService
	Quizzes         services.QuizService
	Stats           services.StatsService
	KnowledgeSource services.KnowledgeSourceService
	Generation      services.GenerationService
	Evidence        services.EvidenceService
}

func NewServices(cfg *Config, db *gorm.DB, clients *Clients, r *Repos, log *logger.Logger) *Services {
	auth := services.NewAuthService(cfg.JWTSecret, cfg.JWTTTL, log)
	generation := services.NewGenerationService(clients.OpenAI, log)

	var cache services.PolicyCache
	if clients.Redis != nil {
		cache = services.NewRedisPolicyCache(clients.Redis, cfg.PolicyCacheTTL, cfg.StrictVerifiedOnly, log)
	}
	knowledge := services.NewKnowledgeSourceService(r.KnowledgeSource, clients.OpenAI, cache,
		services.KnowledgeSourceConfig{
			VectorStoreID:      cfg.VectorStoreID,
			StrictVerifiedOnly: cfg.StrictVerifiedOnly,
		}, log)
	evidence := services.NewEvidenceService(clients.OpenAI, cfg.VectorStoreID, log)
	chat := services.NewChatService(db, r.Chats, r.Flashcards, knowledge, evidence, generation,
		services.ChatConfig{
			VectorStoreID: cfg.VectorStoreID,
			DefaultModel:  cfg.DefaultModel,
		}, log)

	return &Services{
		Auth:            auth,
		Users:           services.NewUserService(r.Users, auth, log),
		Chat:            chat,
		Flashcards:      services.NewFlashcardService(r.Flashcards, log),
		Quizzes:         services.NewQuizService(db, r.Quizzes, r.Flashcards, generation, log),
		Stats:           services.NewStatsService(r.Quizzes, r.Flashcards, generation, log),
		KnowledgeSource: knowledge,
		Generation:      generation,
		Evidence:        evidence,
	}
}
