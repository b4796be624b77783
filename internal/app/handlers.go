package app

import (
	"github.com/yungbote/studybridge-backend/internal/http/handlers"
)

type Handlers struct {
	Health          *handlers.HealthHandler
	Users           *handlers.UserHandler
	Chat            *handlers.ChatHandler
	Flashcards      *handlers.FlashcardHandler
	Quizzes         *handlers.QuizHandler
	Stats           *handlers.StatsHandler
	KnowledgeSource *handlers.KnowledgeSourceHandler
}

func NewHandlers(s *Services) *Handlers {
	return &Handlers{
		Health:          handlers.NewHealthHandler(),
		Users:           handlers.NewUserHandler(s.Users),
		Chat:            handlers.NewChatHandler(s.Chat),
		Flashcards:      handlers.NewFlashcardHandler(s.Flashcards),
		Quizzes:         handlers.NewQuizHandler(s.Quizzes),
		Stats:           handlers.NewStatsHandler(s.Stats),
		KnowledgeSource: handlers.NewKnowledgeSourceHandler(s.KnowledgeSource),
	}
}
