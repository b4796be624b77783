package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/repos"
)

type Repos struct {
	Users           repos.UserRepo
	Chats           repos.ChatRepo
	Flashcards      repos.FlashcardRepo
	Quizzes         repos.QuizRepo
	KnowledgeSource repos.KnowledgeSourceRepo
}

func NewRepos(db *gorm.DB, log *logger.Logger) *Repos {
	return &Repos{
		Users:           repos.NewUserRepo(db, log),
		Chats:           repos.NewChatRepo(db, log),
		Flashcards:      repos.NewFlashcardRepo(db, log),
		Quizzes:         repos.NewQuizRepo(db, log),
		KnowledgeSource: repos.NewKnowledgeSourceRepo(db, log),
	}
}
