package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/types"
)

// Connect opens the postgres connection and runs migrations. Foreign keys are
// added with explicit DDL after automigrate so the cascade rules stay visible
// in one place.
func Connect(dsn string, log *logger.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	if err := applyConstraints(gdb); err != nil {
		return nil, err
	}
	log.Info("database ready")
	return gdb, nil
}

// Migrate creates/updates the schema for all domain models.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.ChatSession{},
		&types.Message{},
		&types.Flashcard{},
		&types.Quiz{},
		&types.QuizQuestion{},
		&types.KnowledgeSource{},
		&types.KnowledgeSourceAudit{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

type constraint struct {
	table string
	name  string
	ddl   string
}

func applyConstraints(gdb *gorm.DB) error {
	constraints := []constraint{
		{"chat_sessions", "fk_chat_sessions_user",
			"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"messages", "fk_messages_chat_session",
			"FOREIGN KEY (chat_session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE"},
		{"flashcards", "fk_flashcards_user",
			"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"flashcards", "fk_flashcards_chat_session",
			"FOREIGN KEY (chat_session_id) REFERENCES chat_sessions(id) ON DELETE SET NULL"},
		{"flashcards", "fk_flashcards_source_message",
			"FOREIGN KEY (source_message_id) REFERENCES messages(id) ON DELETE SET NULL"},
		{"quizzes", "fk_quizzes_user",
			"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"quizzes", "fk_quizzes_source_chat_session",
			"FOREIGN KEY (source_chat_session_id) REFERENCES chat_sessions(id) ON DELETE SET NULL"},
		{"quiz_questions", "fk_quiz_questions_quiz",
			"FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE"},
		{"quiz_questions", "fk_quiz_questions_flashcard",
			"FOREIGN KEY (flashcard_id) REFERENCES flashcards(id) ON DELETE CASCADE"},
		{"knowledge_source_audits", "fk_ks_audits_actor",
			"FOREIGN KEY (actor_id) REFERENCES users(id) ON DELETE CASCADE"},
		{"knowledge_source_audits", "fk_ks_audits_source",
			"FOREIGN KEY (source_id) REFERENCES knowledge_sources(id) ON DELETE SET NULL"},
	}
	for _, c := range constraints {
		stmt := fmt.Sprintf(
			"DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN ALTER TABLE %s ADD CONSTRAINT %s %s; END IF; END $$;",
			c.name, c.table, c.name, c.ddl,
		)
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("constraint %s: %w", c.name, err)
		}
	}
	return nil
}
