package types

import (
	"time"

	"github.com/google/uuid"
)

type Flashcard struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	ChatSessionID   *uuid.UUID `gorm:"type:uuid;index" json:"chat_session_id,omitempty"`
	SourceMessageID *uuid.UUID `gorm:"type:uuid;index" json:"source_message_id,omitempty"`
	Question        string     `gorm:"not null" json:"question"`
	Answer          string     `gorm:"not null" json:"answer"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Flashcard) TableName() string { return "flashcards" }

type CreateFlashcardRequest struct {
	Question        string     `json:"question" binding:"required"`
	Answer          string     `json:"answer" binding:"required"`
	ChatSessionID   *uuid.UUID `json:"chat_session_id,omitempty"`
	SourceMessageID *uuid.UUID `json:"source_message_id,omitempty"`
}

type UpdateFlashcardRequest struct {
	Question *string `json:"question,omitempty"`
	Answer   *string `json:"answer,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type FlashcardFilter struct {
	OnlyActive      bool
	ChatSessionID   *uuid.UUID
	SourceMessageID *uuid.UUID
}
