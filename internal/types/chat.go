package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type ChatSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ChatSessionID  uuid.UUID      `gorm:"type:uuid;index;not null" json:"chat_session_id"`
	Role           string         `gorm:"not null" json:"role"`
	Content        string         `gorm:"not null" json:"content"`
	Model          string         `json:"model,omitempty"`
	EvidenceSource datatypes.JSON `gorm:"column:evidence_source" json:"evidence_source,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// Evidence is the retrieval audit attached to an assistant message.
type Evidence struct {
	VectorStoreID string           `json:"vector_store_id"`
	Query         string           `json:"query"`
	SearchQuery   string           `json:"search_query"`
	Sources       []EvidenceSource `json:"sources"`
	SourceFilter  SourceFilter     `json:"source_filter"`
}

type EvidenceSource struct {
	FileID        string  `json:"file_id"`
	Filename      string  `json:"filename"`
	Score         float64 `json:"score"`
	Snippet       string  `json:"snippet"`
	VerifiedMatch bool    `json:"verified_match,omitempty"`
}

type SourceFilter struct {
	RegistryEnforced      bool `json:"registry_enforced"`
	StrictVerifiedOnly    bool `json:"strict_verified_only"`
	FilteredOutDisabled   int  `json:"filtered_out_disabled"`
	FilteredOutUnverified int  `json:"filtered_out_unverified"`
}

type CreateChatSessionRequest struct {
	Title string `json:"title"`
}

type RenameChatSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type SendMessageResponse struct {
	UserMessage      Message     `json:"user_message"`
	AssistantMessage Message     `json:"assistant_message"`
	Flashcards       []Flashcard `json:"flashcards"`
}
