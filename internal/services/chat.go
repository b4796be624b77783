package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

const (
	defaultSessionTitle  = "New Chat"
	maxTitleLen          = 80
	maxTitleSnippetLen   = 280
	maxTitleUserMessages = 3
	maxSessionTitleInput = 255
)

type ChatConfig struct {
	VectorStoreID string
	DefaultModel  string
}

type ChatService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, req types.CreateChatSessionRequest) (*types.ChatSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]types.ChatSession, error)
	RenameSession(ctx context.Context, userID, sessionID uuid.UUID, title string) (*types.ChatSession, error)
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error
	ListMessages(ctx context.Context, userID, sessionID uuid.UUID) ([]types.Message, error)
	SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*types.SendMessageResponse, error)
}

type chatService struct {
	db         *gorm.DB
	chats      repos.ChatRepo
	flashcards repos.FlashcardRepo
	knowledge  KnowledgeSourceService
	evidence   EvidenceService
	generation GenerationService
	cfg        ChatConfig
	log        *logger.Logger
}

func NewChatService(
	db *gorm.DB,
	chats repos.ChatRepo,
	flashcards repos.FlashcardRepo,
	knowledge KnowledgeSourceService,
	evidence EvidenceService,
	generation GenerationService,
	cfg ChatConfig,
	log *logger.Logger,
) ChatService {
	return &chatService{
		db:         db,
		chats:      chats,
		flashcards: flashcards,
		knowledge:  knowledge,
		evidence:   evidence,
		generation: generation,
		cfg:        cfg,
		log:        log.With("service", "chat"),
	}
}

func (s *chatService) CreateSession(ctx context.Context, userID uuid.UUID, req types.CreateChatSessionRequest) (*types.ChatSession, error) {
	title := sanitizeTitle(req.Title)
	if title == "" {
		title = defaultSessionTitle
	}
	session := &types.ChatSession{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Model:  s.cfg.DefaultModel,
	}
	if err := s.chats.CreateSession(ctx, nil, session); err != nil {
		return nil, apierr.Internal(err)
	}
	return session, nil
}

func (s *chatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]types.ChatSession, error) {
	sessions, err := s.chats.ListSessionsByUser(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return sessions, nil
}

func (s *chatService) RenameSession(ctx context.Context, userID, sessionID uuid.UUID, title string) (*types.ChatSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	title = sanitizeTitle(title)
	if title == "" {
		return nil, apierr.Validation("title cannot be empty")
	}
	if len(title) > maxSessionTitleInput {
		title = title[:maxSessionTitleInput]
	}
	if err := s.chats.UpdateSessionTitle(ctx, nil, session.ID, title); err != nil {
		return nil, apierr.Internal(err)
	}
	session.Title = title
	return session, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := s.chats.DeleteSession(ctx, nil, session.ID); err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, sessionID uuid.UUID) ([]types.Message, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chats.ListMessagesBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID, sessionID uuid.UUID, content string) (*types.SendMessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierr.Validation("message content is required")
	}
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	// The user's message is saved before generation: a provider failure must
	// not lose their input.
	userMessage := &types.Message{
		ID:            uuid.New(),
		ChatSessionID: session.ID,
		Role:          types.MessageRoleUser,
		Content:       content,
	}
	if err := s.chats.CreateMessage(ctx, nil, userMessage); err != nil {
		return nil, apierr.Internal(err)
	}

	systemPrompt, evidenceRecord, err := s.buildSystemPrompt(ctx, content)
	if err != nil {
		return nil, err
	}

	history, err := s.chats.ListMessagesBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	turn := make([]openai.Message, 0, len(history)+1)
	turn = append(turn, openai.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		turn = append(turn, openai.Message{Role: m.Role, Content: m.Content})
	}

	result, err := s.generation.ChatTurn(ctx, turn)
	if err != nil {
		return nil, err
	}

	assistantMessage := &types.Message{
		ID:            uuid.New(),
		ChatSessionID: session.ID,
		Role:          types.MessageRoleAssistant,
		Content:       result.AssistantText,
		Model:         s.cfg.DefaultModel,
	}
	if evidenceRecord != nil {
		raw, merr := json.Marshal(evidenceRecord)
		if merr != nil {
			return nil, apierr.Internal(merr)
		}
		assistantMessage.EvidenceSource = datatypes.JSON(raw)
	}

	saved := make([]types.Flashcard, 0, len(result.Flashcards))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chats.CreateMessage(ctx, tx, assistantMessage); err != nil {
			return err
		}
		for _, proposal := range result.Flashcards {
			card := types.Flashcard{
				ID:              uuid.New(),
				UserID:          userID,
				ChatSessionID:   &session.ID,
				SourceMessageID: &assistantMessage.ID,
				Question:        proposal.Question,
				Answer:          proposal.Answer,
				IsActive:        true,
			}
			if err := s.flashcards.Create(ctx, tx, &card); err != nil {
				return err
			}
			saved = append(saved, card)
		}
		return nil
	})
	if err != nil {
		return nil, apierr.Internal(err)
	}

	s.maybeAutoTitle(ctx, session, history, result.AssistantText)

	return &types.SendMessageResponse{
		UserMessage:      *userMessage,
		AssistantMessage: *assistantMessage,
		Flashcards:       saved,
	}, nil
}

// buildSystemPrompt resolves the retrieval state into the system prompt for
// this turn plus the evidence record to persist (nil when retrieval is not
// configured).
func (s *chatService) buildSystemPrompt(ctx context.Context, query string) (string, *types.Evidence, error) {
	if s.cfg.VectorStoreID == "" {
		return chatSystemPromptNotConfigured, nil, nil
	}
	policy, err := s.knowledge.BuildFilterPolicy(ctx)
	if err != nil {
		return "", nil, err
	}
	bundle, err := s.evidence.Assemble(ctx, query, policy)
	if err != nil {
		return "", nil, err
	}
	if bundle.ContextText == "" {
		return chatSystemPromptNoContext, &bundle.Evidence, nil
	}
	return fmt.Sprintf(chatSystemPromptWithContext, bundle.ContextText), &bundle.Evidence, nil
}

var defaultTitles = map[string]struct{}{
	"":                 {},
	"new chat":         {},
	"new conversation": {},
	"chat":             {},
	"untitled":         {},
}

func isDefaultTitle(title string) bool {
	_, ok := defaultTitles[strings.ToLower(strings.TrimSpace(title))]
	return ok
}

// maybeAutoTitle derives a session title from the opening exchange. Failures
// are logged and swallowed: the turn already succeeded.
func (s *chatService) maybeAutoTitle(ctx context.Context, session *types.ChatSession, history []types.Message, assistantText string) {
	if !isDefaultTitle(session.Title) {
		return
	}
	var userLines []string
	for _, m := range history {
		if m.Role != types.MessageRoleUser {
			continue
		}
		if text := strings.TrimSpace(m.Content); text != "" {
			userLines = append(userLines, text)
		}
		if len(userLines) == maxTitleUserMessages {
			break
		}
	}
	if len(userLines) == 0 {
		return
	}
	snippet := strings.TrimSpace(assistantText)
	if clipped, ok := truncateRunes(snippet, maxTitleSnippetLen-3); ok {
		snippet = clipped + "..."
	}
	prompt := "Student messages:\n- " + strings.Join(userLines, "\n- ") +
		"\n\nAssistant reply:\n" + snippet
	raw, err := s.generation.GenerateTitle(ctx, prompt)
	if err != nil {
		s.log.Warn("auto-title generation failed", "session_id", session.ID.String(), "error", err)
		return
	}
	title := sanitizeTitle(raw)
	if title == "" || isDefaultTitle(title) {
		return
	}
	if err := s.chats.UpdateSessionTitle(ctx, nil, session.ID, title); err != nil {
		s.log.Warn("auto-title update failed", "session_id", session.ID.String(), "error", err)
		return
	}
	session.Title = title
}

// sanitizeTitle strips wrapping quotes, collapses whitespace, trims trailing
// punctuation and caps the result at maxTitleLen.
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, "\"'`“”‘’")
	title = strings.Join(strings.Fields(title), " ")
	title = strings.TrimRight(title, " .:;!,-")
	if clipped, ok := truncateRunes(title, maxTitleLen-3); ok {
		title = clipped + "..."
	}
	return title
}

func (s *chatService) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.ChatSession, error) {
	session, err := s.chats.GetSession(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("chat session %s not found", sessionID)
		}
		return nil, apierr.Internal(err)
	}
	if session.UserID != userID {
		return nil, apierr.Ownership("chat session does not belong to caller")
	}
	return session, nil
}
