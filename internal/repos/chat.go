package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type ChatRepo interface {
	CreateSession(ctx context.Context, tx *gorm.DB, session *types.ChatSession) error
	GetSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatSession, error)
	ListSessionsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.ChatSession, error)
	UpdateSessionTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error
	DeleteSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CreateMessage(ctx context.Context, tx *gorm.DB, message *types.Message) error
	GetMessage(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Message, error)
	ListMessagesBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.Message, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, log *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: log.With("repo", "chat")}
}

func (r *chatRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *chatRepo) CreateSession(ctx context.Context, tx *gorm.DB, session *types.ChatSession) error {
	return r.conn(tx).WithContext(ctx).Create(session).Error
}

func (r *chatRepo) GetSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ChatSession, error) {
	var session types.ChatSession
	if err := r.conn(tx).WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *chatRepo) ListSessionsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]types.ChatSession, error) {
	var sessions []types.ChatSession
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *chatRepo) UpdateSessionTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", id).
		Update("title", title).Error
}

func (r *chatRepo) DeleteSession(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	conn := r.conn(tx).WithContext(ctx)
	if err := conn.Where("chat_session_id = ?", id).Delete(&types.Message{}).Error; err != nil {
		return err
	}
	return conn.Delete(&types.ChatSession{}, "id = ?", id).Error
}

func (r *chatRepo) CreateMessage(ctx context.Context, tx *gorm.DB, message *types.Message) error {
	return r.conn(tx).WithContext(ctx).Create(message).Error
}

func (r *chatRepo) GetMessage(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Message, error) {
	var message types.Message
	if err := r.conn(tx).WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *chatRepo) ListMessagesBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.Message, error) {
	var messages []types.Message
	err := r.conn(tx).WithContext(ctx).
		Where("chat_session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}
