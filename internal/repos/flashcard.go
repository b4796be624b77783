package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type FlashcardRepo interface {
	Create(ctx context.Context, tx *gorm.DB, card *types.Flashcard) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Flashcard, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter types.FlashcardFilter) ([]types.Flashcard, error)
	ListByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) ([]types.Flashcard, error)
	Save(ctx context.Context, tx *gorm.DB, card *types.Flashcard) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type flashcardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlashcardRepo(db *gorm.DB, log *logger.Logger) FlashcardRepo {
	return &flashcardRepo{db: db, log: log.With("repo", "flashcard")}
}

func (r *flashcardRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *flashcardRepo) Create(ctx context.Context, tx *gorm.DB, card *types.Flashcard) error {
	return r.conn(tx).WithContext(ctx).Create(card).Error
}

func (r *flashcardRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Flashcard, error) {
	var card types.Flashcard
	if err := r.conn(tx).WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *flashcardRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter types.FlashcardFilter) ([]types.Flashcard, error) {
	q := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID)
	if filter.OnlyActive {
		q = q.Where("is_active = ?", true)
	}
	if filter.ChatSessionID != nil {
		q = q.Where("chat_session_id = ?", *filter.ChatSessionID)
	}
	if filter.SourceMessageID != nil {
		q = q.Where("source_message_id = ?", *filter.SourceMessageID)
	}
	var cards []types.Flashcard
	err := q.Order("created_at DESC").Find(&cards).Error
	return cards, err
}

func (r *flashcardRepo) ListByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) ([]types.Flashcard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cards []types.Flashcard
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&cards).Error
	return cards, err
}

func (r *flashcardRepo) Save(ctx context.Context, tx *gorm.DB, card *types.Flashcard) error {
	return r.conn(tx).WithContext(ctx).Save(card).Error
}

func (r *flashcardRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Delete(&types.Flashcard{}, "id = ?", id).Error
}

func (r *flashcardRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Flashcard{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
