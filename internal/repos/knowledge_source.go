package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/types"
)

type KnowledgeSourceRepo interface {
	List(ctx context.Context, tx *gorm.DB) ([]types.KnowledgeSource, error)
	ListByType(ctx context.Context, tx *gorm.DB, sourceType string) ([]types.KnowledgeSource, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeSource, error)
	Create(ctx context.Context, tx *gorm.DB, source *types.KnowledgeSource) error
	Save(ctx context.Context, tx *gorm.DB, source *types.KnowledgeSource) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CreateAudit(ctx context.Context, tx *gorm.DB, audit *types.KnowledgeSourceAudit) error
}

type knowledgeSourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeSourceRepo(db *gorm.DB, log *logger.Logger) KnowledgeSourceRepo {
	return &knowledgeSourceRepo{db: db, log: log.With("repo", "knowledge_source")}
}

func (r *knowledgeSourceRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *knowledgeSourceRepo) List(ctx context.Context, tx *gorm.DB) ([]types.KnowledgeSource, error) {
	var sources []types.KnowledgeSource
	err := r.conn(tx).WithContext(ctx).Order("updated_at DESC").Find(&sources).Error
	return sources, err
}

func (r *knowledgeSourceRepo) ListByType(ctx context.Context, tx *gorm.DB, sourceType string) ([]types.KnowledgeSource, error) {
	var sources []types.KnowledgeSource
	err := r.conn(tx).WithContext(ctx).
		Where("source_type = ?", sourceType).
		Order("updated_at DESC").
		Find(&sources).Error
	return sources, err
}

func (r *knowledgeSourceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeSource, error) {
	var source types.KnowledgeSource
	if err := r.conn(tx).WithContext(ctx).First(&source, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *knowledgeSourceRepo) Create(ctx context.Context, tx *gorm.DB, source *types.KnowledgeSource) error {
	return r.conn(tx).WithContext(ctx).Create(source).Error
}

func (r *knowledgeSourceRepo) Save(ctx context.Context, tx *gorm.DB, source *types.KnowledgeSource) error {
	return r.conn(tx).WithContext(ctx).Save(source).Error
}

func (r *knowledgeSourceRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Delete(&types.KnowledgeSource{}, "id = ?", id).Error
}

func (r *knowledgeSourceRepo) CreateAudit(ctx context.Context, tx *gorm.DB, audit *types.KnowledgeSourceAudit) error {
	return r.conn(tx).WithContext(ctx).Create(audit).Error
}
