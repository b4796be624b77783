package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/studybridge-backend/internal/platform/apierr"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
	"github.com/yungbote/studybridge-backend/internal/repos"
	"github.com/yungbote/studybridge-backend/internal/types"
)

// KnowledgeSourceConfig is the retrieval wiring the registry operates against.
type KnowledgeSourceConfig struct {
	VectorStoreID      string
	StrictVerifiedOnly bool
}

type KnowledgeSourceService interface {
	List(ctx context.Context, sync bool) ([]types.KnowledgeSource, error)
	Create(ctx context.Context, actorID uuid.UUID, req types.CreateKnowledgeSourceRequest) (*types.KnowledgeSource, error)
	Update(ctx context.Context, actorID, sourceID uuid.UUID, req types.UpdateKnowledgeSourceRequest) (*types.KnowledgeSource, error)
	Delete(ctx context.Context, actorID, sourceID uuid.UUID) error
	Reindex(ctx context.Context, actorID uuid.UUID) (*types.ReindexResult, error)
	BuildFilterPolicy(ctx context.Context) (FilterPolicy, error)
	RuntimeConfig() types.RuntimeConfig
}

type knowledgeSourceService struct {
	sources repos.KnowledgeSourceRepo
	ai      openai.Client
	cache   PolicyCache
	cfg     KnowledgeSourceConfig
	log     *logger.Logger
}

func NewKnowledgeSourceService(
	sources repos.KnowledgeSourceRepo,
	ai openai.Client,
	cache PolicyCache,
	cfg KnowledgeSourceConfig,
	log *logger.Logger,
) KnowledgeSourceService {
	return &knowledgeSourceService{
		sources: sources,
		ai:      ai,
		cache:   cache,
		cfg:     cfg,
		log:     log.With("service", "knowledge_source"),
	}
}

func (s *knowledgeSourceService) List(ctx context.Context, sync bool) ([]types.KnowledgeSource, error) {
	if sync {
		if _, err := s.syncVectorStore(ctx); err != nil {
			return nil, err
		}
	}
	sources, err := s.sources.List(ctx, nil)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return sources, nil
}

func (s *knowledgeSourceService) Create(ctx context.Context, actorID uuid.UUID, req types.CreateKnowledgeSourceRequest) (*types.KnowledgeSource, error) {
	title := strings.TrimSpace(req.Title)
	sourceType := strings.TrimSpace(req.SourceType)
	sourceRef := strings.TrimSpace(req.SourceRef)
	if title == "" || sourceType == "" || sourceRef == "" {
		return nil, apierr.Validation("title, source_type and source_ref are required")
	}
	source := &types.KnowledgeSource{
		ID:         uuid.New(),
		Title:      title,
		SourceType: sourceType,
		SourceRef:  sourceRef,
		Enabled:    true,
		Verified:   false,
	}
	if req.Enabled != nil {
		source.Enabled = *req.Enabled
	}
	if req.Verified != nil {
		source.Verified = *req.Verified
	}
	if err := s.sources.Create(ctx, nil, source); err != nil {
		if isUniqueViolation(err) {
			return nil, apierr.Conflict("source %q already registered", sourceRef)
		}
		return nil, apierr.Internal(err)
	}
	s.audit(ctx, actorID, &source.ID, types.AuditActionAdd, "registered "+sourceRef)
	s.invalidatePolicy(ctx)
	return source, nil
}

func (s *knowledgeSourceService) Update(ctx context.Context, actorID, sourceID uuid.UUID, req types.UpdateKnowledgeSourceRequest) (*types.KnowledgeSource, error) {
	if req.Title == nil && req.SourceType == nil && req.SourceRef == nil && req.Enabled == nil && req.Verified == nil {
		return nil, apierr.Validation("no fields to update")
	}
	source, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("knowledge source %s not found", sourceID)
		}
		return nil, apierr.Internal(err)
	}
	var actions []string
	if req.Enabled != nil && *req.Enabled != source.Enabled {
		source.Enabled = *req.Enabled
		if source.Enabled {
			actions = append(actions, types.AuditActionEnable)
		} else {
			actions = append(actions, types.AuditActionDisable)
		}
	}
	if req.Verified != nil && *req.Verified != source.Verified {
		source.Verified = *req.Verified
		if source.Verified {
			actions = append(actions, types.AuditActionVerify)
		} else {
			actions = append(actions, types.AuditActionUnverify)
		}
	}
	textChanged := false
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apierr.Validation("title cannot be empty")
		}
		if title != source.Title {
			source.Title = title
			textChanged = true
		}
	}
	if req.SourceType != nil {
		sourceType := strings.TrimSpace(*req.SourceType)
		if sourceType == "" {
			return nil, apierr.Validation("source_type cannot be empty")
		}
		if sourceType != source.SourceType {
			source.SourceType = sourceType
			textChanged = true
		}
	}
	if req.SourceRef != nil {
		sourceRef := strings.TrimSpace(*req.SourceRef)
		if sourceRef == "" {
			return nil, apierr.Validation("source_ref cannot be empty")
		}
		if sourceRef != source.SourceRef {
			source.SourceRef = sourceRef
			textChanged = true
		}
	}
	if textChanged {
		actions = append(actions, types.AuditActionUpdate)
	}
	if err := s.sources.Save(ctx, nil, source); err != nil {
		if isUniqueViolation(err) {
			return nil, apierr.Conflict("source %q already registered", source.SourceRef)
		}
		return nil, apierr.Internal(err)
	}
	if len(actions) == 0 {
		actions = append(actions, types.AuditActionUpdate)
	}
	for _, action := range actions {
		s.audit(ctx, actorID, &source.ID, action, source.SourceRef)
	}
	s.invalidatePolicy(ctx)
	return source, nil
}

func (s *knowledgeSourceService) Delete(ctx context.Context, actorID, sourceID uuid.UUID) error {
	source, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("knowledge source %s not found", sourceID)
		}
		return apierr.Internal(err)
	}
	// The audit row is written first so the SET NULL on its source FK records
	// that the target existed at removal time.
	s.audit(ctx, actorID, &source.ID, types.AuditActionRemove, source.SourceRef)
	if err := s.sources.Delete(ctx, nil, source.ID); err != nil {
		return apierr.Internal(err)
	}
	s.invalidatePolicy(ctx)
	return nil
}

func (s *knowledgeSourceService) Reindex(ctx context.Context, actorID uuid.UUID) (*types.ReindexResult, error) {
	result, err := s.syncVectorStore(ctx)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actorID, nil, types.AuditActionReindex, result.Summary)
	s.invalidatePolicy(ctx)
	return result, nil
}

// syncVectorStore reconciles the registry mirror against the vector store:
// processed account files get attached, unknown attached files get rows,
// drifted titles get updated, and rows for detached files are removed. Admin
// enabled/verified decisions survive every pass.
func (s *knowledgeSourceService) syncVectorStore(ctx context.Context) (*types.ReindexResult, error) {
	if s.cfg.VectorStoreID == "" {
		return nil, apierr.Validation("vector store is not configured")
	}

	var (
		storeFiles   []openai.VectorStoreFile
		accountFiles []openai.AccountFile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		files, err := s.ai.ListVectorStoreFiles(gctx, s.cfg.VectorStoreID)
		if err != nil {
			return err
		}
		storeFiles = files
		return nil
	})
	g.Go(func() error {
		files, err := s.ai.ListAccountFiles(gctx, "user_data")
		if err != nil {
			return err
		}
		accountFiles = files
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Dependency("vector store listing failed: %v", err)
	}

	attached := make(map[string]struct{}, len(storeFiles))
	for _, f := range storeFiles {
		attached[f.ID] = struct{}{}
	}
	filenames := make(map[string]string, len(accountFiles))
	var missing []string
	for _, f := range accountFiles {
		if f.Status != "" && f.Status != "processed" {
			continue
		}
		filenames[f.ID] = f.Filename
		if _, ok := attached[f.ID]; !ok {
			missing = append(missing, f.ID)
		}
	}

	attachedCount := 0
	if len(missing) > 0 {
		if err := s.ai.AttachVectorStoreFiles(ctx, s.cfg.VectorStoreID, missing); err != nil {
			return nil, apierr.Dependency("attaching files failed: %v", err)
		}
		attachedCount = len(missing)
		files, err := s.ai.ListVectorStoreFiles(ctx, s.cfg.VectorStoreID)
		if err != nil {
			return nil, apierr.Dependency("vector store re-listing failed: %v", err)
		}
		storeFiles = files
		attached = make(map[string]struct{}, len(storeFiles))
		for _, f := range storeFiles {
			attached[f.ID] = struct{}{}
		}
	}

	rows, err := s.sources.ListByType(ctx, nil, types.SourceTypeVectorStoreFile)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	byRef := make(map[string]*types.KnowledgeSource, len(rows))
	for i := range rows {
		byRef[NormalizeRef(rows[i].SourceRef)] = &rows[i]
	}

	created, updated := 0, 0
	for _, f := range storeFiles {
		ref := NormalizeRef(f.ID)
		title := filenames[f.ID]
		if title == "" {
			// Attached files outside the user_data listing still have a real
			// filename; fall back to the raw id only when the lookup fails.
			if file, ferr := s.ai.RetrieveFile(ctx, f.ID); ferr == nil && file.Filename != "" {
				title = file.Filename
			} else {
				if ferr != nil {
					s.log.Warn("file lookup failed", "file_id", f.ID, "error", ferr)
				}
				title = f.ID
			}
		}
		row, ok := byRef[ref]
		if !ok {
			source := &types.KnowledgeSource{
				ID:         uuid.New(),
				Title:      title,
				SourceType: types.SourceTypeVectorStoreFile,
				SourceRef:  f.ID,
				Enabled:    true,
				Verified:   false,
			}
			if err := s.sources.Create(ctx, nil, source); err != nil {
				// A concurrent reindex may have created the row between our
				// read and this write; the unique (ref, type) index makes
				// that a tolerable no-op.
				if !isUniqueViolation(err) {
					return nil, apierr.Internal(err)
				}
				continue
			}
			created++
			continue
		}
		if row.Title != title {
			row.Title = title
			if err := s.sources.Save(ctx, nil, row); err != nil {
				return nil, apierr.Internal(err)
			}
			updated++
		}
	}

	attachedRefs := make(map[string]struct{}, len(attached))
	for id := range attached {
		attachedRefs[NormalizeRef(id)] = struct{}{}
	}
	removed := 0
	for _, row := range rows {
		if _, ok := attachedRefs[NormalizeRef(row.SourceRef)]; ok {
			continue
		}
		if err := s.sources.Delete(ctx, nil, row.ID); err != nil {
			return nil, apierr.Internal(err)
		}
		removed++
	}

	result := &types.ReindexResult{
		Attached: attachedCount,
		Created:  created,
		Updated:  updated,
		Removed:  removed,
		Total:    len(storeFiles),
	}
	result.Summary = fmt.Sprintf(
		"attached %d, created %d, updated %d, removed %d; %d files tracked",
		result.Attached, result.Created, result.Updated, result.Removed, result.Total,
	)
	s.log.Info("registry sync complete", "summary", result.Summary)
	return result, nil
}

func (s *knowledgeSourceService) BuildFilterPolicy(ctx context.Context) (FilterPolicy, error) {
	if s.cache != nil {
		if policy, ok := s.cache.Get(ctx); ok {
			return policy, nil
		}
	}
	rows, err := s.sources.List(ctx, nil)
	if err != nil {
		return FilterPolicy{}, apierr.Internal(err)
	}
	governing := rows
	var storeRows []types.KnowledgeSource
	for _, row := range rows {
		if row.SourceType == types.SourceTypeVectorStoreFile {
			storeRows = append(storeRows, row)
		}
	}
	if len(storeRows) > 0 {
		governing = storeRows
	}
	policy := FilterPolicy{
		EnabledRefs:        make(map[string]struct{}),
		VerifiedRefs:       make(map[string]struct{}),
		HasRegistryRows:    len(governing) > 0,
		StrictVerifiedOnly: s.cfg.StrictVerifiedOnly,
	}
	for _, row := range governing {
		ref := NormalizeRef(row.SourceRef)
		if !row.Enabled {
			continue
		}
		policy.EnabledRefs[ref] = struct{}{}
		if row.Verified {
			policy.VerifiedRefs[ref] = struct{}{}
		}
	}
	if s.cache != nil {
		s.cache.Set(ctx, policy)
	}
	return policy, nil
}

func (s *knowledgeSourceService) RuntimeConfig() types.RuntimeConfig {
	return types.RuntimeConfig{
		VectorStoreIDMasked: maskIdentifier(s.cfg.VectorStoreID),
		VectorStoreSet:      s.cfg.VectorStoreID != "",
		StrictVerifiedOnly:  s.cfg.StrictVerifiedOnly,
	}
}

func maskIdentifier(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:6] + "..." + id[len(id)-6:]
}

func (s *knowledgeSourceService) audit(ctx context.Context, actorID uuid.UUID, sourceID *uuid.UUID, action, detail string) {
	audit := &types.KnowledgeSourceAudit{
		ID:       uuid.New(),
		ActorID:  actorID,
		SourceID: sourceID,
		Action:   action,
		Detail:   detail,
	}
	if err := s.sources.CreateAudit(ctx, nil, audit); err != nil {
		s.log.Warn("audit write failed", "action", action, "error", err)
	}
}

func (s *knowledgeSourceService) invalidatePolicy(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
