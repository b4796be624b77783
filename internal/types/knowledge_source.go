package types

import (
	"time"

	"github.com/google/uuid"
)

// SourceTypeVectorStoreFile marks registry rows that mirror files attached to
// the retrieval vector store. When any rows of this type exist they alone
// govern retrieval filtering.
const SourceTypeVectorStoreFile = "vector_store_file"

const (
	AuditActionAdd      = "add"
	AuditActionUpdate   = "update"
	AuditActionEnable   = "enable"
	AuditActionDisable  = "disable"
	AuditActionVerify   = "verify"
	AuditActionUnverify = "unverify"
	AuditActionRemove   = "remove"
	AuditActionReindex  = "reindex"
)

type KnowledgeSource struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	SourceType string    `gorm:"not null;uniqueIndex:idx_knowledge_sources_ref_type" json:"source_type"`
	SourceRef  string    `gorm:"not null;uniqueIndex:idx_knowledge_sources_ref_type" json:"source_ref"`
	// No column defaults on the flags: GORM skips zero-valued fields that
	// carry a default tag, which would silently flip enabled=false to true
	// on insert. The services always set both explicitly.
	Enabled   bool      `gorm:"not null" json:"enabled"`
	Verified  bool      `gorm:"not null" json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KnowledgeSource) TableName() string { return "knowledge_sources" }

type KnowledgeSourceAudit struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"actor_id"`
	SourceID  *uuid.UUID `gorm:"type:uuid;index" json:"source_id,omitempty"`
	Action    string     `gorm:"not null" json:"action"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (KnowledgeSourceAudit) TableName() string { return "knowledge_source_audits" }

type CreateKnowledgeSourceRequest struct {
	Title      string `json:"title" binding:"required"`
	SourceType string `json:"source_type" binding:"required"`
	SourceRef  string `json:"source_ref" binding:"required"`
	Enabled    *bool  `json:"enabled,omitempty"`
	Verified   *bool  `json:"verified,omitempty"`
}

type UpdateKnowledgeSourceRequest struct {
	Title      *string `json:"title,omitempty"`
	SourceType *string `json:"source_type,omitempty"`
	SourceRef  *string `json:"source_ref,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
	Verified   *bool   `json:"verified,omitempty"`
}

// ReindexResult summarizes one registry sync pass.
type ReindexResult struct {
	Attached int    `json:"attached"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Removed  int    `json:"removed"`
	Total    int    `json:"total"`
	Summary  string `json:"summary"`
}

// RuntimeConfig is the admin view of retrieval wiring. The vector store id
// is masked before it leaves the service.
type RuntimeConfig struct {
	VectorStoreIDMasked string `json:"vector_store_id_masked"`
	VectorStoreSet      bool   `json:"vector_store_set"`
	StrictVerifiedOnly  bool   `json:"strict_verified_only"`
}
