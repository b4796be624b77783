package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
)

// FilterPolicy is the immutable retrieval gate derived from the registry.
// Refs are normalized (trimmed, lowercased); VerifiedRefs is always a subset
// of EnabledRefs.
type FilterPolicy struct {
	EnabledRefs        map[string]struct{}
	VerifiedRefs       map[string]struct{}
	HasRegistryRows    bool
	StrictVerifiedOnly bool
}

// NormalizeRef folds a source ref or filename into its match form.
func NormalizeRef(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

func (p FilterPolicy) Enabled(ref string) bool {
	if !p.HasRegistryRows {
		return true
	}
	_, ok := p.EnabledRefs[NormalizeRef(ref)]
	return ok
}

func (p FilterPolicy) Verified(ref string) bool {
	_, ok := p.VerifiedRefs[NormalizeRef(ref)]
	return ok
}

func (p FilterPolicy) HasVerified() bool { return len(p.VerifiedRefs) > 0 }

// policySnapshot is the wire form of a FilterPolicy for the cache.
type policySnapshot struct {
	EnabledRefs     []string `json:"enabled_refs"`
	VerifiedRefs    []string `json:"verified_refs"`
	HasRegistryRows bool     `json:"has_registry_rows"`
}

func snapshotFromPolicy(p FilterPolicy) policySnapshot {
	snap := policySnapshot{HasRegistryRows: p.HasRegistryRows}
	for ref := range p.EnabledRefs {
		snap.EnabledRefs = append(snap.EnabledRefs, ref)
	}
	for ref := range p.VerifiedRefs {
		snap.VerifiedRefs = append(snap.VerifiedRefs, ref)
	}
	sort.Strings(snap.EnabledRefs)
	sort.Strings(snap.VerifiedRefs)
	return snap
}

func (s policySnapshot) toPolicy(strict bool) FilterPolicy {
	p := FilterPolicy{
		EnabledRefs:        make(map[string]struct{}, len(s.EnabledRefs)),
		VerifiedRefs:       make(map[string]struct{}, len(s.VerifiedRefs)),
		HasRegistryRows:    s.HasRegistryRows,
		StrictVerifiedOnly: strict,
	}
	for _, ref := range s.EnabledRefs {
		p.EnabledRefs[ref] = struct{}{}
	}
	for _, ref := range s.VerifiedRefs {
		p.VerifiedRefs[ref] = struct{}{}
	}
	return p
}

// PolicyCache holds a short-lived snapshot of the filter policy so chat turns
// do not hit the registry tables on every message. A nil cache disables
// caching entirely.
type PolicyCache interface {
	Get(ctx context.Context) (FilterPolicy, bool)
	Set(ctx context.Context, policy FilterPolicy)
	Invalidate(ctx context.Context)
}

const policyCacheKey = "studybridge:filter_policy"

type redisPolicyCache struct {
	client *redis.Client
	ttl    time.Duration
	strict bool
	log    *logger.Logger
}

func NewRedisPolicyCache(client *redis.Client, ttl time.Duration, strict bool, log *logger.Logger) PolicyCache {
	return &redisPolicyCache{
		client: client,
		ttl:    ttl,
		strict: strict,
		log:    log.With("component", "policy_cache"),
	}
}

func (c *redisPolicyCache) Get(ctx context.Context) (FilterPolicy, bool) {
	raw, err := c.client.Get(ctx, policyCacheKey).Bytes()
	if err != nil {
		return FilterPolicy{}, false
	}
	var snap policySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.log.Warn("discarding unreadable policy snapshot", "error", err)
		return FilterPolicy{}, false
	}
	return snap.toPolicy(c.strict), true
}

func (c *redisPolicyCache) Set(ctx context.Context, policy FilterPolicy) {
	raw, err := json.Marshal(snapshotFromPolicy(policy))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, policyCacheKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("policy snapshot write failed", "error", err)
	}
}

func (c *redisPolicyCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, policyCacheKey).Err(); err != nil {
		c.log.Warn("policy snapshot invalidation failed", "error", err)
	}
}
