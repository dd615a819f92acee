// Package contextpkg implements the Context Package Manager: creation,
// type-directed compression, retrieval, and merging of ContextPackages,
// each held under a per-type token budget.
//
// Grounded on original_source/app/orchestration/context_manager.py
// (ContextPackage, ContextCompressor, ContextManager), translated from
// asyncio coroutines to plain synchronous Go methods guarded by a mutex,
// with compression thresholds sourced from config.ContextConfig instead
// of a raw dict.
package contextpkg

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/localagent/orchestrator/config"
	"github.com/localagent/orchestrator/logger"
	"github.com/localagent/orchestrator/memstore"
	"github.com/localagent/orchestrator/tokencount"
)

// PackageType enumerates the kinds of context package spec.md §3 defines.
type PackageType string

const (
	PackageStrategic     PackageType = "strategic"
	PackageTechnical     PackageType = "technical"
	PackageFrontend      PackageType = "frontend"
	PackageSecurity      PackageType = "security"
	PackagePerformance   PackageType = "performance"
	PackageDatabase      PackageType = "database"
	PackageAgentContext  PackageType = "agent_context"
	PackageMergedContext PackageType = "merged_context"
	PackageGeneric       PackageType = "generic"
)

// Package is a token-bounded bundle of content shared between agents.
type Package struct {
	PackageID   string
	PackageType PackageType
	Content     map[string]any
	Metadata    map[string]any
	TokenCount  int
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	Compressed  bool
}

func (p *Package) expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Manager creates, compresses, caches, and retrieves context packages.
type Manager struct {
	mu          sync.RWMutex
	packages    map[string]*Package
	limits      map[PackageType]int
	baseLimit   int
	memoryStore *memstore.Store
	logger      *slog.Logger
	now         func() time.Time
}

// New returns a Manager using cfg's per-type token limits, optionally
// mirroring packages to memoryStore (nil disables mirroring).
func New(cfg config.ContextConfig, memoryStore *memstore.Store, log *slog.Logger) *Manager {
	defaultLimit := cfg.DefaultContextTokens
	if defaultLimit <= 0 {
		defaultLimit = defaultTokenLimit
	}
	return &Manager{
		packages: make(map[string]*Package),
		limits: map[PackageType]int{
			PackageStrategic:   cfg.StrategicContextTokens,
			PackageTechnical:   cfg.TechnicalContextTokens,
			PackageFrontend:    cfg.FrontendContextTokens,
			PackageSecurity:    cfg.SecurityContextTokens,
			PackagePerformance: cfg.PerformanceContextTokens,
			PackageDatabase:    cfg.DatabaseContextTokens,
		},
		baseLimit:   defaultLimit,
		memoryStore: memoryStore,
		logger:      logger.Or(log),
		now:         time.Now,
	}
}

func (m *Manager) limitFor(t PackageType, defaultLimit int) int {
	if limit, ok := m.limits[t]; ok && limit > 0 {
		return limit
	}
	return defaultLimit
}

const defaultTokenLimit = 4000

// CreatePackage creates a package from content, compressing it with the
// type-directed strategy if it exceeds the type's token limit. ttl of
// zero means the package never expires.
func (m *Manager) CreatePackage(id string, packageType PackageType, content, metadata map[string]any, ttl time.Duration) *Package {
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := m.now()
	tokenCount := tokencount.CountValue(content)
	limit := m.limitFor(packageType, m.baseLimit)

	pkg := &Package{
		PackageID:   id,
		PackageType: packageType,
		Content:     content,
		Metadata:    metadata,
		TokenCount:  tokenCount,
		CreatedAt:   now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		pkg.ExpiresAt = &expires
	}

	if tokenCount > limit {
		compressed := compress(packageType, content)
		compressedTokens := tokencount.CountValue(compressed)

		mergedMetadata := make(map[string]any, len(metadata)+2)
		for k, v := range metadata {
			mergedMetadata[k] = v
		}
		mergedMetadata["original_tokens"] = tokenCount
		mergedMetadata["compression_ratio"] = float64(compressedTokens) / float64(tokenCount)

		pkg.Content = compressed
		pkg.Metadata = mergedMetadata
		pkg.TokenCount = compressedTokens
		pkg.Compressed = true

		m.logger.Info("contextpkg: compressed package",
			"package_id", id, "from_tokens", tokenCount, "to_tokens", compressedTokens)
	}

	m.mu.Lock()
	m.packages[id] = pkg
	m.mu.Unlock()

	if m.memoryStore != nil {
		if encoded, err := json.Marshal(serializablePackage(pkg)); err == nil {
			m.memoryStore.Store("context-package", id, string(encoded), map[string]any{
				"package_type": string(pkg.PackageType),
			})
		}
	}

	return pkg
}

// wirePackage is the JSON-serializable mirror of Package, stored as the
// content string of a memstore entity so a retrieval miss on the local
// cache can reconstruct the package in full.
type wirePackage struct {
	PackageID   string         `json:"package_id"`
	PackageType PackageType    `json:"package_type"`
	Content     map[string]any `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	TokenCount  int            `json:"token_count"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Compressed  bool           `json:"compressed"`
}

func serializablePackage(pkg *Package) wirePackage {
	return wirePackage{
		PackageID:   pkg.PackageID,
		PackageType: pkg.PackageType,
		Content:     pkg.Content,
		Metadata:    pkg.Metadata,
		TokenCount:  pkg.TokenCount,
		CreatedAt:   pkg.CreatedAt,
		ExpiresAt:   pkg.ExpiresAt,
		Compressed:  pkg.Compressed,
	}
}

// RetrievePackage returns the package stored under id, preferring the
// local cache; a miss falls through to the mirrored memory store. Expired
// packages are never returned.
func (m *Manager) RetrievePackage(id string) *Package {
	m.mu.RLock()
	pkg, ok := m.packages[id]
	m.mu.RUnlock()

	if ok {
		if pkg.expired(m.now()) {
			m.mu.Lock()
			delete(m.packages, id)
			m.mu.Unlock()
			return nil
		}
		return pkg
	}

	if m.memoryStore == nil {
		return nil
	}
	entity := m.memoryStore.Retrieve(id)
	if entity == nil {
		return nil
	}

	var wire wirePackage
	if err := json.Unmarshal([]byte(entity.Content), &wire); err != nil {
		m.logger.Error("contextpkg: could not decode mirrored package", "package_id", id, "error", err)
		return nil
	}

	restored := &Package{
		PackageID:   wire.PackageID,
		PackageType: wire.PackageType,
		Content:     wire.Content,
		Metadata:    wire.Metadata,
		TokenCount:  wire.TokenCount,
		CreatedAt:   wire.CreatedAt,
		ExpiresAt:   wire.ExpiresAt,
		Compressed:  wire.Compressed,
	}
	if restored.expired(m.now()) {
		return nil
	}

	m.mu.Lock()
	m.packages[id] = restored
	m.mu.Unlock()
	return restored
}

// MergePackages retrieves the named packages and wraps their payloads in
// a new merged_context package with a 2-hour TTL.
func (m *Manager) MergePackages(ids []string, mergedID string) *Package {
	type mergedEntry struct {
		ID         string         `json:"id"`
		Type       PackageType    `json:"type"`
		Content    map[string]any `json:"content"`
		Compressed bool           `json:"compressed"`
	}

	entries := make([]mergedEntry, 0, len(ids))
	for _, id := range ids {
		pkg := m.RetrievePackage(id)
		if pkg == nil {
			continue
		}
		entries = append(entries, mergedEntry{
			ID:         pkg.PackageID,
			Type:       pkg.PackageType,
			Content:    pkg.Content,
			Compressed: pkg.Compressed,
		})
	}
	if len(entries) == 0 {
		return nil
	}

	entriesAny := make([]any, len(entries))
	for i, e := range entries {
		entriesAny[i] = map[string]any{
			"id":         e.ID,
			"type":       string(e.Type),
			"content":    e.Content,
			"compressed": e.Compressed,
		}
	}

	content := map[string]any{
		"merged_from": ids,
		"packages":    entriesAny,
	}
	metadata := map[string]any{"source_packages": len(entries)}

	return m.CreatePackage(mergedID, PackageMergedContext, content, metadata, 2*time.Hour)
}

// WorkflowContext carries the subset of workflow state shared with
// every agent's context package.
type WorkflowContext struct {
	CurrentPhase    string
	WorkflowID      string
	UserRequest     string
	SuccessCriteria []string
}

// CreateAgentContext builds an agent_context package combining
// workflow-level context with agent-specific data, expiring after 1 hour.
func (m *Manager) CreateAgentContext(agentName string, wf WorkflowContext, agentData map[string]any, maxTokens int) *Package {
	content := map[string]any{
		"agent_name": agentName,
		"workflow_context": map[string]any{
			"current_phase":    wf.CurrentPhase,
			"workflow_id":      wf.WorkflowID,
			"user_request":     wf.UserRequest,
			"success_criteria": wf.SuccessCriteria,
		},
		"agent_data": agentData,
	}
	metadata := map[string]any{"agent_name": agentName, "max_tokens": maxTokens}

	id := fmt.Sprintf("agent_%s_%d", agentName, m.now().Unix())
	return m.CreatePackage(id, PackageAgentContext, content, metadata, time.Hour)
}

// Cleanup evicts every expired cached package and returns the count removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, pkg := range m.packages {
		if pkg.expired(now) {
			delete(m.packages, id)
			removed++
		}
	}
	return removed
}

// StorageStats summarizes the manager's current cached packages.
type StorageStats struct {
	TotalPackages      int
	TotalTokens        int
	CompressedPackages int
	PackageTypeCounts  map[PackageType]int
}

// Stats returns a snapshot of the manager's local package cache.
func (m *Manager) Stats() StorageStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := StorageStats{PackageTypeCounts: make(map[PackageType]int)}
	for _, pkg := range m.packages {
		stats.TotalPackages++
		stats.TotalTokens += pkg.TokenCount
		stats.PackageTypeCounts[pkg.PackageType]++
		if pkg.Compressed {
			stats.CompressedPackages++
		}
	}
	return stats
}

