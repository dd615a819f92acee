// Package memstore implements the Memory Store: an in-process, typed,
// expiring entity store used for durable-ish artifacts (agent output,
// context package mirrors, workflow state snapshots, and similar) that
// outlive a single request but are not meant to be kept forever.
//
// Grounded on the retention-by-type policy in spec.md §3/§4.3; the
// mutex-guarded map follows the same discipline agentregistry.Registry
// uses for its own name-to-definition store.
package memstore

import (
	"strings"
	"sync"
	"time"
)

// Entity is a single stored item.
type Entity struct {
	EntityType string
	EntityID   string
	Content    string
	Metadata   map[string]any
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// expired reports whether e's retention window has passed as of now.
func (e *Entity) expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// defaultRetention maps entity type to its retention window. A zero
// duration means indefinite (never expires).
var defaultRetention = map[string]time.Duration{
	"agent-output":       30 * 24 * time.Hour,
	"context-package":     7 * 24 * time.Hour,
	"documentation":       0,
	"workflow-state":      14 * 24 * time.Hour,
	"security-audit":      90 * 24 * time.Hour,
	"deployment-evidence": 90 * 24 * time.Hour,
	"todo-context":        365 * 24 * time.Hour,
}

// SearchQuery filters Search results. Zero-value fields are unfiltered.
type SearchQuery struct {
	EntityType       string
	ContentSubstring string
	MetadataFilter   map[string]any
	Limit            int
}

// Stats summarizes the store's current contents.
type Stats struct {
	CountByType      map[string]int
	TotalBytes       int
	RetentionPolicies map[string]time.Duration
}

// Store is a concurrency-safe, typed, expiring entity store.
type Store struct {
	mu        sync.RWMutex
	entities  map[string]*Entity
	retention map[string]time.Duration
	now       func() time.Time
}

// New returns an empty Store using the default retention policy.
func New() *Store {
	retention := make(map[string]time.Duration, len(defaultRetention))
	for k, v := range defaultRetention {
		retention[k] = v
	}
	return &Store{
		entities:  make(map[string]*Entity),
		retention: retention,
		now:       time.Now,
	}
}

// Store saves content under (entityType, id), computing expiry from the
// type's retention policy. Returns true on success.
func (s *Store) Store(entityType, id, content string, metadata map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expiresAt *time.Time
	if d, ok := s.retention[entityType]; ok && d > 0 {
		t := now.Add(d)
		expiresAt = &t
	}

	s.entities[id] = &Entity{
		EntityType: entityType,
		EntityID:   id,
		Content:    content,
		Metadata:   metadata,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}
	return true
}

// Retrieve returns the entity stored under id, or nil if absent or
// expired. An expired entity is evicted as a side effect (lazy eviction).
func (s *Store) Retrieve(id string) *Entity {
	s.mu.RLock()
	e, ok := s.entities[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	now := s.now()
	if e.expired(now) {
		s.mu.Lock()
		delete(s.entities, id)
		s.mu.Unlock()
		return nil
	}
	return e
}

// Search returns entities matching q, skipping expired entities. Matching
// on EntityType and ContentSubstring is case-insensitive; MetadataFilter
// requires an exact match of every named key. Results are capped at
// q.Limit (default 100).
func (s *Store) Search(q SearchQuery) []*Entity {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	typeFilter := strings.ToLower(q.EntityType)
	substrFilter := strings.ToLower(q.ContentSubstring)

	results := make([]*Entity, 0, limit)
	for _, e := range s.entities {
		if e.expired(now) {
			continue
		}
		if typeFilter != "" && !strings.EqualFold(e.EntityType, typeFilter) {
			continue
		}
		if substrFilter != "" && !strings.Contains(strings.ToLower(e.Content), substrFilter) {
			continue
		}
		if !matchesMetadata(e.Metadata, q.MetadataFilter) {
			continue
		}
		results = append(results, e)
		if len(results) >= limit {
			break
		}
	}
	return results
}

func matchesMetadata(metadata, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Cleanup evicts every expired entity and returns the count removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entities {
		if e.expired(now) {
			delete(s.entities, id)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the store's contents and retention policy.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	countByType := make(map[string]int)
	totalBytes := 0
	for _, e := range s.entities {
		if e.expired(now) {
			continue
		}
		countByType[e.EntityType]++
		totalBytes += len(e.Content)
	}

	retention := make(map[string]time.Duration, len(s.retention))
	for k, v := range s.retention {
		retention[k] = v
	}

	return Stats{
		CountByType:       countByType,
		TotalBytes:        totalBytes,
		RetentionPolicies: retention,
	}
}
