package memstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndRetrieve(t *testing.T) {
	s := New()
	ok := s.Store("agent-output", "run-1", "hello world", map[string]any{"agent": "scout"})
	require.True(t, ok)

	e := s.Retrieve("run-1")
	require.NotNil(t, e)
	assert.Equal(t, "hello world", e.Content)
	assert.Equal(t, "agent-output", e.EntityType)
	require.NotNil(t, e.ExpiresAt)
}

func TestRetrieveMissingReturnsNil(t *testing.T) {
	s := New()
	assert.Nil(t, s.Retrieve("nope"))
}

func TestDocumentationNeverExpires(t *testing.T) {
	s := New()
	s.Store("documentation", "doc-1", "reference text", nil)
	e := s.Retrieve("doc-1")
	require.NotNil(t, e)
	assert.Nil(t, e.ExpiresAt)
}

func TestExpiredEntityTreatedAsAbsent(t *testing.T) {
	s := New()
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	s.Store("agent-output", "run-1", "data", nil)

	s.now = func() time.Time { return frozen.Add(31 * 24 * time.Hour) }
	assert.Nil(t, s.Retrieve("run-1"))
}

func TestCleanupEvictsExpiredOnly(t *testing.T) {
	s := New()
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	s.Store("agent-output", "expired", "old", nil)
	s.Store("documentation", "kept", "forever", nil)

	s.now = func() time.Time { return frozen.Add(31 * 24 * time.Hour) }
	removed := s.Cleanup()

	assert.Equal(t, 1, removed)
	assert.Nil(t, s.Retrieve("expired"))
	assert.NotNil(t, s.Retrieve("kept"))
}

func TestSearchCaseInsensitiveSubstring(t *testing.T) {
	s := New()
	s.Store("agent-output", "a", "The Quick Brown Fox", nil)
	s.Store("agent-output", "b", "unrelated content", nil)

	results := s.Search(SearchQuery{ContentSubstring: "quick brown"})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].EntityID)
}

func TestSearchByTypeAndMetadata(t *testing.T) {
	s := New()
	s.Store("agent-output", "a", "x", map[string]any{"phase": "phase_0"})
	s.Store("agent-output", "b", "y", map[string]any{"phase": "phase_1"})
	s.Store("workflow-state", "c", "z", map[string]any{"phase": "phase_0"})

	results := s.Search(SearchQuery{EntityType: "agent-output", MetadataFilter: map[string]any{"phase": "phase_0"}})
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].EntityID)
}

func TestSearchRespectsLimit(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Store("agent-output", string(rune('a'+i)), "same content", nil)
	}
	results := s.Search(SearchQuery{ContentSubstring: "same", Limit: 2})
	assert.Len(t, results, 2)
}

func TestStatsCountsByTypeExcludingExpired(t *testing.T) {
	s := New()
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	s.Store("agent-output", "a", "1234", nil)
	s.Store("agent-output", "expired", "5678", nil)
	s.Store("documentation", "doc", "99", nil)

	s.now = func() time.Time { return frozen.Add(31 * 24 * time.Hour) }
	stats := s.Stats()

	assert.Equal(t, 1, stats.CountByType["documentation"])
	assert.Equal(t, 0, stats.CountByType["agent-output"])
	assert.Equal(t, 2, stats.TotalBytes)
	assert.Contains(t, stats.RetentionPolicies, "security-audit")
}
