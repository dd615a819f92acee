package contextpkg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localagent/orchestrator/config"
	"github.com/localagent/orchestrator/memstore"
)

func testConfig() config.ContextConfig {
	return config.Default().Context
}

func TestCreatePackageUnderLimitIsNotCompressed(t *testing.T) {
	m := New(testConfig(), nil, nil)
	pkg := m.CreatePackage("pkg-1", PackageGeneric, map[string]any{"summary": "short"}, nil, 0)

	assert.False(t, pkg.Compressed)
	assert.LessOrEqual(t, pkg.TokenCount, 4000)
}

func TestCreatePackageOverLimitIsCompressed(t *testing.T) {
	m := New(testConfig(), nil, nil)
	bigDecisions := make([]any, 50)
	for i := range bigDecisions {
		bigDecisions[i] = strings.Repeat("decision detail text ", 40)
	}
	content := map[string]any{
		"architecture_overview": strings.Repeat("architecture detail ", 2000),
		"key_decisions":         bigDecisions,
		"integration_points":    bigDecisions,
		"success_criteria":      bigDecisions,
		"constraints":           bigDecisions,
	}

	pkg := m.CreatePackage("pkg-strategic", PackageStrategic, content, nil, 0)

	require.True(t, pkg.Compressed)
	assert.LessOrEqual(t, pkg.TokenCount, 3000, "compressed package must respect the strategic token limit")
	assert.Contains(t, pkg.Content, "_compression_note")
	assert.Contains(t, pkg.Metadata, "original_tokens")
	assert.Contains(t, pkg.Metadata, "compression_ratio")
}

func TestStrategicCompressionTruncatesLists(t *testing.T) {
	decisions := make([]any, 10)
	for i := range decisions {
		decisions[i] = i
	}
	compressed := compressStrategic(map[string]any{"key_decisions": decisions})
	assert.Len(t, compressed["key_decisions"], 3)
}

func TestGenericCompressionKeepsOnlyEssentialKeys(t *testing.T) {
	content := map[string]any{
		"summary":      "a summary",
		"unrelated":    "dropped",
		"key_points":   []any{1, 2, 3, 4, 5, 6, 7},
	}
	compressed := compressGeneric(content)

	assert.Equal(t, "a summary", compressed["summary"])
	assert.NotContains(t, compressed, "unrelated")
	assert.Len(t, compressed["key_points"], 5)
	assert.Contains(t, compressed, "_available_keys")
}

func TestCompressConfigKeepsEssentialAndShortKeys(t *testing.T) {
	cfg := map[string]any{
		"host":          "db.internal",
		"long_blob":     strings.Repeat("x", 100),
		"short_field":   "ok",
	}
	compressed := compressConfig(cfg)

	assert.Contains(t, compressed, "host")
	assert.Contains(t, compressed, "short_field")
	assert.NotContains(t, compressed, "long_blob")
}

func TestRetrievePackageReturnsNilForExpired(t *testing.T) {
	m := New(testConfig(), nil, nil)
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return frozen }

	m.CreatePackage("temp", PackageGeneric, map[string]any{"summary": "x"}, nil, time.Hour)

	m.now = func() time.Time { return frozen.Add(2 * time.Hour) }
	assert.Nil(t, m.RetrievePackage("temp"))
}

func TestRetrievePackageFallsBackToMirroredStore(t *testing.T) {
	store := memstore.New()
	m := New(testConfig(), store, nil)

	m.CreatePackage("mirrored-1", PackageGeneric, map[string]any{"summary": "mirrored content"}, nil, 0)

	m2 := New(testConfig(), store, nil)
	pkg := m2.RetrievePackage("mirrored-1")
	require.NotNil(t, pkg)
	assert.Equal(t, "mirrored content", pkg.Content["summary"])
}

func TestMergePackagesCombinesSources(t *testing.T) {
	m := New(testConfig(), nil, nil)
	m.CreatePackage("a", PackageGeneric, map[string]any{"summary": "alpha"}, nil, 0)
	m.CreatePackage("b", PackageGeneric, map[string]any{"summary": "beta"}, nil, 0)

	merged := m.MergePackages([]string{"a", "b"}, "merged-1")
	require.NotNil(t, merged)
	assert.Equal(t, PackageMergedContext, merged.PackageType)
	assert.Equal(t, 2, merged.Metadata["source_packages"])
}

func TestMergePackagesReturnsNilWhenNoneFound(t *testing.T) {
	m := New(testConfig(), nil, nil)
	assert.Nil(t, m.MergePackages([]string{"missing"}, "merged-2"))
}

func TestCreateAgentContextHasOneHourExpiry(t *testing.T) {
	m := New(testConfig(), nil, nil)
	pkg := m.CreateAgentContext("scout", WorkflowContext{WorkflowID: "wf-1", CurrentPhase: "phase_0"}, map[string]any{"k": "v"}, 4000)

	require.NotNil(t, pkg.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *pkg.ExpiresAt, 5*time.Second)
	assert.Equal(t, PackageAgentContext, pkg.PackageType)
}

func TestCleanupEvictsExpiredPackages(t *testing.T) {
	m := New(testConfig(), nil, nil)
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return frozen }
	m.CreatePackage("expiring", PackageGeneric, map[string]any{"summary": "x"}, nil, time.Minute)
	m.CreatePackage("persistent", PackageGeneric, map[string]any{"summary": "y"}, nil, 0)

	m.now = func() time.Time { return frozen.Add(time.Hour) }
	removed := m.Cleanup()

	assert.Equal(t, 1, removed)
	assert.NotNil(t, m.RetrievePackage("persistent"))
}

func TestStatsCountsPackagesByType(t *testing.T) {
	m := New(testConfig(), nil, nil)
	m.CreatePackage("a", PackageGeneric, map[string]any{"summary": "x"}, nil, 0)
	m.CreatePackage("b", PackageSecurity, map[string]any{"critical_vulnerabilities": []any{}}, nil, 0)

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalPackages)
	assert.Equal(t, 1, stats.PackageTypeCounts[PackageGeneric])
	assert.Equal(t, 1, stats.PackageTypeCounts[PackageSecurity])
}
