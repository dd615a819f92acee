package agentregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAgentFile(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func TestLoadDirRegistersWellFormedAgents(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "scout.md", "---\nname: scout\ndescription: gathers evidence\n---\nYou are a scout agent.\n")
	writeAgentFile(t, dir, "reviewer.md", "---\nname: reviewer\ndescription: reviews output\n---\nYou are a reviewer.\n")

	r := New(nil)
	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, r.Count())

	def, ok := r.Get("scout")
	require.True(t, ok)
	assert.Equal(t, "gathers evidence", def.Description)
	assert.Equal(t, "You are a scout agent.", def.Body)
}

func TestLoadDirSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeAgentFile(t, dir, "good.md", "---\nname: good\ndescription: fine\n---\nBody text\n")
	writeAgentFile(t, dir, "no-frontmatter.md", "just a body, no header\n")
	writeAgentFile(t, dir, "missing-name.md", "---\ndescription: no name here\n---\nBody\n")

	r := New(nil)
	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, ok := r.Get("good")
	assert.True(t, ok)
}

func TestLoadDirSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeAgentFile(t, dir, "top.md", "---\nname: top\ndescription: top level\n---\nBody\n")

	r := New(nil)
	count, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoadDirMissingDirectoryErrors(t *testing.T) {
	r := New(nil)
	_, err := r.LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestGetMissingAgentReturnsFalse(t *testing.T) {
	r := New(nil)
	_, ok := r.Get("nonexistent")
	assert.False(t, ok)
}
