package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFilenameSearch(t *testing.T) {
	cases := []struct {
		pattern string
		want    bool
	}{
		{"main.go", true},
		{"README.md", true},
		{"config.yaml", true},
		{"src/main.go", false},  // path separator
		{"*.go", false},         // glob metacharacter
		{"TODO", false},         // no known extension
		{"handler[0].js", false}, // glob metacharacter
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, isFilenameSearch(c.pattern), "pattern %q", c.pattern)
	}
}

func TestHasGlobMeta(t *testing.T) {
	assert.True(t, hasGlobMeta("*.go"))
	assert.True(t, hasGlobMeta("file?.txt"))
	assert.True(t, hasGlobMeta("[abc].go"))
	assert.False(t, hasGlobMeta("main.go"))
}

func setupSearchTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {\n\tprintln(\"hello world\")\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.go"), []byte("package main\n\nfunc helper() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello from notes\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("hello"), 0o644))
	return dir
}

func TestSearchWithWalkFilenameMode(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewSearchTool(Resolver{Root: dir})

	matches := tool.searchWithWalk(searchParams{Pattern: "main.go", MaxResults: 50}, dir, true)
	require.Len(t, matches, 1)
	assert.Equal(t, "file", matches[0].Type)
	assert.Equal(t, "main.go", matches[0].File)
}

func TestSearchWithWalkTextMode(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewSearchTool(Resolver{Root: dir})

	matches := tool.searchWithWalk(searchParams{Pattern: "hello", MaxResults: 50, CaseSensitive: false}, dir, false)
	require.Len(t, matches, 2) // main.go and notes.txt, not .git/config
	for _, m := range matches {
		assert.Equal(t, "text", m.Type)
		assert.NotContains(t, m.File, ".git")
	}
}

func TestSearchWithWalkRespectsFileType(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewSearchTool(Resolver{Root: dir})

	matches := tool.searchWithWalk(searchParams{Pattern: "hello", MaxResults: 50, FileType: "txt"}, dir, false)
	require.Len(t, matches, 1)
	assert.Equal(t, "notes.txt", matches[0].File)
}

func TestSearchWithGlob(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewSearchTool(Resolver{Root: dir})

	matches := tool.searchWithGlob(searchParams{Pattern: "*.go"}, dir)
	require.Len(t, matches, 2)
}

func TestExecuteGlobMode(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewSearchTool(Resolver{Root: dir})

	params, err := json.Marshal(searchParams{Pattern: "*.go", Directory: "."})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)

	var payload struct {
		Matches []searchMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	assert.Len(t, payload.Matches, 2)
}

func TestExecuteRejectsMissingDirectory(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewSearchTool(Resolver{Root: dir})

	params, err := json.Marshal(searchParams{Pattern: "*.go", Directory: "does-not-exist"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
