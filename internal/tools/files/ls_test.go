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

func setupLSTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aa"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("h"), 0o644))
	return dir
}

func TestLSToolExecuteListsSortedVisibleEntries(t *testing.T) {
	dir := setupLSTree(t)
	tool := NewLSTool(Resolver{Root: dir})

	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	require.True(t, result.Success)

	var entries []lsEntry
	require.NoError(t, json.Unmarshal(result.Result, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "sub", entries[2].Name)
	assert.True(t, entries[2].IsDir)
}

func TestLSToolExecuteShowsHiddenWhenRequested(t *testing.T) {
	dir := setupLSTree(t)
	tool := NewLSTool(Resolver{Root: dir})

	params, _ := json.Marshal(lsParams{ShowHidden: true})
	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)

	var entries []lsEntry
	require.NoError(t, json.Unmarshal(result.Result, &entries))
	assert.Len(t, entries, 4)
}

func TestLSToolExecuteRejectsMissingDirectory(t *testing.T) {
	tool := NewLSTool(Resolver{Root: t.TempDir()})
	params, _ := json.Marshal(lsParams{Path: "does-not-exist"})
	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
