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

func TestMultiEditToolExecuteAppliesAllOperations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("old"), 0o644))
	tool := NewMultiEditTool(Resolver{Root: dir})

	params, _ := json.Marshal(multiEditParams{
		Operations: []multiEditOp{
			{Type: "create", Path: "fresh.txt", Content: "brand new"},
			{Type: "edit", Path: "existing.txt", Content: "updated"},
		},
	})
	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)

	fresh, err := os.ReadFile(filepath.Join(dir, "fresh.txt"))
	require.NoError(t, err)
	assert.Equal(t, "brand new", string(fresh))

	existing, err := os.ReadFile(filepath.Join(dir, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "updated", string(existing))
}

func TestMultiEditToolExecuteAtomicRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("old"), 0o644))
	tool := NewMultiEditTool(Resolver{Root: dir})

	params, _ := json.Marshal(multiEditParams{
		Atomic: true,
		Operations: []multiEditOp{
			{Type: "edit", Path: "existing.txt", Content: "updated"},
			{Type: "create", Path: "existing.txt", Content: "conflict"}, // fails: already exists
		},
	})
	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)

	data, err := os.ReadFile(filepath.Join(dir, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "atomic failure must roll back prior edits")
}

func TestMultiEditToolExecuteNonAtomicLeavesPriorChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("old"), 0o644))
	tool := NewMultiEditTool(Resolver{Root: dir})

	params, _ := json.Marshal(multiEditParams{
		Atomic: false,
		Operations: []multiEditOp{
			{Type: "edit", Path: "existing.txt", Content: "updated"},
			{Type: "create", Path: "existing.txt", Content: "conflict"},
		},
	})
	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)

	data, err := os.ReadFile(filepath.Join(dir, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "updated", string(data), "non-atomic failure keeps prior applied ops")
}

func TestMultiEditToolExecuteRejectsUnknownOperationType(t *testing.T) {
	tool := NewMultiEditTool(Resolver{Root: t.TempDir()})
	params, _ := json.Marshal(multiEditParams{
		Operations: []multiEditOp{{Type: "delete", Path: "a.txt", Content: ""}},
	})
	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestMultiEditToolPreviewReportsChangesAcrossOps(t *testing.T) {
	dir := t.TempDir()
	tool := NewMultiEditTool(Resolver{Root: dir})
	params, _ := json.Marshal(multiEditParams{
		Operations: []multiEditOp{{Type: "create", Path: "new.txt", Content: "hi"}},
	})
	_, diff, hasChanges, err := tool.Preview(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, hasChanges)
	assert.Contains(t, diff, "+hi")
}
