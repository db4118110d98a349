package files

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobToolExecuteMatchesPattern(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewGlobTool(Resolver{Root: dir})

	params, err := json.Marshal(searchParams{Pattern: "*.go"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)

	var payload struct {
		Matches []searchMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	assert.Len(t, payload.Matches, 2)
	for _, m := range payload.Matches {
		assert.Equal(t, "file", m.Type)
	}
}

func TestGlobToolExecuteDefaultsDirectory(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewGlobTool(Resolver{Root: dir})

	params, err := json.Marshal(searchParams{Pattern: "*.txt"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestGlobToolExecuteRejectsInvalidArguments(t *testing.T) {
	tool := NewGlobTool(Resolver{Root: t.TempDir()})
	result, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestGrepToolExecuteFindsTextMatches(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewGrepTool(Resolver{Root: dir})

	params, err := json.Marshal(searchParams{Pattern: "hello"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)

	var payload struct {
		Matches []searchMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	for _, m := range payload.Matches {
		assert.Equal(t, "text", m.Type)
		assert.NotContains(t, m.File, ".git")
	}
}

func TestGrepToolExecuteNeverTreatsPatternAsFilename(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewGrepTool(Resolver{Root: dir})

	// "main.go" qualifies as filename-mode under file_search's own
	// auto-detection (a known extension, no path separator, no glob
	// metacharacter); grep forces text/regex mode regardless, so this
	// never produces a "file"-type result the way file_search's
	// auto-detection would.
	params, err := json.Marshal(searchParams{Pattern: "main.go"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, result.Success)

	var payload struct {
		Matches []searchMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(result.Result, &payload))
	for _, m := range payload.Matches {
		assert.Equal(t, "text", m.Type)
	}
}

func TestGrepToolExecuteRejectsMissingDirectory(t *testing.T) {
	dir := setupSearchTree(t)
	tool := NewGrepTool(Resolver{Root: dir})

	params, err := json.Marshal(searchParams{Pattern: "hello", Directory: "does-not-exist"})
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestGrepToolExecuteRejectsInvalidArguments(t *testing.T) {
	tool := NewGrepTool(Resolver{Root: t.TempDir()})
	result, err := tool.Execute(context.Background(), json.RawMessage(`not json`))
	require.NoError(t, err)
	assert.False(t, result.Success)
}
