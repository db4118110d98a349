package exec

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParams(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestIsDenied(t *testing.T) {
	cases := []struct {
		command string
		denied  bool
	}{
		{"rm -rf /", true},
		{"rm -rf /*", true},
		{"sudo rm -rf /var", true},
		{"mkfs.ext4 /dev/sda1", true},
		{"dd if=/dev/zero of=/dev/sda", true},
		{"chmod 777 /", true},
		{"ls -la", false},
		{"rm -rf ./build", false},
		{"git status", false},
	}
	for _, c := range cases {
		denied, _ := isDenied(c.command)
		assert.Equalf(t, c.denied, denied, "command %q", c.command)
	}
}

func TestExecuteRunsCommandAndCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	tool := NewTool(dir)

	result, err := tool.Execute(context.Background(), mustParams(t, execParams{Command: "echo hello"}))
	require.NoError(t, err)
	require.True(t, result.Success)

	var res execResult
	require.NoError(t, json.Unmarshal(result.Result, &res))
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
	assert.Equal(t, dir, res.WorkingDir)
}

func TestExecuteBlocksDeniedCommand(t *testing.T) {
	tool := NewTool(t.TempDir())
	result, err := tool.Execute(context.Background(), mustParams(t, execParams{Command: "rm -rf /"}))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "blocked by safety policy")
}

func TestExecuteRejectsEmptyCommand(t *testing.T) {
	tool := NewTool(t.TempDir())
	result, err := tool.Execute(context.Background(), mustParams(t, execParams{Command: "   "}))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestExecuteTimesOut(t *testing.T) {
	tool := NewTool(t.TempDir())
	result, err := tool.Execute(context.Background(), mustParams(t, execParams{
		Command:        "sleep 2",
		TimeoutSeconds: 1,
	}))
	require.NoError(t, err)
	assert.False(t, result.Success)

	var res execResult
	require.NoError(t, json.Unmarshal(result.Result, &res))
	assert.True(t, res.TimedOut)
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	tool := NewTool(t.TempDir())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := tool.Execute(ctx, mustParams(t, execParams{Command: "sleep 5"}))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestTruncateCapsOutput(t *testing.T) {
	big := make([]byte, MaxOutputBytes+10)
	for i := range big {
		big[i] = 'a'
	}
	s, truncated := truncate(big)
	assert.True(t, truncated)
	assert.Len(t, s, MaxOutputBytes)

	small := []byte("ok")
	s, truncated = truncate(small)
	assert.False(t, truncated)
	assert.Equal(t, "ok", s)
}
