package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportEmptyRegistry(t *testing.T) {
	reg := NewRegistry()
	text, err := reg.Report()
	require.NoError(t, err)
	assert.NotEmpty(t, text, "the unlabeled turn-duration histogram reports even at zero")
}

func TestReportReflectsRecordedMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.ToolCalls.WithLabelValues("file_read").Inc()
	reg.ToolCalls.WithLabelValues("file_read").Inc()
	reg.ToolFailures.WithLabelValues("shell_exec").Inc()
	reg.ProviderErrors.WithLabelValues("anthropic", "rate_limit").Inc()
	reg.TurnDuration.Observe(1.5)

	text, err := reg.Report()
	require.NoError(t, err)

	assert.Contains(t, text, `songbird_tool_calls_total{tool="file_read"} 2`)
	assert.Contains(t, text, `songbird_tool_failures_total{tool="shell_exec"} 1`)
	assert.Contains(t, text, `songbird_provider_errors_total{kind="rate_limit",provider="anthropic"} 1`)
	assert.Contains(t, text, "songbird_turn_duration_seconds")
}

func TestReportIsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.ToolCalls.WithLabelValues("zzz_tool").Inc()
	reg.ToolCalls.WithLabelValues("aaa_tool").Inc()

	text, err := reg.Report()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	sorted := make([]string, len(lines))
	copy(sorted, lines)
	assertSorted(t, sorted)
}

func assertSorted(t *testing.T, lines []string) {
	t.Helper()
	for i := 1; i < len(lines); i++ {
		assert.LessOrEqual(t, lines[i-1], lines[i])
	}
}

func TestClearResetsCounters(t *testing.T) {
	reg := NewRegistry()
	reg.ToolCalls.WithLabelValues("file_read").Inc()
	reg.Clear()

	text, err := reg.Report()
	require.NoError(t, err)
	assert.NotContains(t, text, `tool="file_read"`)
}
