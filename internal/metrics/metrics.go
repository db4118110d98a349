// Package metrics instruments the orchestrator with Prometheus
// counters and histograms, exposed locally through the `performance`
// CLI subcommand rather than an HTTP scrape endpoint (§6).
package metrics

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry wraps a private Prometheus registry so the CLI's
// `performance` subcommand can snapshot and clear its own counters
// without colliding with any other process-wide registry.
type Registry struct {
	reg *prometheus.Registry

	ToolCalls      *prometheus.CounterVec
	ToolFailures   *prometheus.CounterVec
	ProviderCalls  *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
	TurnDuration   prometheus.Histogram
	ToolDuration   *prometheus.HistogramVec
}

// NewRegistry builds and registers every metric.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songbird_tool_calls_total",
			Help: "Tool invocations, by tool name.",
		}, []string{"tool"}),
		ToolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songbird_tool_failures_total",
			Help: "Tool invocations that returned success=false, by tool name.",
		}, []string{"tool"}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songbird_provider_calls_total",
			Help: "Completion calls issued, by provider.",
		}, []string{"provider"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songbird_provider_errors_total",
			Help: "Completion calls that returned a classified error, by provider and kind.",
		}, []string{"provider", "kind"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "songbird_turn_duration_seconds",
			Help:    "Wall-clock duration of one orchestrator turn.",
			Buckets: prometheus.DefBuckets,
		}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "songbird_tool_duration_seconds",
			Help:    "Wall-clock duration of one tool execution, by tool name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	reg.MustRegister(m.ToolCalls, m.ToolFailures, m.ProviderCalls, m.ProviderErrors, m.TurnDuration, m.ToolDuration)
	return m
}

// Clear replaces every metric with a fresh zeroed instance, backing
// `performance --clear`.
func (m *Registry) Clear() {
	*m = *NewRegistry()
}

// Report renders every collected metric family as
// "name{labels} value" lines, sorted for stable output.
func (m *Registry) Report() (string, error) {
	families, err := m.reg.Gather()
	if err != nil {
		return "", fmt.Errorf("metrics: gathering: %w", err)
	}
	var buf bytes.Buffer
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			fmt.Fprintf(&buf, "%s%s %s\n", fam.GetName(), labelString(metric.GetLabel()), valueString(fam.GetType(), metric))
		}
	}
	lines := bytesLines(buf.Bytes())
	sort.Strings(lines)
	var out bytes.Buffer
	for _, l := range lines {
		out.WriteString(l)
		out.WriteByte('\n')
	}
	return out.String(), nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", l.GetName(), l.GetValue())
	}
	b.WriteByte('}')
	return b.String()
}

func valueString(t dto.MetricType, metric *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", metric.GetCounter().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := metric.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}

func bytesLines(b []byte) []string {
	var lines []string
	start := 0
	for i, c := range b {
		if c == '\n' {
			if i > start {
				lines = append(lines, string(b[start:i]))
			}
			start = i + 1
		}
	}
	return lines
}
