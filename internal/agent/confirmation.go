package agent

import "context"

// StatusHandle is a running status indicator (spinner) a UI Port hands
// back from ShowStatus; Stop must be safe to call once, and the
// orchestrator always stops it before Ask or before streaming raw tool
// output (§4.5).
type StatusHandle interface {
	Stop()
}

// UIPort is the narrow interface the core consumes (§4.5). It is kept
// separate from the orchestrator so a headless mode (SONGBIRD_AUTO_APPLY)
// is a trivial alternate implementation, and so the TUI renderer named
// out of scope in §1 can live entirely behind it.
type UIPort interface {
	ShowDiff(path, unifiedDiff string)
	// Ask presents options and blocks until the user picks one or
	// cancels; the orchestrator does not start the next tool until Ask
	// returns (§4.5).
	Ask(ctx context.Context, title string, options []string, defaultIndex int) (index int, canceled bool)
	ShowStatus(label string) StatusHandle
	OnInterrupt(callback func())
}

// NoopUIPort is a UIPort that answers every Ask with its default
// index and renders nothing; it backs headless/auto-apply runs and
// tests.
type NoopUIPort struct{}

func (NoopUIPort) ShowDiff(string, string) {}
func (NoopUIPort) Ask(_ context.Context, _ string, _ []string, defaultIndex int) (int, bool) {
	return defaultIndex, false
}
func (NoopUIPort) ShowStatus(string) StatusHandle { return noopStatusHandle{} }
func (NoopUIPort) OnInterrupt(func())             {}

type noopStatusHandle struct{}

func (noopStatusHandle) Stop() {}

// ConfirmationGate mediates the pause between computing a destructive
// change's preview and applying it (§4.5). AutoApply mirrors
// SONGBIRD_AUTO_APPLY=y: when true, Confirm returns true without
// consulting the UI Port, for scripted/headless runs.
type ConfirmationGate struct {
	UI        UIPort
	AutoApply bool
}

// NewConfirmationGate builds a gate over ui; autoApply should be set
// from the SONGBIRD_AUTO_APPLY=y environment flag.
func NewConfirmationGate(ui UIPort, autoApply bool) *ConfirmationGate {
	if ui == nil {
		ui = NoopUIPort{}
	}
	return &ConfirmationGate{UI: ui, AutoApply: autoApply}
}

// Confirm shows path's unified diff and asks yes/no, returning true
// when the user (or auto-apply) accepted the change. It is the
// orchestrator's sole entry point into the diff-confirm flow described
// in §4.1's file_edit contract and §4.4 step 3.
func (g *ConfirmationGate) Confirm(ctx context.Context, path, unifiedDiff string) bool {
	if g.AutoApply {
		return true
	}
	g.UI.ShowDiff(path, unifiedDiff)
	idx, canceled := g.UI.Ask(ctx, "Apply this change?", []string{"Yes", "No"}, 1)
	if canceled {
		return false
	}
	return idx == 0
}
