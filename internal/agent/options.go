package agent

import (
	"log/slog"
	"time"
)

// Phase is one state of the per-turn conversation state machine (§4.4).
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseAwaitingModel       Phase = "awaiting_model"
	PhaseDispatchingTools    Phase = "dispatching_tools"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseTerminal            Phase = "terminal"
	PhaseFailed              Phase = "failed"
)

// LoopConfig tunes the orchestrator. DefaultLoopConfig's MaxIterations
// of 20 is SPEC_FULL.md's resolution of the Open Question in spec §9
// ("the iteration bound K is not set in the source; K = 20 is this
// spec's recommendation").
type LoopConfig struct {
	MaxIterations int
	MaxTokens     int
	Logger        *slog.Logger
	AutoApply     bool
	FastMode      bool
	// TurnTimeout bounds the wall-clock time of one Run call; zero
	// disables the bound.
	TurnTimeout time.Duration
}

// DefaultLoopConfig returns the defaults named in SPEC_FULL.md's Open
// Question resolutions.
func DefaultLoopConfig() *LoopConfig {
	return &LoopConfig{
		MaxIterations: 20,
		MaxTokens:     4096,
		Logger:        slog.Default(),
	}
}

func sanitizeLoopConfig(c *LoopConfig) *LoopConfig {
	if c == nil {
		c = DefaultLoopConfig()
	}
	out := *c
	if out.MaxIterations <= 0 {
		out.MaxIterations = 20
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = 4096
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}
