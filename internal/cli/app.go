package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Spandan7724/songbird/internal/agent"
	"github.com/Spandan7724/songbird/internal/agent/providers"
	"github.com/Spandan7724/songbird/internal/config"
	"github.com/Spandan7724/songbird/internal/metrics"
	exectool "github.com/Spandan7724/songbird/internal/tools/exec"
	"github.com/Spandan7724/songbird/internal/tools/files"
	"github.com/Spandan7724/songbird/internal/tools/todo"
	"github.com/Spandan7724/songbird/internal/sessions"
	"github.com/Spandan7724/songbird/internal/telemetry"
	"github.com/Spandan7724/songbird/pkg/models"
)

const systemPrompt = `You are songbird, a terminal coding assistant. You read, search, create
and edit files in the user's project, run shell commands, and track work in a
todo list. Destructive file changes are previewed as a diff and applied only
after the user confirms. Use the available tools whenever a task calls for
inspecting or modifying the project; otherwise answer directly.`

// App wires the ambient stack (config, metrics, tracing, session
// store) shared across every CLI subcommand.
type App struct {
	Config    *config.Config
	Metrics   *metrics.Registry
	Discovery *agent.DiscoveryCache
	Tracer    *telemetry.Tracer
	Store     sessions.Store
	Logger    *slog.Logger
	Home      string
}

// NewApp loads configuration and builds the shared singletons every
// subcommand needs.
func NewApp() (*App, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg, err := config.Load("", logger)
	if err != nil {
		return nil, fmt.Errorf("cli: loading config: %w", err)
	}
	tracer, _ := telemetry.NewTracer("songbird")
	return &App{
		Config:    cfg,
		Metrics:   metrics.NewRegistry(),
		Discovery: agent.NewDiscoveryCache(),
		Tracer:    tracer,
		Store:     sessions.NewJSONLStore(home, logger),
		Logger:    logger,
		Home:      home,
	}, nil
}

// BuildProvider constructs the named provider, resolving credentials
// through a.Config (§4.6). apiBase overrides the provider's default
// endpoint when non-empty; only the ollama provider uses it, the other
// providers always talk to their fixed endpoints.
func (a *App) BuildProvider(ctx context.Context, name, model, apiBase string) (agent.LLMProvider, error) {
	if name == "" {
		name = a.Config.DefaultProvider()
	}
	if apiBase == "" {
		apiBase = a.Config.APIBase(name)
	}
	if model == "" {
		model = a.Config.DefaultModel(name)
	}

	switch name {
	case "openai":
		return providers.NewOpenAIProvider(a.Config.APIKey("openai"), model), nil
	case "anthropic":
		return providers.NewAnthropicProvider(a.Config.APIKey("anthropic"), model), nil
	case "google", "gemini":
		return providers.NewGoogleProvider(ctx, a.Config.APIKey("google"), model)
	case "openrouter":
		return providers.NewOpenRouterProvider(a.Config.APIKey("openrouter"), model), nil
	case "ollama":
		return providers.NewOllamaProvider(apiBase, model), nil
	default:
		return nil, fmt.Errorf("cli: unknown provider %q", name)
	}
}

// ChatOptions configures one `chat` invocation.
type ChatOptions struct {
	Provider    string
	Model       string
	ProviderURL string
	Continue    bool
	ResumeID    string
	AutoApply   bool
}

// RunChat drives the interactive REPL: one Orchestrator over one
// session, reading user turns from stdin until EOF or interrupt.
func (a *App) RunChat(ctx context.Context, opts ChatOptions) error {
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if err := a.Config.Watch(watchCtx.Done()); err != nil {
		a.Logger.Warn("config watch failed to start, live reload disabled", "error", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cli: resolving working directory: %w", err)
	}
	projectRoot := todo.FindProjectRoot(cwd)

	session, err := a.resolveSession(ctx, projectRoot, opts)
	if err != nil {
		return err
	}

	provider, err := a.BuildProvider(ctx, opts.Provider, opts.Model, opts.ProviderURL)
	if err != nil {
		return err
	}
	session.ProviderConfig = models.ProviderConfig{
		Provider:      provider.Name(),
		Model:         opts.Model,
		APIBase:       opts.ProviderURL,
		ResolvedModel: opts.Model,
	}

	registry := a.buildRegistry(projectRoot, session.ID)
	ui := NewTerminalUIPort(os.Stdin, os.Stdout)
	autoApply := opts.AutoApply || a.Config.AutoApply()
	gate := agent.NewConfirmationGate(ui, autoApply)

	loopCfg := agent.DefaultLoopConfig()
	loopCfg.Logger = a.Logger
	loopCfg.AutoApply = autoApply
	loopCfg.FastMode = a.Config.FastMode()

	orch := agent.NewOrchestrator(provider, registry, gate, loopCfg, systemPrompt, a.Tracer, a.Metrics)

	// cancelTurn is swapped in before every orch.Run call so the
	// double-tap interrupt gate (armed once, for the process lifetime
	// of this REPL) always cancels whichever turn is currently in
	// flight rather than a stale one (§4.5).
	var turnMu sync.Mutex
	var cancelTurn context.CancelFunc = func() {}
	ui.OnInterrupt(func() {
		turnMu.Lock()
		cancel := cancelTurn
		turnMu.Unlock()
		cancel()
	})
	ui.WatchInterrupts(watchCtx, func() {
		fmt.Fprintln(os.Stderr, "\nsongbird: second interrupt, exiting")
		os.Exit(130)
	})

	fmt.Printf("songbird: %s (%s) — project %s\n", provider.Name(), session.ID, projectRoot)
	fmt.Println("Type your request, or press Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		turnCtx, cancel := context.WithCancel(ctx)
		turnMu.Lock()
		cancelTurn = cancel
		turnMu.Unlock()

		runErr := orch.Run(turnCtx, session, line, func(m models.Message) {
			if m.Role == models.RoleAssistant && m.Content != "" {
				fmt.Println(m.Content)
			}
			if err := a.Store.SaveSession(ctx, session); err != nil {
				a.Logger.Warn("session save failed", "error", err)
			}
		})
		cancel()

		switch {
		case errors.Is(runErr, agent.ErrCanceled):
			fmt.Println("songbird: turn interrupted, back to idle")
		case runErr != nil:
			fmt.Fprintf(os.Stderr, "songbird: %v\n", runErr)
		}
	}
	return nil
}

func (a *App) resolveSession(ctx context.Context, projectRoot string, opts ChatOptions) (*models.Session, error) {
	if opts.ResumeID != "" {
		return a.Store.LoadSession(ctx, opts.ResumeID)
	}
	if opts.Continue {
		stub, err := a.Store.LatestSession(ctx, projectRoot)
		if err == nil && stub != nil {
			return a.Store.LoadSession(ctx, stub.ID)
		}
	}
	return a.Store.CreateSession(ctx, projectRoot)
}

func (a *App) buildRegistry(projectRoot, sessionID string) *agent.ToolRegistry {
	registry := agent.NewToolRegistry()
	resolver := files.Resolver{Root: projectRoot}
	todoStore := todo.NewStore(sessions.TodosPath(a.Home, projectRoot))

	toolList := []agent.Tool{
		files.NewReadTool(resolver),
		files.NewCreateTool(resolver),
		files.NewEditTool(resolver, false),
		files.NewMultiEditTool(resolver),
		files.NewLSTool(resolver),
		files.NewSearchTool(resolver),
		files.NewGlobTool(resolver),
		files.NewGrepTool(resolver),
		exectool.NewTool(projectRoot),
		todo.NewReadTool(todoStore),
		todo.NewWriteTool(todoStore, sessionID),
	}
	for _, t := range toolList {
		if err := registry.Register(t); err != nil {
			a.Logger.Error("failed to register tool", "tool", t.Name(), "error", err)
		}
	}
	return registry
}

// ListProviders reports every provider with a resolvable credential,
// each annotated with its discovered model list (best-effort; a
// provider that fails discovery is still listed, with an empty list).
func (a *App) ListProviders(ctx context.Context) (map[string][]models.DiscoveredModel, error) {
	out := make(map[string][]models.DiscoveredModel)
	for _, name := range a.Config.AvailableProviders() {
		provider, err := a.BuildProvider(ctx, name, "", "")
		if err != nil {
			continue
		}
		discovered, _ := a.Discovery.Discover(ctx, provider)
		out[name] = discovered
	}
	return out, nil
}

// NewSessionID is a small helper for callers that need to stamp a
// fresh session id outside the normal CreateSession path (tests).
func NewSessionID() string { return uuid.NewString() }
