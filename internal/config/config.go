// Package config resolves provider credentials and runtime flags from
// ~/.songbird/config.yaml and the environment (§4.6), and watches the
// config file for live edits.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// envKeys maps a provider name to the environment variables that carry
// its API key, in priority order (GEMINI_API_KEY is tried before the
// more generic GOOGLE_API_KEY, matching songbird/config.py).
var envKeys = map[string][]string{
	"openai":     {"OPENAI_API_KEY"},
	"anthropic":  {"ANTHROPIC_API_KEY"},
	"google":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openrouter": {"OPENROUTER_API_KEY"},
	"ollama":     {}, // local daemon, no key
}

// ProviderConfig is one provider's resolved settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	APIBase string `yaml:"api_base,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// File is the on-disk shape of ~/.songbird/config.yaml.
type File struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	AutoApply       bool                      `yaml:"auto_apply,omitempty"`
	FastMode        bool                      `yaml:"fast_mode,omitempty"`
}

// Config is the resolved runtime configuration: the loaded file merged
// with environment overrides, kept live-reloadable via fsnotify.
type Config struct {
	mu   sync.RWMutex
	file File
	path string
	log  *slog.Logger
}

// DefaultPath returns "~/.songbird/config.yaml".
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".songbird", "config.yaml")
}

// Load reads path (DefaultPath() when empty); a missing file is not an
// error, it just yields an empty Config relying entirely on env vars.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Config{path: path, log: logger}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) reload() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		c.mu.Lock()
		c.file = File{}
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", c.path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parsing %s: %w", c.path, err)
	}
	c.mu.Lock()
	c.file = f
	c.mu.Unlock()
	return nil
}

// Watch starts an fsnotify watcher on the config file's directory and
// reloads on any write/create event touching it. The watcher stops
// when ctxDone is closed.
func (c *Config) Watch(ctxDone <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: starting watcher: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return fmt.Errorf("config: preparing config dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watching %s: %w", dir, err)
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctxDone:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(c.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if err := c.reload(); err != nil {
						c.log.Warn("config: reload failed", "error", err)
					} else {
						c.log.Debug("config: reloaded", "path", c.path)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Warn("config: watcher error", "error", err)
			}
		}
	}()
	return nil
}

// APIKey resolves provider's API key: the config file's providers.<p>.api_key
// takes precedence, falling back to the provider's environment variables
// in priority order.
func (c *Config) APIKey(provider string) string {
	c.mu.RLock()
	pc, ok := c.file.Providers[provider]
	c.mu.RUnlock()
	if ok && pc.APIKey != "" {
		return pc.APIKey
	}
	for _, key := range envKeys[provider] {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// APIBase resolves provider's base URL override, if any.
func (c *Config) APIBase(provider string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.Providers[provider].APIBase
}

// DefaultModel resolves provider's configured default model.
func (c *Config) DefaultModel(provider string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.Providers[provider].Model
}

// DefaultProvider returns the configured default provider, "openai"
// when unset.
func (c *Config) DefaultProvider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.file.DefaultProvider != "" {
		return c.file.DefaultProvider
	}
	return "openai"
}

// AutoApply reports whether destructive tool changes should be applied
// without confirmation: the config file's auto_apply, or the
// SONGBIRD_AUTO_APPLY=y environment flag.
func (c *Config) AutoApply() bool {
	if v := os.Getenv("SONGBIRD_AUTO_APPLY"); v == "y" || v == "1" || v == "true" {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.AutoApply
}

// FastMode reports whether fast mode is on: the config file's
// fast_mode, or SONGBIRD_FAST_MODE=y. The chat loop then runs without
// tracing; no other feature is switched off by it.
func (c *Config) FastMode() bool {
	if v := os.Getenv("SONGBIRD_FAST_MODE"); v == "y" || v == "1" || v == "true" {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.file.FastMode
}

// AvailableProviders returns the providers with a resolvable API key,
// "ollama" always included since it needs none.
func (c *Config) AvailableProviders() []string {
	var out []string
	for p := range envKeys {
		if p == "ollama" || c.APIKey(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
