// Package sessions implements the persistent, append-only per-session
// transcript store (C3): one JSONL file per session under a
// project-scoped directory, plus the path helper for a project's todo
// file (the todo store itself lives in internal/tools/todo).
package sessions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Spandan7724/songbird/pkg/models"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound     = errors.New("session not found")
	ErrCorruptIndex = errors.New("session index is corrupt")
)

// Store is the persistence contract the orchestrator drives (§4.3).
type Store interface {
	CreateSession(ctx context.Context, projectRoot string) (*models.Session, error)
	LoadSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, projectRoot string) ([]models.SessionStub, error)
	LatestSession(ctx context.Context, projectRoot string) (*models.SessionStub, error)
	SaveSession(ctx context.Context, s *models.Session) error
}

// SanitizeProjectRoot replaces path separators with "-" and strips
// drive colons, matching the original songbird implementation's
// `project_path_str.replace(os.sep, "-").replace(":", "")` exactly, so
// a session directory name is stable and filesystem-safe on every
// platform.
func SanitizeProjectRoot(projectRoot string) string {
	s := filepath.Clean(projectRoot)
	s = strings.ReplaceAll(s, string(os.PathSeparator), "-")
	s = strings.ReplaceAll(s, ":", "")
	return s
}

// ProjectDir returns "<home>/.songbird/projects/<sanitized-root>".
func ProjectDir(home, projectRoot string) string {
	return filepath.Join(home, ".songbird", "projects", SanitizeProjectRoot(projectRoot))
}

// SessionsDir returns ProjectDir's "sessions" subdirectory.
func SessionsDir(home, projectRoot string) string {
	return filepath.Join(ProjectDir(home, projectRoot), "sessions")
}

// TodosPath returns ProjectDir's "todos.json" file.
func TodosPath(home, projectRoot string) string {
	return filepath.Join(ProjectDir(home, projectRoot), "todos.json")
}
