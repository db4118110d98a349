package todo

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spandan7724/songbird/pkg/models"
)

// highPriorityKeywords and lowPriorityKeywords ground smart_prioritize
// exactly on songbird/tools/todo_manager.py's keyword lists.
var highPriorityKeywords = []string{
	"urgent", "critical", "important", "fix", "bug", "error",
	"broken", "failing", "security", "deploy", "release",
}

var lowPriorityKeywords = []string{
	"cleanup", "refactor", "documentation", "docs", "comment",
	"optimize", "improve", "enhance", "consider", "maybe",
}

// SmartPrioritize infers a priority from content when the caller did
// not supply one, matching the Python original's keyword scan.
func SmartPrioritize(content string) models.TodoPriority {
	lower := strings.ToLower(content)
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			return models.PriorityHigh
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(lower, kw) {
			return models.PriorityLow
		}
	}
	return models.PriorityMedium
}

// FindProjectRoot returns the enclosing git toplevel, falling back to
// workingDir on any error (no repo, git not installed), exactly as
// songbird/tools/todo_manager.py's _find_project_root.
func FindProjectRoot(workingDir string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = workingDir
	out, err := cmd.Output()
	if err != nil {
		abs, aerr := filepath.Abs(workingDir)
		if aerr != nil {
			return workingDir
		}
		return abs
	}
	return strings.TrimSpace(string(out))
}

// Store persists a project's todos to a single JSON file, read-modify-
// write with last-writer-wins (§5): callers needing stronger semantics
// serialize through one orchestrator, as spec.md requires.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore builds a Store backed by path (typically
// sessions.TodosPath(home, projectRoot)).
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() ([]models.TodoItem, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("todo: reading store: %w", err)
	}
	var items []models.TodoItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil // corrupt store: best-effort empty list, matching the source's warn-and-continue
	}
	return items, nil
}

func (s *Store) save(items []models.TodoItem) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("todo: creating store dir: %w", err)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("todo: encoding store: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// List returns all todos, optionally filtered by status.
func (s *Store) List(status models.TodoStatus) ([]models.TodoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return items, nil
	}
	filtered := make([]models.TodoItem, 0, len(items))
	for _, it := range items {
		if it.Status == status {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// Upsert applies the §8 invariant 10 similarity rule: an entry with no
// ID is matched against existing todos by normalized-content Jaccard+
// subset similarity at SimilarityThreshold before being treated as
// new. Entries with an ID always update in place (or are dropped if
// the ID does not exist).
func (s *Store) Upsert(entries []models.TodoItem, sessionID string) ([]models.TodoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.ID != "" {
			idx := indexByID(items, entry.ID)
			if idx < 0 {
				continue
			}
			items[idx] = mergeTodo(items[idx], entry, now)
			continue
		}

		matchIdx := -1
		best := 0.0
		for i, existing := range items {
			score := Similarity(existing.Content, entry.Content)
			if score >= SimilarityThreshold && score > best {
				best = score
				matchIdx = i
			}
		}
		if matchIdx >= 0 {
			items[matchIdx] = mergeTodo(items[matchIdx], entry, now)
			continue
		}

		priority := entry.Priority
		if priority == "" {
			priority = SmartPrioritize(entry.Content)
		}
		status := entry.Status
		if status == "" {
			status = models.StatusPending
		}
		items = append(items, models.TodoItem{
			ID:        uuid.NewString(),
			Content:   entry.Content,
			Priority:  priority,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
			SessionID: sessionID,
		})
	}

	if err := s.save(items); err != nil {
		return nil, err
	}
	return items, nil
}

func mergeTodo(existing, update models.TodoItem, now time.Time) models.TodoItem {
	if update.Content != "" {
		existing.Content = update.Content
	}
	if update.Priority != "" {
		existing.Priority = update.Priority
	}
	if update.Status != "" {
		existing.Status = update.Status
	}
	existing.UpdatedAt = now
	return existing
}

func indexByID(items []models.TodoItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
