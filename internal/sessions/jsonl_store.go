package sessions

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spandan7724/songbird/pkg/models"
)

// record is one line of a session's JSONL file. Type "message" carries
// a full Message; type "meta" carries provider_config/summary updates.
// On load, records replay in order and later "meta" entries override
// earlier ones (§4.3).
type record struct {
	Type           string                `json:"type"`
	Message        *models.Message       `json:"message,omitempty"`
	ProviderConfig *models.ProviderConfig `json:"provider_config,omitempty"`
	Summary        *string               `json:"summary,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

// JSONLStore is the on-disk Store implementation described in §4.3:
// append-only per-session JSONL files under a project-scoped
// directory, plus an atomically-updated index for cheap listing.
type JSONLStore struct {
	home string
	log  *slog.Logger

	mu       sync.Mutex
	saved    map[string]int // sessionID -> number of messages already on disk
}

// NewJSONLStore builds a store rooted at home (typically os.UserHomeDir()).
func NewJSONLStore(home string, logger *slog.Logger) *JSONLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLStore{home: home, log: logger, saved: map[string]int{}}
}

func (s *JSONLStore) CreateSession(_ context.Context, projectRoot string) (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ID:          uuid.NewString(),
		ProjectRoot: projectRoot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return sess, nil
}

func (s *JSONLStore) sessionPath(projectRoot, id string) string {
	return filepath.Join(SessionsDir(s.home, projectRoot), id+".jsonl")
}

// LoadSession scans every project directory for id.jsonl, since a
// session's project root is not known from its id alone; callers that
// already know projectRoot should prefer LoadSessionIn.
func (s *JSONLStore) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	projectsDir := filepath.Join(s.home, ".songbird", "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", ErrNotFound)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(projectsDir, e.Name(), "sessions", id+".jsonl")
		if _, err := os.Stat(path); err == nil {
			return s.loadFromFile(path, id)
		}
	}
	return nil, fmt.Errorf("sessions: %w", ErrNotFound)
}

// LoadSessionIn loads id directly from projectRoot's sessions directory.
func (s *JSONLStore) LoadSessionIn(_ context.Context, projectRoot, id string) (*models.Session, error) {
	return s.loadFromFile(s.sessionPath(projectRoot, id), id)
}

func (s *JSONLStore) loadFromFile(path, id string) (*models.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", ErrNotFound)
	}
	defer f.Close()

	sess := &models.Session{ID: id}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			// StoreCorruption (§7): skip malformed lines, keep going
			// with a best-effort session.
			s.log.Warn("sessions: skipping malformed line", "session", id, "error", err)
			continue
		}
		switch rec.Type {
		case "message":
			if rec.Message != nil {
				sess.Messages = append(sess.Messages, *rec.Message)
				n++
			}
		case "meta":
			if rec.ProviderConfig != nil {
				sess.ProviderConfig = *rec.ProviderConfig
			}
			if rec.Summary != nil {
				sess.Summary = *rec.Summary
			}
		}
		if sess.CreatedAt.IsZero() || rec.Timestamp.Before(sess.CreatedAt) {
			if !rec.Timestamp.IsZero() {
				sess.CreatedAt = rec.Timestamp
			}
		}
		if rec.Timestamp.After(sess.UpdatedAt) {
			sess.UpdatedAt = rec.Timestamp
		}
	}
	s.mu.Lock()
	s.saved[id] = n
	s.mu.Unlock()
	return sess, nil
}

// SaveSession appends a record for each message not already flushed
// to disk, followed by one meta record, then atomically refreshes the
// project index. Saving with no new messages appends nothing (a changed
// summary or provider config alone is not written), satisfying §8
// invariant 3 (idempotent save).
func (s *JSONLStore) SaveSession(_ context.Context, sess *models.Session) error {
	dir := SessionsDir(s.home, sess.ProjectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sessions: creating session dir: %w", err)
	}
	path := filepath.Join(dir, sess.ID+".jsonl")

	s.mu.Lock()
	already := s.saved[sess.ID]
	s.mu.Unlock()

	if already < len(sess.Messages) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("sessions: opening session file: %w", err)
		}
		w := bufio.NewWriter(f)
		for _, m := range sess.Messages[already:] {
			msg := m
			ts := m.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			line, err := json.Marshal(record{Type: "message", Message: &msg, Timestamp: ts})
			if err != nil {
				f.Close()
				return fmt.Errorf("sessions: encoding message: %w", err)
			}
			if _, err := w.Write(append(line, '\n')); err != nil {
				f.Close()
				return fmt.Errorf("sessions: writing message: %w", err)
			}
		}
		metaLine, err := json.Marshal(record{
			Type:           "meta",
			ProviderConfig: &sess.ProviderConfig,
			Summary:        &sess.Summary,
			Timestamp:      time.Now(),
		})
		if err == nil {
			w.Write(append(metaLine, '\n'))
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("sessions: flushing session file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("sessions: closing session file: %w", err)
		}
		s.mu.Lock()
		s.saved[sess.ID] = len(sess.Messages)
		s.mu.Unlock()
	}

	sess.UpdatedAt = time.Now()
	return s.refreshIndex(sess.ProjectRoot)
}

// refreshIndex rebuilds the project's index.json via a temp-file +
// rename so concurrent ListSessions readers never observe a partial
// write (§4.3).
func (s *JSONLStore) refreshIndex(projectRoot string) error {
	dir := SessionsDir(s.home, projectRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	stubs := make([]models.SessionStub, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".jsonl")]
		sess, err := s.loadFromFile(filepath.Join(dir, e.Name()), id)
		if err != nil {
			continue
		}
		stubs = append(stubs, models.SessionStub{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			Summary:   sess.Summary,
			NMessages: len(sess.Messages),
		})
	}
	sort.Slice(stubs, func(i, j int) bool { return stubs[i].UpdatedAt.After(stubs[j].UpdatedAt) })

	data, err := json.MarshalIndent(stubs, "", "  ")
	if err != nil {
		return fmt.Errorf("sessions: encoding index: %w", err)
	}
	indexPath := filepath.Join(ProjectDir(s.home, projectRoot), "index.json")
	tmp := indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("sessions: writing index: %w", err)
	}
	return os.Rename(tmp, indexPath)
}

func (s *JSONLStore) ListSessions(_ context.Context, projectRoot string) ([]models.SessionStub, error) {
	indexPath := filepath.Join(ProjectDir(s.home, projectRoot), "index.json")
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, nil
	}
	var stubs []models.SessionStub
	if err := json.Unmarshal(data, &stubs); err != nil {
		return nil, fmt.Errorf("sessions: %w: %v", ErrCorruptIndex, err)
	}
	return stubs, nil
}

func (s *JSONLStore) LatestSession(ctx context.Context, projectRoot string) (*models.SessionStub, error) {
	stubs, err := s.ListSessions(ctx, projectRoot)
	if err != nil || len(stubs) == 0 {
		return nil, err
	}
	return &stubs[0], nil
}
