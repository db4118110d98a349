package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spandan7724/songbird/pkg/models"
)

// MemoryStore is an in-process Store used by tests and by callers that
// don't need durability across process restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (m *MemoryStore) CreateSession(_ context.Context, projectRoot string) (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ID:          uuid.NewString(),
		ProjectRoot: projectRoot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = cloneSession(sess)
	m.mu.Unlock()
	return sess, nil
}

func (m *MemoryStore) LoadSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(sess), nil
}

func (m *MemoryStore) SaveSession(_ context.Context, sess *models.Session) error {
	sess.UpdatedAt = time.Now()
	m.mu.Lock()
	m.sessions[sess.ID] = cloneSession(sess)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListSessions(_ context.Context, projectRoot string) ([]models.SessionStub, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stubs := make([]models.SessionStub, 0)
	for _, s := range m.sessions {
		if s.ProjectRoot != projectRoot {
			continue
		}
		stubs = append(stubs, models.SessionStub{
			ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
			Summary: s.Summary, NMessages: len(s.Messages),
		})
	}
	sort.Slice(stubs, func(i, j int) bool { return stubs[i].UpdatedAt.After(stubs[j].UpdatedAt) })
	return stubs, nil
}

func (m *MemoryStore) LatestSession(ctx context.Context, projectRoot string) (*models.SessionStub, error) {
	stubs, err := m.ListSessions(ctx, projectRoot)
	if err != nil || len(stubs) == 0 {
		return nil, err
	}
	return &stubs[0], nil
}

func cloneSession(s *models.Session) *models.Session {
	clone := *s
	clone.Messages = append([]models.Message(nil), s.Messages...)
	return &clone
}
