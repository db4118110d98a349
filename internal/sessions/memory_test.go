package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spandan7724/songbird/pkg/models"
)

func TestMemoryStoreCreateAndLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "/tmp/project")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	loaded, err := store.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "/tmp/project", loaded.ProjectRoot)
}

func TestMemoryStoreLoadMissingReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.LoadSession(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSaveSessionClonesMessages(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "/tmp/project")
	require.NoError(t, err)

	sess.Messages = append(sess.Messages, models.Message{ID: "m1", Role: models.RoleUser, Content: "hi"})
	require.NoError(t, store.SaveSession(ctx, sess))

	// Mutating the caller's slice after save must not affect the stored copy.
	sess.Messages[0].Content = "mutated"

	loaded, err := store.LoadSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "hi", loaded.Messages[0].Content)
}

func TestMemoryStoreListSessionsFiltersByProject(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, err := store.CreateSession(ctx, "/tmp/a")
	require.NoError(t, err)
	b, err := store.CreateSession(ctx, "/tmp/b")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, a))
	require.NoError(t, store.SaveSession(ctx, b))

	stubs, err := store.ListSessions(ctx, "/tmp/a")
	require.NoError(t, err)
	require.Len(t, stubs, 1)
	assert.Equal(t, a.ID, stubs[0].ID)
}

func TestMemoryStoreLatestSessionReturnsMostRecentlyUpdated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older, err := store.CreateSession(ctx, "/tmp/project")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, older))

	time.Sleep(time.Millisecond)
	newer, err := store.CreateSession(ctx, "/tmp/project")
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, newer))

	latest, err := store.LatestSession(ctx, "/tmp/project")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)
}

func TestMemoryStoreLatestSessionOnEmptyProjectReturnsNil(t *testing.T) {
	store := NewMemoryStore()
	latest, err := store.LatestSession(context.Background(), "/tmp/no-sessions")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
