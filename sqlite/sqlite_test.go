package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "chatter.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func sampleSnapshot() chatter.Snapshot {
	ts := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	return chatter.Snapshot{
		ActiveID: "b",
		Sessions: []chatter.Session{
			{ID: "a", Title: "First", CreatedAt: ts, UpdatedAt: ts, Messages: []chatter.Message{
				{ID: "m1", Role: chatter.RoleUser, Content: "hello", CreatedAt: ts},
				{ID: "m2", Role: chatter.RoleResponder, Content: "hi", CreatedAt: ts},
			}},
			{ID: "b", Title: chatter.DefaultTitle, CreatedAt: ts, UpdatedAt: ts},
		},
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	_, err := s.Load()
	assert.ErrorIs(t, err, chatter.ErrNoSnapshot)
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	snap := sampleSnapshot()
	require.NoError(t, s.Save(snap))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	s, _ := openTestStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	next := sampleSnapshot()
	next.ActiveID = "a"
	next.Sessions = next.Sessions[:1]
	require.NoError(t, s.Save(next))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()

	s, path := openTestStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))
	require.NoError(t, s.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestStore_ChatterStoreIntegration(t *testing.T) {
	t.Parallel()

	p, _ := openTestStore(t)
	store := chatter.NewStore(chatter.WithPersister(p))
	first := store.ActiveID()
	require.NoError(t, store.AppendMessage(first, chatter.Message{Role: chatter.RoleUser, Content: "persist me"}))
	require.NoError(t, store.RenameSession(first, "Saved"))

	restored := chatter.NewStore(chatter.WithPersister(p))
	sess, err := restored.Active()
	require.NoError(t, err)
	assert.Equal(t, first, sess.ID)
	assert.Equal(t, "Saved", sess.Title)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "persist me", sess.Messages[0].Content)
}
