package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnqueueAssignsIDAndTimestamp(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Enqueue(Entry{Action: ActionAddPending, UserID: "u1", TaskID: "t1"}))

	entries, err := s.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, "t1", entries[0].TaskID)
}

func TestGetBatchOrderAndLimit(t *testing.T) {
	s := openStore(t)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Enqueue(Entry{
			Action:    ActionRemovePending,
			UserID:    "u1",
			TaskID:    string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.GetBatch(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].TaskID)
	assert.Equal(t, "b", entries[1].TaskID)
	assert.Equal(t, "c", entries[2].TaskID)
}

func TestRemove(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Enqueue(Entry{Action: ActionAddPending, UserID: "u1", TaskID: "t1"}))

	entries, err := s.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, s.Remove(entries[0]))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRemoveByIDWithoutKey(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Enqueue(Entry{ID: "fixed", Action: ActionAddPending, UserID: "u1", TaskID: "t1"}))

	require.NoError(t, s.Remove(Entry{ID: "fixed"}))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeueBumpsTimestamp(t *testing.T) {
	s := openStore(t)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, s.Enqueue(Entry{ID: "e1", Action: ActionAddPending, Timestamp: old}))

	entries, err := s.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, s.Remove(entries[0]))
	entries[0].Retries++
	require.NoError(t, s.Requeue(entries[0]))

	after, err := s.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "e1", after[0].ID)
	assert.Equal(t, 1, after[0].Retries)
	assert.True(t, after[0].Timestamp.After(old))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestCleanup(t *testing.T) {
	s := openStore(t)
	cutoff := time.Now()
	require.NoError(t, s.Enqueue(Entry{Action: ActionAddPending, Timestamp: cutoff.Add(-time.Hour)}))
	require.NoError(t, s.Enqueue(Entry{Action: ActionAddPending, Timestamp: cutoff.Add(time.Hour)}))

	require.NoError(t, s.Cleanup(cutoff))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestClosedStore(t *testing.T) {
	var s *Store
	assert.Error(t, s.Enqueue(Entry{}))
	_, err := s.GetBatch(1)
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
