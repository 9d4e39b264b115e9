package storage

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "main/status", SnapshotKey("main", "status", nil))
	assert.Equal(t, "main/builds?project=a&result=FAILURE", SnapshotKey("main", "builds", url.Values{
		"result":  {"FAILURE"},
		"project": {"a"},
	}))
}

func TestSnapshotStore_PutAndGet(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t), 10)
	fetched := time.Now().UTC().Truncate(time.Second)

	snapshot := Snapshot{
		Key:       SnapshotKey("main", "status", nil),
		Tenant:    "main",
		Resource:  "status",
		Body:      []byte(`{"pipelines":[]}`),
		FetchedAt: fetched,
	}
	require.NoError(t, store.Put(snapshot))

	got, err := store.Get("main/status")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Body, got.Body)
	assert.Equal(t, "status", got.Resource)
	assert.True(t, fetched.Equal(got.FetchedAt))

	// Replaces the body in place.
	snapshot.Body = []byte(`{"pipelines":[{"name":"check"}]}`)
	snapshot.FetchedAt = fetched.Add(time.Minute)
	require.NoError(t, store.Put(snapshot))

	got, err = store.Get("main/status")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Body, got.Body)
	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSnapshotStore_GetNotFound(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t), 10)

	_, err := store.Get("main/nothing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSnapshotStore_Cleanup(t *testing.T) {
	store := NewSnapshotStore(newTestDB(t), 3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		resource := fmt.Sprintf("build/%d", i)
		require.NoError(t, store.Put(Snapshot{
			Key:       SnapshotKey("main", resource, nil),
			Tenant:    "main",
			Resource:  resource,
			Body:      []byte("{}"),
			FetchedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = store.Get("main/build/0")
	assert.ErrorIs(t, err, ErrNotFound)

	recent, err := store.Recent("main", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "build/4", recent[0].Resource)
	assert.Nil(t, recent[0].Body)

	other, err := store.Recent("other", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
