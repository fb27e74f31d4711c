package history

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store implementation.
func RunStoreTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("Add", func(t *testing.T) { runAddTests(t, newStore) })
	t.Run("Get", func(t *testing.T) { runGetTests(t, newStore) })
	t.Run("List", func(t *testing.T) { runListTests(t, newStore) })
	t.Run("Delete", func(t *testing.T) { runDeleteTests(t, newStore) })
	t.Run("Prune", func(t *testing.T) { runPruneTests(t, newStore) })
}

func addAll(t *testing.T, store Store, entries ...Entry) []string {
	t.Helper()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Method == "" {
			e.Method = "GET"
		}
		if e.URL == "" {
			e.URL = "https://api.example.com"
		}
		id, err := store.Add(context.Background(), e)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func runAddTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("round trips every field", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		entry := Entry{
			Timestamp:       time.Now(),
			Name:            "Create user",
			Method:          "POST",
			URL:             "https://api.example.com/users",
			RequestHeaders:  []core.KeyValue{{Key: "Content-Type", Value: "application/json"}},
			RequestBody:     `{"name":"John"}`,
			Auth:            "Bearer: abc",
			Status:          201,
			StatusText:      "201 Created",
			ResponseHeaders: []core.KeyValue{{Key: "Set-Cookie", Value: "a=1"}, {Key: "Set-Cookie", Value: "b=2"}},
			ResponseBody:    `{"id":1}`,
			DurationMs:      234,
			Size:            8,
		}

		id, err := store.Add(context.Background(), entry)
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		got, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.WithinDuration(t, entry.Timestamp, got.Timestamp, time.Millisecond)
		assert.Equal(t, entry.Name, got.Name)
		assert.Equal(t, entry.Method, got.Method)
		assert.Equal(t, entry.URL, got.URL)
		assert.Equal(t, entry.RequestHeaders, got.RequestHeaders)
		assert.Equal(t, entry.RequestBody, got.RequestBody)
		assert.Equal(t, entry.Auth, got.Auth)
		assert.Equal(t, entry.Status, got.Status)
		assert.Equal(t, entry.StatusText, got.StatusText)
		assert.Equal(t, entry.ResponseHeaders, got.ResponseHeaders)
		assert.Equal(t, entry.ResponseBody, got.ResponseBody)
		assert.Equal(t, entry.DurationMs, got.DurationMs)
		assert.Equal(t, entry.Size, got.Size)
		assert.False(t, got.Failed())
	})

	t.Run("keeps failures", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		ids := addAll(t, store, Entry{Timestamp: time.Now(), Error: core.MsgCancelledOrTimedOut})
		got, err := store.Get(context.Background(), ids[0])
		require.NoError(t, err)
		assert.True(t, got.Failed())
		assert.Zero(t, got.Status)
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		seen := make(map[string]bool)
		for i := 0; i < 10; i++ {
			ids := addAll(t, store, Entry{Timestamp: time.Now()})
			assert.False(t, seen[ids[0]], "Duplicate ID generated")
			seen[ids[0]] = true
		}
	})
}

func runGetTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("returns error for non-existent entry", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "non-existent-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns error for empty ID", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		_, err := store.Get(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func runListTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("empty store lists nothing", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		entries, err := store.List(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("filters by method", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		for _, m := range []string{"GET", "POST", "GET", "PUT", "GET"} {
			addAll(t, store, Entry{Timestamp: time.Now(), Method: m, Status: 200})
		}

		entries, err := store.List(context.Background(), QueryOptions{Method: "GET"})
		require.NoError(t, err)
		assert.Len(t, entries, 3)

		count, err := store.Count(context.Background(), QueryOptions{Method: "GET"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("filters by status range and failures", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		for _, status := range []int{200, 201, 400, 404, 500} {
			addAll(t, store, Entry{Timestamp: time.Now(), Status: status})
		}
		addAll(t, store, Entry{Timestamp: time.Now(), Error: "dial tcp: connection refused"})

		entries, err := store.List(context.Background(), QueryOptions{StatusMin: 400, StatusMax: 499})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		failed, err := store.List(context.Background(), QueryOptions{FailedOnly: true})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Contains(t, failed[0].Error, "refused")
	})

	t.Run("filters by time and url", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		addAll(t, store,
			Entry{Timestamp: now.Add(-48 * time.Hour), URL: "https://api.example.com/users"},
			Entry{Timestamp: now.Add(-1 * time.Hour), URL: "https://api.example.com/users/1"},
			Entry{Timestamp: now, URL: "https://api.example.com/posts"},
		)

		recent, err := store.List(context.Background(), QueryOptions{After: now.Add(-2 * time.Hour)})
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		users, err := store.List(context.Background(), QueryOptions{URLPattern: "%/users%"})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("searches bodies and names", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addAll(t, store,
			Entry{Timestamp: time.Now(), ResponseBody: `{"name":"John Doe"}`},
			Entry{Timestamp: time.Now(), Name: "Login as John"},
			Entry{Timestamp: time.Now(), ResponseBody: `{"title":"Hello"}`},
		)

		entries, err := store.List(context.Background(), QueryOptions{Search: "John"})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("newest first with pagination", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for i := 0; i < 10; i++ {
			addAll(t, store, Entry{Timestamp: now.Add(time.Duration(i) * time.Second), Status: 200 + i})
		}

		page1, err := store.List(context.Background(), QueryOptions{Limit: 3})
		require.NoError(t, err)
		require.Len(t, page1, 3)
		assert.Equal(t, 209, page1[0].Status)
		assert.True(t, page1[0].Timestamp.After(page1[1].Timestamp))

		page2, err := store.List(context.Background(), QueryOptions{Limit: 3, Offset: 3})
		require.NoError(t, err)
		require.Len(t, page2, 3)
		assert.Equal(t, 206, page2[0].Status)
	})
}

func runDeleteTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("deletes existing entry", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		ids := addAll(t, store, Entry{Timestamp: time.Now()})
		require.NoError(t, store.Delete(context.Background(), ids[0]))

		_, err := store.Get(context.Background(), ids[0])
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns error for non-existent entry", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		assert.ErrorIs(t, store.Delete(context.Background(), "non-existent"), ErrNotFound)
	})

	t.Run("clear removes all entries", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		for i := 0; i < 5; i++ {
			addAll(t, store, Entry{Timestamp: time.Now()})
		}
		require.NoError(t, store.Clear(context.Background()))

		count, err := store.Count(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func runPruneTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("prunes entries older than duration", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for _, ts := range []time.Time{now.Add(-48 * time.Hour), now.Add(-47 * time.Hour), now.Add(-12 * time.Hour), now} {
			addAll(t, store, Entry{Timestamp: ts})
		}

		result, err := store.Prune(context.Background(), PruneOptions{OlderThan: 24 * time.Hour})
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.DeletedCount)

		count, err := store.Count(context.Background(), QueryOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("prunes keeping last N entries", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		now := time.Now()
		for i := 0; i < 10; i++ {
			addAll(t, store, Entry{Timestamp: now.Add(time.Duration(i) * time.Second), Status: 200 + i})
		}

		result, err := store.Prune(context.Background(), PruneOptions{KeepLast: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(5), result.DeletedCount)

		remaining, err := store.List(context.Background(), QueryOptions{})
		require.NoError(t, err)
		require.Len(t, remaining, 5)
		assert.Equal(t, 205, remaining[4].Status)
	})

	t.Run("no options prunes nothing", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		addAll(t, store, Entry{Timestamp: time.Now()})
		result, err := store.Prune(context.Background(), PruneOptions{})
		require.NoError(t, err)
		assert.Zero(t, result.DeletedCount)
	})
}
