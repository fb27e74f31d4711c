// Package storetest runs the shared contract tests for server.Store
// implementations.
package storetest

import (
	"context"
	"testing"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// missingID is a well-formed object id that no store hands out.
const missingID = "000000000000000000000001"

// RunStoreTests exercises a store built fresh by newStore for each group.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) server.Store) {
	t.Run("Users", func(t *testing.T) {
		testUsers(t, newStore(t))
	})
	t.Run("Collections", func(t *testing.T) {
		testCollections(t, newStore(t))
	})
	t.Run("Requests", func(t *testing.T) {
		testRequests(t, newStore(t))
	})
}

func testUsers(t *testing.T, store server.Store) {
	ctx := context.Background()

	alice, err := store.CreateUser(ctx, server.UserRecord{Name: "alice", OrgName: "acme", PasswordHash: "h1"})
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	_, err = store.CreateUser(ctx, server.UserRecord{Name: "alice", OrgName: "acme", PasswordHash: "h2"})
	assert.ErrorIs(t, err, server.ErrConflict)

	bob, err := store.CreateUser(ctx, server.UserRecord{Name: "bob", OrgName: "globex", PasswordHash: "h3"})
	require.NoError(t, err)

	t.Run("find by name or org", func(t *testing.T) {
		got, err := store.FindUserByLogin(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, "h1", got.PasswordHash)

		got, err = store.FindUserByLogin(ctx, "globex")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)

		_, err = store.FindUserByLogin(ctx, "nobody")
		assert.ErrorIs(t, err, server.ErrNotFound)
	})

	t.Run("get", func(t *testing.T) {
		got, err := store.GetUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Name)

		_, err = store.GetUser(ctx, missingID)
		assert.ErrorIs(t, err, server.ErrNotFound)
		_, err = store.GetUser(ctx, "nope")
		assert.ErrorIs(t, err, server.ErrInvalidID)
	})

	t.Run("update", func(t *testing.T) {
		got, err := store.UpdateUser(ctx, server.UserRecord{ID: bob.ID, Name: "robert", OrgName: "globex"})
		require.NoError(t, err)
		assert.Equal(t, "robert", got.Name)
		assert.Equal(t, "h3", got.PasswordHash, "empty hash keeps the password")

		got, err = store.UpdateUser(ctx, server.UserRecord{ID: bob.ID, Name: "robert", OrgName: "globex", PasswordHash: "h4"})
		require.NoError(t, err)
		assert.Equal(t, "h4", got.PasswordHash)

		_, err = store.UpdateUser(ctx, server.UserRecord{ID: bob.ID, Name: "alice", OrgName: "acme"})
		assert.ErrorIs(t, err, server.ErrConflict)

		_, err = store.UpdateUser(ctx, server.UserRecord{ID: missingID, Name: "x", OrgName: "y"})
		assert.ErrorIs(t, err, server.ErrNotFound)
	})
}

func testCollections(t *testing.T, store server.Store) {
	ctx := context.Background()
	owner, err := store.CreateUser(ctx, server.UserRecord{Name: "owner", OrgName: "org", PasswordHash: "h"})
	require.NoError(t, err)

	first, err := store.CreateCollection(ctx, hub.Collection{Name: "Users API", Description: "d1", CreatedBy: owner.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.Requests)
	assert.Equal(t, owner.ID, first.CreatedBy)

	second, err := store.CreateCollection(ctx, hub.Collection{Name: "Billing", Description: "d2", CreatedBy: owner.ID})
	require.NoError(t, err)

	t.Run("list by owner", func(t *testing.T) {
		list, err := store.ListCollections(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)

		list, err = store.ListCollections(ctx, missingID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("rename", func(t *testing.T) {
		got, err := store.RenameCollection(ctx, first.ID, "Accounts", "renamed")
		require.NoError(t, err)
		assert.Equal(t, "Accounts", got.Name)
		assert.Equal(t, "renamed", got.Description)

		_, err = store.RenameCollection(ctx, missingID, "a", "b")
		assert.ErrorIs(t, err, server.ErrNotFound)
	})

	t.Run("delete cascades to requests", func(t *testing.T) {
		req, err := store.CreateRequest(ctx, sampleRequest(second.ID))
		require.NoError(t, err)

		require.NoError(t, store.DeleteCollection(ctx, second.ID))
		_, err = store.GetCollection(ctx, second.ID)
		assert.ErrorIs(t, err, server.ErrNotFound)
		_, err = store.GetRequest(ctx, req.ID)
		assert.ErrorIs(t, err, server.ErrNotFound)

		assert.ErrorIs(t, store.DeleteCollection(ctx, second.ID), server.ErrNotFound)
	})
}

func testRequests(t *testing.T, store server.Store) {
	ctx := context.Background()
	owner, err := store.CreateUser(ctx, server.UserRecord{Name: "owner", OrgName: "org", PasswordHash: "h"})
	require.NoError(t, err)
	coll, err := store.CreateCollection(ctx, hub.Collection{Name: "c", Description: "d", CreatedBy: owner.ID})
	require.NoError(t, err)

	created, err := store.CreateRequest(ctx, sampleRequest(coll.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, coll.ID, created.Collection)

	t.Run("create links collection", func(t *testing.T) {
		got, err := store.GetCollection(ctx, coll.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{created.ID}, got.Requests)

		_, err = store.CreateRequest(ctx, sampleRequest(missingID))
		assert.ErrorIs(t, err, server.ErrNotFound)
	})

	t.Run("get keeps every section", func(t *testing.T) {
		got, err := store.GetRequest(ctx, created.ID)
		require.NoError(t, err)
		want := sampleRequest(coll.ID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Headers, got.Headers)
		assert.Equal(t, want.QueryParams, got.QueryParams)
		assert.Equal(t, want.Body, got.Body)
		assert.Equal(t, want.Auth, got.Auth)
	})

	t.Run("list by collection", func(t *testing.T) {
		list, err := store.ListRequests(ctx, coll.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	t.Run("partial update", func(t *testing.T) {
		url := "https://api.example.com/v2/users"
		got, err := store.UpdateRequest(ctx, created.ID, hub.RequestPatch{URL: &url})
		require.NoError(t, err)
		assert.Equal(t, url, got.URL)
		assert.Equal(t, "List users", got.Name)
		assert.Equal(t, sampleRequest(coll.ID).Headers, got.Headers)

		_, err = store.UpdateRequest(ctx, missingID, hub.RequestPatch{URL: &url})
		assert.ErrorIs(t, err, server.ErrNotFound)
	})

	t.Run("delete unlinks collection", func(t *testing.T) {
		require.NoError(t, store.DeleteRequest(ctx, created.ID))
		got, err := store.GetCollection(ctx, coll.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Requests)

		assert.ErrorIs(t, store.DeleteRequest(ctx, created.ID), server.ErrNotFound)
		assert.ErrorIs(t, store.DeleteRequest(ctx, "bad"), server.ErrInvalidID)
	})
}

func sampleRequest(collectionID string) hub.SavedRequest {
	return hub.SavedRequest{
		Name:        "List users",
		Method:      "GET",
		URL:         "https://api.example.com/users",
		Headers:     []core.KeyValue{{Key: "Accept", Value: "application/json"}},
		QueryParams: []core.KeyValue{{Key: "page", Value: "1"}},
		Body: hub.RequestBody{
			Mode:     hub.BodyModeRaw,
			Raw:      `{"a":1}`,
			RawType:  "json",
			FormData: []hub.FormField{{Key: "f", Value: "v", Type: "text"}},
		},
		Auth: hub.RequestAuth{
			Type:   "bearer",
			Bearer: &hub.TokenCredentials{Token: "tok"},
		},
		Collection: collectionID,
	}
}
