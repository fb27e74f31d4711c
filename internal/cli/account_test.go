package cli

import (
	"path/filepath"
	"testing"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.startBackend()

	t.Run("whoami before login", func(t *testing.T) {
		_, err := h.run("whoami")
		assert.ErrorIs(t, err, hub.ErrNotAuthenticated)
	})

	t.Run("register logs in", func(t *testing.T) {
		out := h.mustRun("register", "--name", "ada", "--org", "acme", "--password", "secret")
		assert.Contains(t, out, "User registered successfully")

		out = h.mustRun("whoami")
		assert.Contains(t, out, "Name:   ada")
		assert.Contains(t, out, "Org:    acme")
		assert.Contains(t, out, "Server: "+h.serverURL)
	})

	t.Run("register requires flags", func(t *testing.T) {
		_, err := h.run("register", "--name", "bob")
		assert.Error(t, err)
	})

	t.Run("duplicate register is refused", func(t *testing.T) {
		_, err := h.run("register", "--name", "ada", "--org", "acme", "--password", "x")
		var apiErr *hub.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 409, apiErr.StatusCode)
	})

	t.Run("profile edit keeps unset fields", func(t *testing.T) {
		h.mustRun("profile", "edit", "--org", "newco")
		out := h.mustRun("whoami")
		assert.Contains(t, out, "Name:   ada")
		assert.Contains(t, out, "Org:    newco")
	})

	t.Run("logout and login", func(t *testing.T) {
		out := h.mustRun("logout")
		assert.Contains(t, out, "Logged out")
		_, err := h.run("whoami")
		assert.ErrorIs(t, err, hub.ErrNotAuthenticated)

		_, err = h.run("login", "--name", "ada", "--password", "wrong")
		var apiErr *hub.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 401, apiErr.StatusCode)

		h.mustRun("login", "--name", "newco", "--password", "secret")
		assert.Contains(t, h.mustRun("whoami"), "Name:   ada")
	})
}

func TestCollectionAndRequestCommands(t *testing.T) {
	target := newTarget(t)
	h := newCLIHarness(t)
	h.startBackend()
	h.mustRun("register", "--name", "ada", "--org", "acme", "--password", "secret")

	out := h.mustRun("collections", "create", "Users", "-d", "user endpoints")
	collectionID := createdID(t, out)

	t.Run("list collections", func(t *testing.T) {
		out := h.mustRun("collections", "list")
		assert.Contains(t, out, "Users")
		assert.Contains(t, out, "user endpoints")

		var collections []hub.Collection
		require.NoError(t, json.Unmarshal([]byte(h.mustRun("collections", "list", "--json")), &collections))
		require.Len(t, collections, 1)
		assert.Equal(t, collectionID, collections[0].ID)
	})

	t.Run("create requires a description", func(t *testing.T) {
		_, err := h.run("collections", "create", "Empty")
		assert.Error(t, err)
	})

	var requestID string

	t.Run("save a request", func(t *testing.T) {
		out := h.mustRun("requests", "save", collectionID, "GET", target.URL+"/echo",
			"--name", "Echo", "-H", "X-Saved: 1", "--bearer", "tok")
		requestID = createdID(t, out)

		out = h.mustRun("requests", "list", collectionID)
		assert.Contains(t, out, "Echo")
		assert.Contains(t, out, target.URL+"/echo")
	})

	t.Run("save names unnamed requests", func(t *testing.T) {
		out := h.mustRun("requests", "save", collectionID, "POST", target.URL+"/other")
		assert.Contains(t, out, "POST "+target.URL+"/other")
	})

	t.Run("get as draft", func(t *testing.T) {
		out := h.mustRun("requests", "get", requestID)
		assert.Contains(t, out, target.URL+"/echo")
		assert.Contains(t, out, "X-Saved")

		path := filepath.Join(t.TempDir(), "echo.yaml")
		h.mustRun("requests", "get", requestID, "-o", path)
		d, err := filesystem.ReadDraft(path)
		require.NoError(t, err)
		assert.Equal(t, "Echo", d.Name)
		assert.Equal(t, core.BearerAuth{Token: "tok"}, d.Auth)

		var saved hub.SavedRequest
		require.NoError(t, json.Unmarshal([]byte(h.mustRun("requests", "get", requestID, "--json")), &saved))
		assert.Equal(t, collectionID, saved.Collection)
	})

	t.Run("run a saved request", func(t *testing.T) {
		out := h.mustRun("requests", "run", requestID)
		assert.Contains(t, out, "200 OK")

		last := target.LastRequest()
		assert.Equal(t, "1", last.Headers.Get("X-Saved"))
		assert.Equal(t, "Bearer tok", last.Headers.Get("Authorization"))
	})

	t.Run("update applies flags on top", func(t *testing.T) {
		out := h.mustRun("requests", "update", requestID, "--name", "Echo v2", "-q", "v=2")
		assert.Contains(t, out, "Updated Echo v2")

		h.mustRun("requests", "run", requestID)
		last := target.LastRequest()
		assert.Equal(t, []string{"2"}, last.Query["v"])
		assert.Equal(t, "1", last.Headers.Get("X-Saved"))
	})

	t.Run("update from a draft file replaces", func(t *testing.T) {
		d := core.NewDraft()
		d.SetName("Replaced")
		d.SetMethod(core.MethodPatch)
		d.SetURL(target.URL + "/echo")
		path := filepath.Join(t.TempDir(), "draft.yaml")
		require.NoError(t, filesystem.WriteDraft(path, d))

		h.mustRun("requests", "update", requestID, "--file", path)
		h.mustRun("requests", "run", requestID)
		last := target.LastRequest()
		assert.Equal(t, "PATCH", last.Method)
		assert.Empty(t, last.Headers.Get("X-Saved"))
	})

	t.Run("delete request and collection", func(t *testing.T) {
		h.mustRun("requests", "delete", requestID)
		_, err := h.run("requests", "get", requestID)
		var apiErr *hub.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 404, apiErr.StatusCode)

		h.mustRun("collections", "rename", collectionID, "People", "-d", "renamed")
		assert.Contains(t, h.mustRun("collections", "list"), "People")

		h.mustRun("collections", "delete", collectionID)
		assert.Contains(t, h.mustRun("collections", "list"), "No collections")
	})

	t.Run("backend calls need a login", func(t *testing.T) {
		h.mustRun("logout")
		_, err := h.run("collections", "create", "X", "-d", "y")
		assert.ErrorIs(t, err, hub.ErrNotAuthenticated)
	})
}
