package hub_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/server"
	"github.com/artpar/httphub/internal/server/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newBackend(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)
	srv := server.New(server.DefaultConfig(), memstore.New(), server.WithPasswordCost(bcrypt.MinCost))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_Auth(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()
	client := hub.NewClient(ts.URL + "/")

	require.NoError(t, client.Ping(ctx))

	_, err := client.ListCollections(ctx, "x")
	assert.ErrorIs(t, err, hub.ErrNotAuthenticated)

	reg, err := client.Register(ctx, hub.Credentials{Name: "alice", OrgName: "acme", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", reg.User.Name)
	assert.Equal(t, reg.Token, client.Token())

	other := hub.NewClient(ts.URL)
	_, err = other.Login(ctx, "acme", "wrong")
	var apiErr *hub.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, other.Token())

	login, err := other.Login(ctx, "acme", "pw")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	edited, err := other.EditProfile(ctx, hub.Credentials{Name: "alicia", OrgName: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", edited.User.Name)
	assert.Equal(t, edited.Token, other.Token())
}

func TestClient_CollectionsAndRequests(t *testing.T) {
	ts := newBackend(t)
	ctx := context.Background()
	client := hub.NewClient(ts.URL)

	reg, err := client.Register(ctx, hub.Credentials{Name: "alice", OrgName: "acme", Password: "pw"})
	require.NoError(t, err)

	coll, err := client.CreateCollection(ctx, "Users", "user endpoints")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, coll.CreatedBy)

	list, err := client.ListCollections(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	renamed, err := client.RenameCollection(ctx, coll.ID, "Accounts", "renamed")
	require.NoError(t, err)
	assert.Equal(t, "Accounts", renamed.Name)

	d := core.NewDraft()
	d.SetName("Create user")
	d.SetMethod(core.MethodPost)
	d.SetURL("https://api.example.com/users")
	d.AddHeader("X-Trace", "1")
	d.SetRawBody(`{"name":"bob"}`)
	d.SetAuth(core.BearerAuth{Token: "tok"})

	saved := hub.SavedFromDraft(d)
	saved.Collection = coll.ID
	created, err := client.CreateRequest(ctx, saved)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := client.GetRequest(ctx, created.ID)
	require.NoError(t, err)
	loaded, err := hub.DraftFromSaved(got)
	require.NoError(t, err)
	assert.Equal(t, d.Method, loaded.Method)
	assert.Equal(t, d.URL, loaded.URL)
	assert.Equal(t, d.Headers, loaded.Headers)
	assert.Equal(t, d.RawBody, loaded.RawBody)
	assert.Equal(t, d.Auth, loaded.Auth)

	name := "Create admin"
	updated, err := client.UpdateRequest(ctx, created.ID, hub.RequestPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, d.URL, updated.URL)

	reqs, err := client.ListRequests(ctx, coll.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	require.NoError(t, client.DeleteRequest(ctx, created.ID))
	_, err = client.GetRequest(ctx, created.ID)
	var apiErr *hub.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	require.NoError(t, client.DeleteCollection(ctx, coll.ID))
	list, err = client.ListCollections(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_Unreachable(t *testing.T) {
	ts := newBackend(t)
	url := ts.URL
	ts.Close()

	err := hub.NewClient(url).Ping(context.Background())
	require.Error(t, err)
	var apiErr *hub.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestAPIError(t *testing.T) {
	assert.Equal(t, "server returned 500", (&hub.APIError{StatusCode: 500}).Error())
	assert.Equal(t, "server returned 404: Request not found", (&hub.APIError{StatusCode: 404, Message: "Request not found"}).Error())
}
