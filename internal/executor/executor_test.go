package executor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/interfaces"
	"github.com/artpar/httphub/internal/testserver"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcRequester adapts a function to interfaces.Requester.
type funcRequester func(ctx context.Context, req *core.PreparedRequest) (*core.Response, error)

func (f funcRequester) Send(ctx context.Context, req *core.PreparedRequest) (*core.Response, error) {
	return f(ctx, req)
}

func (f funcRequester) Protocol() string { return "fake" }

type memRecorder struct {
	mu    sync.Mutex
	execs []interfaces.Execution
}

func (r *memRecorder) Record(ctx context.Context, exec interfaces.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, exec)
	return nil
}

func okResponse(body string) *core.Response {
	return core.NewResponse(core.NewStatus(200, "200 OK")).
		WithBody(core.NewRawBody([]byte(body), "text/plain"))
}

func TestExecutor_Prepare(t *testing.T) {
	exec := New()

	t.Run("composes query params", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL("https://x.test/a")
		d.AddParam("q", "1")

		req, err := exec.Prepare(d)
		require.NoError(t, err)
		assert.Equal(t, core.MethodGet, req.Method)
		assert.Equal(t, "https://x.test/a?q=1", req.URL)
		assert.True(t, req.Body.IsEmpty())
	})

	t.Run("api key in query after params", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL("https://x.test/a")
		d.AddParam("api_key", "from-params")
		d.SetAuth(core.APIKeyAuth{Key: "api_key", Value: "abc", Location: core.APIKeyInQuery})

		req, err := exec.Prepare(d)
		require.NoError(t, err)
		assert.Equal(t, "https://x.test/a?api_key=abc", req.URL)
	})

	t.Run("auth header wins over user header", func(t *testing.T) {
		d := core.NewDraft()
		d.SetMethod(core.MethodPost)
		d.SetURL("https://x.test/a")
		d.AddHeader("Authorization", "Basic old")
		d.SetRawBody(`{"a":1}`)
		d.SetAuth(core.BearerAuth{Token: "tok"})

		req, err := exec.Prepare(d)
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok", req.Headers.Get("Authorization"))
		assert.Equal(t, "application/json", req.Headers.Get("Content-Type"))
		assert.Equal(t, `{"a":1}`, req.Body.String())
	})

	t.Run("validation errors", func(t *testing.T) {
		d := core.NewDraft()
		_, err := exec.Prepare(d)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "url", vErr.Field)

		d.SetURL("https://x.test")
		d.SetMethod("")
		_, err = exec.Prepare(d)
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "method", vErr.Field)

		d.SetMethod("BREW")
		_, err = exec.Prepare(d)
		assert.True(t, errors.As(err, &vErr))

		_, err = exec.Prepare(nil)
		assert.Error(t, err)
	})

	t.Run("relative url is invalid", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL("/just/a/path")
		_, err := exec.Prepare(d)
		var urlErr *core.InvalidURLError
		assert.True(t, errors.As(err, &urlErr))
	})

	t.Run("does not mutate the draft", func(t *testing.T) {
		d := core.NewDraft()
		d.SetMethod(core.MethodPut)
		d.SetURL("https://x.test/a")
		d.AddHeader("X-A", "1")
		d.AddParam("p", "2")
		d.SetAuth(core.BasicAuth{Username: "u", Password: "p"})
		before := d.Clone()

		_, err := exec.Prepare(d)
		require.NoError(t, err)
		assert.Equal(t, before, d)
	})
}

func TestExecutor_Execute(t *testing.T) {
	h := testserver.Handlers{}
	server := testserver.New(map[string]http.HandlerFunc{
		"/echo":    h.Echo(),
		"/missing": h.JSON(http.StatusNotFound, map[string]string{"error": "nope"}),
		"/slow":    h.Delayed(2*time.Second, http.StatusOK, "late"),
		"/headers": h.Headers(http.StatusOK, map[string][]string{
			"X-Zeta":     {"z"},
			"Set-Cookie": {"a=1", "b=2"},
			"X-Alpha":    {"a"},
		}),
	})
	defer server.Close()

	t.Run("success returns status headers and body", func(t *testing.T) {
		d := core.NewDraft()
		d.SetMethod(core.MethodPost)
		d.SetURL(server.URL + "/echo")
		d.AddParam("q", "1")
		d.SetRawBody(`{"hello":"world"}`)

		view := New().Execute(context.Background(), d)
		require.False(t, view.Failed(), view.Error)
		assert.False(t, view.Loading)
		assert.Equal(t, 200, view.Status)
		assert.Equal(t, "200 OK", view.StatusText)

		var echoed struct {
			Method  string              `json:"method"`
			Query   map[string][]string `json:"query"`
			Headers map[string][]string `json:"headers"`
			Body    string              `json:"body"`
		}
		require.NoError(t, json.Unmarshal([]byte(view.BodyText), &echoed))
		assert.Equal(t, "POST", echoed.Method)
		assert.Equal(t, []string{"1"}, echoed.Query["q"])
		assert.Equal(t, []string{"application/json"}, echoed.Headers["Content-Type"])
		assert.Equal(t, `{"hello":"world"}`, echoed.Body)

		last := server.LastRequest()
		require.NotNil(t, last)
		assert.Equal(t, "/echo", last.Path)
	})

	t.Run("non-2xx is a response, not an error", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL(server.URL + "/missing")

		view := New().Execute(context.Background(), d)
		assert.False(t, view.Failed())
		assert.Equal(t, 404, view.Status)
		assert.Contains(t, view.BodyText, "nope")
	})

	t.Run("headers are sorted with duplicates kept", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL(server.URL + "/headers")

		view := New().Execute(context.Background(), d)
		require.False(t, view.Failed())

		var keys []string
		var cookies []string
		for _, kv := range view.Headers {
			keys = append(keys, kv.Key)
			if kv.Key == "Set-Cookie" {
				cookies = append(cookies, kv.Value)
			}
		}
		assert.IsNonDecreasing(t, keys)
		assert.Equal(t, []string{"a=1", "b=2"}, cookies)
	})

	t.Run("timeout yields message and stops loading", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL(server.URL + "/slow")

		start := time.Now()
		view := New(WithTimeout(50 * time.Millisecond)).Execute(context.Background(), d)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, core.MsgCancelledOrTimedOut, view.Error)
		assert.False(t, view.Loading)
		assert.Zero(t, view.Status)
		assert.Empty(t, view.Headers)
		assert.Empty(t, view.BodyText)
	})

	t.Run("network failure carries the underlying message", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL("http://127.0.0.1:1/unreachable")

		view := New().Execute(context.Background(), d)
		require.True(t, view.Failed())
		assert.NotEqual(t, core.MsgCancelledOrTimedOut, view.Error)
		assert.Zero(t, view.Status)
	})

	t.Run("validation error never reaches the network", func(t *testing.T) {
		calls := 0
		requester := funcRequester(func(ctx context.Context, req *core.PreparedRequest) (*core.Response, error) {
			calls++
			return okResponse(""), nil
		})

		view := New(WithRequester(requester)).Execute(context.Background(), core.NewDraft())
		assert.True(t, view.Failed())
		assert.True(t, strings.HasPrefix(view.Error, "invalid request"))
		assert.Zero(t, calls)
	})
}

func TestExecutor_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 20*time.Second, New().Timeout())
	assert.Equal(t, 20*time.Second, New(WithTimeout(0)).Timeout())
	assert.Equal(t, time.Second, New(WithTimeout(time.Second)).Timeout())
}

func TestExecutor_Recorder(t *testing.T) {
	rec := &memRecorder{}
	requester := funcRequester(func(ctx context.Context, req *core.PreparedRequest) (*core.Response, error) {
		return okResponse("hi"), nil
	})
	exec := New(WithRequester(requester), WithRecorder(rec))

	d := core.NewDraft()
	d.SetURL("https://x.test/a")
	exec.Execute(context.Background(), d)
	exec.Execute(context.Background(), core.NewDraft())

	require.Len(t, rec.execs, 2)
	assert.Equal(t, "https://x.test/a", rec.execs[0].Request.URL)
	assert.Equal(t, "hi", rec.execs[0].Response.BodyText)
	assert.NotSame(t, d, rec.execs[0].Draft)
	assert.Nil(t, rec.execs[1].Request)
	assert.True(t, rec.execs[1].Response.Failed())
}
