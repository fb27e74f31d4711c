package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method core.Method, url string) *core.PreparedRequest {
	return &core.PreparedRequest{
		Method:  method,
		URL:     url,
		Headers: core.NewHeaders(),
		Body:    core.NewEmptyBody(),
	}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with defaults", func(t *testing.T) {
		client := NewClient()
		assert.NotNil(t, client)
		assert.Equal(t, "http", client.Protocol())
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.True(t, client.config.FollowRedirect)
	})

	t.Run("creates client with custom timeout", func(t *testing.T) {
		client := NewClient(WithTimeout(5 * time.Second))
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
		assert.Equal(t, 5*time.Second, client.Timeout())
	})

	t.Run("creates client with custom transport", func(t *testing.T) {
		transport := &http.Transport{MaxIdleConns: 100}
		client := NewClient(WithTransport(transport))
		assert.Same(t, transport, client.httpClient.Transport)
	})
}

func TestClient_Send_GET(t *testing.T) {
	t.Run("sends GET request and receives response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/users", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page"))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"name":"John"}`)
		}))
		defer server.Close()

		resp, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, server.URL+"/users?page=2"))

		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status().Code())
		assert.Equal(t, "200 OK", resp.Status().Text())
		assert.Equal(t, "application/json", resp.Headers().Get("Content-Type"))
		assert.Equal(t, `{"name":"John"}`, resp.Body().String())
	})

	t.Run("sends request headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
			assert.Equal(t, []string{"a", "b"}, r.Header.Values("X-Multi"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		req := newRequest(core.MethodGet, server.URL)
		req.Headers.Set("Authorization", "Bearer token123")
		req.Headers.Add("X-Multi", "a")
		req.Headers.Add("X-Multi", "b")

		_, err := NewClient().Send(context.Background(), req)
		require.NoError(t, err)
	})
}

func TestClient_Send_WithBody(t *testing.T) {
	for _, method := range []core.Method{core.MethodPost, core.MethodPut, core.MethodPatch, core.MethodDelete} {
		t.Run(string(method), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, string(method), r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, `{"a":1}`, string(body))
				w.WriteHeader(http.StatusCreated)
			}))
			defer server.Close()

			req := newRequest(method, server.URL)
			req.Body = core.NewRawBody([]byte(`{"a":1}`), "application/json")

			resp, err := NewClient().Send(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, 201, resp.Status().Code())
		})
	}
}

func TestClient_Send_MultipartContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hello", r.FormValue("title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := core.NewDraft()
	d.SetMethod(core.MethodPost)
	d.SetBodyType(core.BodyFormData)
	d.AddFormField("title", "hello")

	headers := core.NewHeaders()
	headers.Set("Content-Type", "text/plain")
	body, headers, err := core.BuildBody(d, headers, nil)
	require.NoError(t, err)

	req := newRequest(core.MethodPost, server.URL)
	req.Headers = headers
	req.Body = body

	resp, err := NewClient().Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status().Code())
}

func TestClient_Send_HEADAndOPTIONS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, HEAD, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	for _, method := range []core.Method{core.MethodHead, core.MethodOptions} {
		resp, err := NewClient().Send(context.Background(), newRequest(method, server.URL))
		require.NoError(t, err)
		assert.Equal(t, 204, resp.Status().Code())
		assert.True(t, resp.Body().IsEmpty())
		assert.Equal(t, "GET, HEAD, OPTIONS", resp.Headers().Get("Allow"))
	}
}

func TestClient_Send_ErrorResponses(t *testing.T) {
	codes := []int{400, 401, 404, 500, 503}
	for _, code := range codes {
		t.Run(http.StatusText(code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
				io.WriteString(w, "nope")
			}))
			defer server.Close()

			resp, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, server.URL))
			require.NoError(t, err)
			assert.Equal(t, code, resp.Status().Code())
			assert.True(t, resp.Status().IsError())
			assert.Equal(t, "nope", resp.Body().String())
		})
	}
}

func TestClient_Send_NetworkErrors(t *testing.T) {
	t.Run("connection refused is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, url))
		require.Error(t, err)

		var netErr *core.NetworkError
		assert.True(t, errors.As(err, &netErr))
		assert.NotEqual(t, core.MsgCancelledOrTimedOut, err.Error())
	})

	t.Run("empty url fails validation", func(t *testing.T) {
		_, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, ""))
		assert.Error(t, err)
	})
}

func TestClient_Send_ContextCancellation(t *testing.T) {
	t.Run("deadline yields timeout error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(5 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := NewClient().Send(ctx, newRequest(core.MethodGet, server.URL+"/slow"))
		require.Error(t, err)

		var timeoutErr *core.TimeoutError
		assert.True(t, errors.As(err, &timeoutErr))
		assert.Equal(t, core.MsgCancelledOrTimedOut, err.Error())
	})

	t.Run("explicit cancel yields timeout error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewClient().Send(ctx, newRequest(core.MethodGet, "http://127.0.0.1:1/"))
		var timeoutErr *core.TimeoutError
		assert.True(t, errors.As(err, &timeoutErr))
	})
}

func TestClient_Send_Timing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, server.URL))
	require.NoError(t, err)

	timing := resp.Timing()
	assert.GreaterOrEqual(t, timing.Total, 10*time.Millisecond)
	assert.False(t, timing.EndTime.Before(timing.StartTime))
}

func TestClient_Send_LargeResponse(t *testing.T) {
	payload := strings.Repeat("x", 1<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, server.URL))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), resp.Body().Size())
}

func TestClient_Send_Redirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		io.WriteString(w, "landed")
	}))
	defer server.Close()

	t.Run("follows redirects by default", func(t *testing.T) {
		resp, err := NewClient().Send(context.Background(), newRequest(core.MethodGet, server.URL+"/old"))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status().Code())
		assert.Equal(t, "landed", resp.Body().String())
	})

	t.Run("stops at redirect when disabled", func(t *testing.T) {
		resp, err := NewClient(WithNoRedirects()).Send(context.Background(), newRequest(core.MethodGet, server.URL+"/old"))
		require.NoError(t, err)
		assert.Equal(t, 302, resp.Status().Code())
		assert.Equal(t, "/new", resp.Headers().Get("Location"))
	})
}

func TestClient_CookieJar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
			return
		}
		c, err := r.Cookie("sid")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, c.Value)
	}))
	defer server.Close()

	jar, err := NewCookieJar()
	require.NoError(t, err)
	client := NewClient(WithCookieJar(jar))

	_, err = client.Send(context.Background(), newRequest(core.MethodGet, server.URL+"/set"))
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), newRequest(core.MethodGet, server.URL+"/get"))
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Body().String())
}

func TestClient_DefaultHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeader("User-Agent", "httphub"))

	resp, err := client.Send(context.Background(), newRequest(core.MethodGet, server.URL))
	require.NoError(t, err)
	assert.Equal(t, "httphub", resp.Body().String())

	req := newRequest(core.MethodGet, server.URL)
	req.Headers.Set("User-Agent", "custom")
	resp, err = client.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "custom", resp.Body().String())
}
