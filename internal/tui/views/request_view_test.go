package views

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/executor"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/artpar/httphub/internal/tui"
	"github.com/artpar/httphub/internal/tui/vim"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRequester echoes the request line, or blocks on URLs containing
// "slow" until released or cancelled.
type stubRequester struct {
	release chan struct{}
	started chan string
}

func (s *stubRequester) Send(ctx context.Context, req *core.PreparedRequest) (*core.Response, error) {
	if s.started != nil {
		s.started <- req.URL
	}
	if strings.Contains(req.URL, "slow") {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, &core.TimeoutError{Err: ctx.Err()}
		}
	}
	body := string(req.Method) + " " + req.URL
	return core.NewResponse(core.NewStatus(200, "200 OK")).
		WithHeaders(core.HeadersFromPairs([]core.KeyValue{{Key: "Content-Type", Value: "text/plain"}})).
		WithBody(core.NewRawBody([]byte(body), "text/plain")), nil
}

func (s *stubRequester) Protocol() string { return "stub" }

func newView(t *testing.T, req *stubRequester, opts ...Option) *RequestView {
	t.Helper()
	if req == nil {
		req = &stubRequester{}
	}
	session := executor.NewSession(executor.New(executor.WithRequester(req)))
	v := NewRequestView(session, opts...)
	v.SetSize(100, 40)
	return v
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(v *RequestView, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = v.Update(key(k))
	}
	return cmd
}

// deliver runs a send command and feeds its result back to the view.
func deliver(t *testing.T, v *RequestView, cmd tea.Cmd) sendDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(sendDoneMsg)
	require.True(t, ok)
	v.Update(msg)
	return msg
}

func TestNewRequestView(t *testing.T) {
	t.Run("starts on an empty draft", func(t *testing.T) {
		v := newView(t, nil)
		assert.Equal(t, core.MethodGet, v.Draft().Method)
		assert.Equal(t, core.TabHeaders, v.Draft().ActiveTab)
		assert.Equal(t, PaneRequest, v.FocusedPane())
		assert.Equal(t, vim.ModeNormal, v.Mode())
		assert.Equal(t, "Request", v.Title())
	})

	t.Run("uses the supplied draft", func(t *testing.T) {
		d := core.NewDraft()
		d.SetURL("https://x.test")
		v := newView(t, nil, WithDraft(d))
		assert.Same(t, d, v.Draft())
	})

	t.Run("resizes panels", func(t *testing.T) {
		v := newView(t, nil)
		v.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
		assert.Equal(t, 120, v.Width())
		assert.Equal(t, 50, v.Height())
		assert.Equal(t, 120, v.RequestPanel().Width())
		assert.Equal(t, 48, v.RequestPanel().Height()+v.ResponsePanel().Height())
	})

	t.Run("renders", func(t *testing.T) {
		v := newView(t, nil)
		out := v.View()
		assert.Contains(t, out, "GET")
		assert.Contains(t, out, "No response yet")
		assert.Contains(t, out, "NORMAL")
	})
}

func TestRequestView_Editing(t *testing.T) {
	t.Run("edits the URL", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "u")
		assert.Equal(t, vim.ModeInsert, v.Mode())
		assert.Contains(t, v.View(), "INSERT")

		press(v, "https://api.example.com/userz", "backspace", "s", "enter")
		assert.Equal(t, vim.ModeNormal, v.Mode())
		assert.Equal(t, "https://api.example.com/users", v.Draft().URL)
	})

	t.Run("escape discards the edit", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "u", "https://x.test", "esc")
		assert.Equal(t, vim.ModeNormal, v.Mode())
		assert.Empty(t, v.Draft().URL)
	})

	t.Run("insert mode swallows command keys", func(t *testing.T) {
		v := newView(t, nil)
		cmd := press(v, "u", "q")
		assert.Nil(t, cmd)
		assert.Equal(t, vim.ModeInsert, v.Mode())
		press(v, "enter")
		assert.Equal(t, "q", v.Draft().URL)
	})

	t.Run("renames the draft", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "N", "List users", "enter")
		assert.Equal(t, "List users", v.Draft().Name)
	})

	t.Run("cycles the method", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "m")
		assert.Equal(t, core.MethodPost, v.Draft().Method)
		press(v, "m", "m", "m", "m", "m", "m")
		assert.Equal(t, core.MethodGet, v.Draft().Method)
	})

	t.Run("adds, edits and deletes headers", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "a", "Accept: application/json", "enter")
		press(v, "a", "X-Trace: 1", "enter")
		assert.Equal(t, []core.KeyValue{
			{Key: "Accept", Value: "application/json"},
			{Key: "X-Trace", Value: "1"},
		}, v.Draft().Headers)
		assert.Equal(t, 1, v.RequestPanel().Cursor())

		press(v, "e", "backspace", "2", "enter")
		assert.Equal(t, "2", v.Draft().Headers[1].Value)

		press(v, "k", "d", "d")
		assert.Equal(t, []core.KeyValue{{Key: "X-Trace", Value: "2"}}, v.Draft().Headers)
	})

	t.Run("invalid row keeps the editor open", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "a", "not a header", "enter")
		assert.Equal(t, vim.ModeInsert, v.Mode())
		assert.NotEmpty(t, v.Notification())
		assert.Empty(t, v.Draft().Headers)
	})

	t.Run("query params", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "shift+tab", "shift+tab")
		require.Equal(t, core.TabParams, v.Draft().ActiveTab)
		press(v, "a", "q=go", "enter")
		assert.Equal(t, []core.KeyValue{{Key: "q", Value: "go"}}, v.Draft().QueryParams)
	})

	t.Run("raw body and format", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "tab")
		require.Equal(t, core.TabBody, v.Draft().ActiveTab)
		press(v, "e", `{"a":1}`, "enter")
		assert.Equal(t, `{"a":1}`, v.Draft().RawBody)

		press(v, "f")
		assert.Equal(t, core.FormatText, v.Draft().RawFormat)
	})

	t.Run("form data", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "b")
		assert.Equal(t, core.BodyFormData, v.Draft().BodyType)
		assert.Equal(t, core.TabBody, v.Draft().ActiveTab)

		press(v, "a", "title=cat", "enter")
		press(v, "A", "photo", "enter")
		require.Equal(t, vim.ModeInsert, v.Mode(), "file row needs a path")
		press(v, "esc", "A", "ctrl+u", "photo=@/tmp/cat.png", "enter")

		require.Len(t, v.Draft().FormData, 2)
		assert.Equal(t, core.FormText, v.Draft().FormData[0].Kind)
		assert.Equal(t, core.FormFile, v.Draft().FormData[1].Kind)
		assert.Equal(t, "/tmp/cat.png", v.Draft().FormData[1].File.URI)
	})

	t.Run("adding fields to a raw body is refused", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "tab", "a")
		assert.Equal(t, vim.ModeNormal, v.Mode())
		assert.NotEmpty(t, v.Notification())
	})

	t.Run("auth fields", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "t")
		assert.Equal(t, core.TabAuth, v.Draft().ActiveTab)
		assert.Equal(t, core.AuthBasic, v.Draft().Auth.Kind())

		press(v, "e", "alice", "enter", "j", "e", "secret", "enter")
		assert.Equal(t, core.BasicAuth{Username: "alice", Password: "secret"}, v.Draft().Auth)

		press(v, "t", "t", "t")
		require.Equal(t, core.AuthAPIKey, v.Draft().Auth.Kind())
		press(v, "l")
		assert.Equal(t, core.APIKeyInQuery, v.Draft().Auth.(core.APIKeyAuth).Location)

		press(v, "j", "j", "e", "ctrl+u", "cookie", "enter")
		assert.Equal(t, vim.ModeInsert, v.Mode(), "unknown location is rejected")
		press(v, "esc", "t")
		assert.Equal(t, core.AuthNone, v.Draft().Auth.Kind())
	})
}

func TestRequestView_Send(t *testing.T) {
	t.Run("shows the response and switches tab", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "u", "https://x.test/users", "enter")

		cmd := press(v, "ctrl+s")
		assert.True(t, v.ResponsePanel().Response().Loading)

		done := deliver(t, v, cmd)
		assert.True(t, done.result.Applied)
		assert.Equal(t, core.TabResponse, v.Draft().ActiveTab)
		assert.Equal(t, PaneResponse, v.FocusedPane())
		assert.Equal(t, "GET https://x.test/users", v.ResponsePanel().Response().BodyText)
		assert.Contains(t, v.View(), "200 OK")
	})

	t.Run("sends a snapshot of the draft", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "u", "https://x.test/a", "enter")
		cmd := press(v, "ctrl+s")
		press(v, "u", "/b", "enter")

		deliver(t, v, cmd)
		assert.Equal(t, "GET https://x.test/a", v.ResponsePanel().Response().BodyText)
	})

	t.Run("validation error is shown without a call", func(t *testing.T) {
		req := &stubRequester{started: make(chan string, 1)}
		v := newView(t, req)
		deliver(t, v, press(v, "ctrl+s"))
		assert.True(t, v.ResponsePanel().Response().Failed())
		assert.Empty(t, req.started)
	})

	t.Run("superseded result is discarded", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "u", "https://x.test/first", "enter")
		first := press(v, "ctrl+s")
		press(v, "u", "ctrl+u", "https://x.test/second", "enter")
		second := press(v, "ctrl+s")

		deliver(t, v, second)
		late := deliver(t, v, first)
		assert.False(t, late.result.Applied)
		assert.Equal(t, "GET https://x.test/second", v.ResponsePanel().Response().BodyText)
	})

	t.Run("escape cancels the call", func(t *testing.T) {
		req := &stubRequester{release: make(chan struct{}), started: make(chan string, 1)}
		v := newView(t, req)
		press(v, "u", "https://x.test/slow", "enter")
		cmd := press(v, "ctrl+s")

		msgs := make(chan tea.Msg, 1)
		go func() { msgs <- cmd() }()
		<-req.started
		press(v, "esc")

		select {
		case msg := <-msgs:
			v.Update(msg)
			assert.Equal(t, core.MsgCancelledOrTimedOut, v.ResponsePanel().Response().Error)
			assert.Contains(t, v.View(), core.MsgCancelledOrTimedOut)
		case <-time.After(2 * time.Second):
			t.Fatal("cancel did not abort the call")
		}
	})

	t.Run("clear empties the response", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "u", "https://x.test", "enter")
		deliver(t, v, press(v, "ctrl+s"))
		press(v, "c")
		assert.Equal(t, core.EmptyView(), v.ResponsePanel().Response())
	})
}

func TestRequestView_Tabs(t *testing.T) {
	v := newView(t, nil)
	var seen []core.Tab
	for range core.Tabs() {
		seen = append(seen, v.Draft().ActiveTab)
		press(v, "tab")
	}
	assert.Equal(t, core.Tabs(), seen)
	assert.Equal(t, core.TabHeaders, v.Draft().ActiveTab)

	press(v, "shift+tab")
	assert.Equal(t, core.TabResponse, v.Draft().ActiveTab)
	assert.Equal(t, PaneResponse, v.FocusedPane())
}

func TestRequestView_Copy(t *testing.T) {
	var copied []string
	clip := func(s string) error {
		copied = append(copied, s)
		return nil
	}

	t.Run("nothing to copy", func(t *testing.T) {
		v := newView(t, nil, WithClipboard(clip))
		press(v, "ctrl+y")
		assert.Empty(t, copied)
		assert.Equal(t, "No response to copy", v.Notification())
	})

	t.Run("copies the raw body", func(t *testing.T) {
		v := newView(t, nil, WithClipboard(clip))
		press(v, "u", "https://x.test", "enter")
		deliver(t, v, press(v, "ctrl+s"))

		press(v, "ctrl+y")
		assert.Equal(t, []string{"GET https://x.test"}, copied)
		assert.Contains(t, v.Notification(), "Copied")

		// y in the focused response panel goes through CopyMsg.
		cmd := press(v, "y")
		require.NotNil(t, cmd)
		v.Update(cmd())
		assert.Len(t, copied, 2)
	})

	t.Run("clipboard failure", func(t *testing.T) {
		v := newView(t, nil, WithClipboard(func(string) error { return errors.New("no display") }))
		v.Update(tui.CopyMsg{Content: "x"})
		assert.Contains(t, v.Notification(), "Copy failed")
	})
}

func TestRequestView_Curl(t *testing.T) {
	t.Run("copies the draft as curl", func(t *testing.T) {
		var copied string
		v := newView(t, nil, WithClipboard(func(s string) error { copied = s; return nil }))
		press(v, "C")
		assert.Empty(t, copied)
		assert.Contains(t, v.Notification(), "no URL")

		press(v, "u", "https://x.test/a", "enter", "m")
		press(v, "C")
		assert.Equal(t, "curl \\\n  -X POST \\\n  https://x.test/a", copied)
	})

	t.Run("pastes a curl command", func(t *testing.T) {
		v := newView(t, nil, WithClipboardReader(func() (string, error) {
			return "curl -X PUT -H 'X-A: 1' https://x.test/items/9?dry=1\n", nil
		}))
		press(v, "P")
		d := v.Draft()
		assert.Equal(t, core.MethodPut, d.Method)
		assert.Equal(t, "https://x.test/items/9", d.URL)
		assert.Equal(t, []core.KeyValue{{Key: "dry", Value: "1"}}, d.QueryParams)
		assert.Same(t, d, v.RequestPanel().Draft())
		assert.Contains(t, v.Notification(), "Imported 9")
	})

	t.Run("rejects clipboard text that is not curl", func(t *testing.T) {
		v := newView(t, nil, WithClipboardReader(func() (string, error) { return "hello", nil }))
		before := v.Draft()
		press(v, "P")
		assert.Same(t, before, v.Draft())
		assert.Contains(t, v.Notification(), "not a curl command")

		v = newView(t, nil, WithClipboardReader(func() (string, error) { return "", errors.New("no display") }))
		press(v, "P")
		assert.Contains(t, v.Notification(), "Paste failed")
	})
}

func TestRequestView_WriteDraft(t *testing.T) {
	t.Run("without a file", func(t *testing.T) {
		v := newView(t, nil)
		press(v, "ctrl+w")
		assert.Contains(t, v.Notification(), "No draft file")
	})

	t.Run("writes yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "draft.yaml")
		v := newView(t, nil, WithDraftFile(path))
		press(v, "m", "u", "https://x.test/items", "enter", "a", "Accept: text/plain", "enter")
		press(v, "ctrl+w")
		assert.Contains(t, v.Notification(), "Saved")

		d, err := filesystem.ReadDraft(path)
		require.NoError(t, err)
		assert.Equal(t, core.MethodPost, d.Method)
		assert.Equal(t, "https://x.test/items", d.URL)
		assert.Equal(t, []core.KeyValue{{Key: "Accept", Value: "text/plain"}}, d.Headers)
	})
}

func TestRequestView_HelpAndQuit(t *testing.T) {
	v := newView(t, nil)
	press(v, "?")
	assert.True(t, v.ShowingHelp())
	assert.Contains(t, v.View(), "Send")
	press(v, "q")
	assert.False(t, v.ShowingHelp())

	cmd := press(v, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	cmd = press(v, "u", "ctrl+c")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
