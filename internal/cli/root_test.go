package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/storage/filesystem"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	assert.Equal(t, "httphub", cmd.Use)
	assert.Equal(t, "1.2.3", cmd.Version)

	for _, name := range []string{
		"send", "serve", "register", "login", "logout", "whoami",
		"profile", "collections", "requests", "history",
	} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	t.Run("aliases", func(t *testing.T) {
		sub, _, err := cmd.Find([]string{"col", "list"})
		require.NoError(t, err)
		assert.Equal(t, "list", sub.Name())
		assert.Equal(t, "collections", sub.Parent().Name())

		sub, _, err = cmd.Find([]string{"req", "run"})
		require.NoError(t, err)
		assert.Equal(t, "requests", sub.Parent().Name())
	})

	t.Run("persistent flags", func(t *testing.T) {
		for _, flag := range []string{"data-dir", "server", "verbose"} {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
		}
	})
}

func TestNewTUIModel(t *testing.T) {
	opts := &Options{DataDir: t.TempDir()}
	application, err := opts.newApp(nil)
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	t.Run("without a file", func(t *testing.T) {
		model, err := newTUIModel(context.Background(), application, "")
		require.NoError(t, err)
		assert.Equal(t, core.MethodGet, model.view.Draft().Method)
		assert.Empty(t, model.view.Draft().URL)
	})

	t.Run("missing file starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.yaml")
		model, err := newTUIModel(context.Background(), application, path)
		require.NoError(t, err)
		assert.Empty(t, model.view.Draft().URL)
	})

	t.Run("loads an existing draft", func(t *testing.T) {
		d := core.NewDraft()
		d.SetMethod(core.MethodPost)
		d.SetURL("https://api.example.com/users")
		path := filepath.Join(t.TempDir(), "users.yaml")
		require.NoError(t, filesystem.WriteDraft(path, d))

		model, err := newTUIModel(context.Background(), application, path)
		require.NoError(t, err)
		assert.Equal(t, core.MethodPost, model.view.Draft().Method)
		assert.Equal(t, "https://api.example.com/users", model.view.Draft().URL)
		updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Contains(t, updated.View(), "https://api.example.com/users")
	})

	t.Run("unreadable draft", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("method: [oops"), 0600))
		_, err := newTUIModel(context.Background(), application, path)
		assert.Error(t, err)
	})
}
