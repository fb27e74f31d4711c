package cli

import (
	"bytes"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/artpar/httphub/internal/server"
	"github.com/artpar/httphub/internal/server/memstore"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	color.NoColor = true
	gin.SetMode(gin.TestMode)
}

// cliHarness runs root commands against a private data directory and,
// once started, an in-memory backend.
type cliHarness struct {
	t         *testing.T
	dataDir   string
	serverURL string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Setenv("HTTPHUB_SERVER", "")
	return &cliHarness{t: t, dataDir: t.TempDir()}
}

func (h *cliHarness) startBackend() {
	h.t.Helper()
	srv := server.New(server.DefaultConfig(), memstore.New(), server.WithPasswordCost(bcrypt.MinCost))
	ts := httptest.NewServer(srv.Handler())
	h.t.Cleanup(ts.Close)
	h.serverURL = ts.URL
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	full := append(append([]string{}, args...), "--data-dir", h.dataDir)
	if h.serverURL != "" {
		full = append(full, "--server", h.serverURL)
	}
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

var objectIDPattern = regexp.MustCompile(`\(([0-9a-f]{24})\)`)

// createdID extracts the id printed as "(id)" by create commands.
func createdID(t *testing.T, out string) string {
	t.Helper()
	m := objectIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}
