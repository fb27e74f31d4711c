// Package curl converts request drafts to and from curl command lines.
package curl

import (
	"errors"
	"strings"

	"github.com/artpar/httphub/internal/core"
)

// ErrNoURL is returned when a draft or command has no target URL.
var ErrNoURL = errors.New("no URL")

// Exporter renders drafts as curl commands.
type Exporter struct {
	Pretty      bool // one option per line
	IncludeAuth bool
}

// NewExporter creates an exporter with line continuations and auth.
func NewExporter() *Exporter {
	return &Exporter{
		Pretty:      true,
		IncludeAuth: true,
	}
}

// Export renders d as the curl command that sends the same request. Query
// params are merged into the URL the way a send does; basic auth becomes -u.
func (e *Exporter) Export(d *core.RequestDraft) (string, error) {
	if d == nil || strings.TrimSpace(d.URL) == "" {
		return "", ErrNoURL
	}

	url, err := core.ComposeQuery(strings.TrimSpace(d.URL), d.QueryParams)
	if err != nil {
		return "", err
	}
	headers := core.HeadersFromPairs(d.Headers)

	var opts [][]string
	switch d.Method {
	case "", core.MethodGet:
	case core.MethodHead:
		opts = append(opts, []string{"-I"})
	default:
		opts = append(opts, []string{"-X", string(d.Method)})
	}

	var auth [][]string
	if e.IncludeAuth && d.Auth != nil {
		if basic, ok := d.Auth.(core.BasicAuth); ok {
			user := basic.Username
			if basic.Password != "" {
				user += ":" + basic.Password
			}
			auth = append(auth, []string{"-u", user})
		} else {
			headers, url, err = core.ApplyAuth(d.Auth, headers, url)
			if err != nil {
				return "", err
			}
		}
	}

	var body [][]string
	if d.Method.AllowsBody() {
		switch d.BodyType {
		case core.BodyFormData:
			for _, item := range d.FormData {
				if item.Key == "" {
					continue
				}
				if item.Kind == core.FormFile && item.File != nil {
					body = append(body, []string{"-F", formFile(item)})
				} else {
					body = append(body, []string{"--form-string", item.Key + "=" + item.Value})
				}
			}
		default:
			if d.RawBody != "" {
				headers.Set("Content-Type", d.RawFormat.ContentType())
				body = append(body, []string{"--data-raw", d.RawBody})
			}
		}
	}

	for _, kv := range headers.Pairs() {
		opts = append(opts, []string{"-H", kv.Key + ": " + kv.Value})
	}
	opts = append(opts, auth...)
	opts = append(opts, body...)
	opts = append(opts, []string{url})

	sep := " "
	if e.Pretty {
		sep = " \\\n  "
	}
	var sb strings.Builder
	sb.WriteString("curl")
	for _, opt := range opts {
		sb.WriteString(sep)
		for i, part := range opt {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(shellQuote(part))
		}
	}
	return sb.String(), nil
}

func formFile(item core.FormDataItem) string {
	field := item.Key + "=@" + strings.TrimPrefix(item.File.URI, "file://")
	if item.File.MIME != "" {
		field += ";type=" + item.File.MIME
	}
	return field
}

const shellSpecial = " \t\n\"'$`\\!*?[]{}()<>|&;#~"

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
