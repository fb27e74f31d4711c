package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/curl"
	"github.com/artpar/httphub/internal/storage/filesystem"
	"github.com/spf13/cobra"
)

// draftFlags are the request-building flags shared by send and the saved
// request commands.
type draftFlags struct {
	File     string
	Curl     string
	Name     string
	Headers  []string
	Params   []string
	Body     string
	Format   string
	Form     []string
	Basic    string
	Bearer   string
	OAuth2   string
	APIKey   string
	APIKeyIn string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.File, "file", "f", "", "Start from a YAML draft file")
	flags.StringVar(&f.Curl, "curl", "", "Start from a curl command line")
	flags.StringVar(&f.Name, "name", "", "Request name")
	flags.StringArrayVarP(&f.Headers, "header", "H", nil, "Request header (format: Key: Value)")
	flags.StringArrayVarP(&f.Params, "query", "q", nil, "Query parameter (format: key=value)")
	flags.StringVarP(&f.Body, "body", "d", "", "Raw request body; @path reads it from a file")
	flags.StringVar(&f.Format, "format", "", "Raw body format: json, text, javascript, html, xml")
	flags.StringArrayVarP(&f.Form, "form", "F", nil, "Form-data field (key=value or key=@path[;type=mime])")
	flags.StringVar(&f.Basic, "basic", "", "Basic auth (format: user:password)")
	flags.StringVar(&f.Bearer, "bearer", "", "Bearer token")
	flags.StringVar(&f.OAuth2, "oauth2", "", "OAuth 2.0 access token")
	flags.StringVar(&f.APIKey, "api-key", "", "API key (format: key=value)")
	flags.StringVar(&f.APIKeyIn, "api-key-in", "header", "Where the API key goes: header or query")
}

// base returns the draft the flags are applied to: the draft file or curl
// command when one is given, otherwise a new draft.
func (f *draftFlags) base() (*core.RequestDraft, error) {
	switch {
	case f.File != "" && f.Curl != "":
		return nil, fmt.Errorf("--file and --curl cannot be combined")
	case f.File != "":
		return filesystem.ReadDraft(f.File)
	case f.Curl != "":
		d, err := curl.Parse(f.Curl)
		if err != nil {
			return nil, fmt.Errorf("invalid --curl: %w", err)
		}
		return d, nil
	default:
		return core.NewDraft(), nil
	}
}

// hasBase reports whether a file or curl command supplies the target.
func (f *draftFlags) hasBase() bool {
	return f.File != "" || f.Curl != ""
}

// apply writes the flags onto d. Headers, params and form fields are
// appended; body, format and auth replace what d has.
func (f *draftFlags) apply(d *core.RequestDraft) error {
	if f.Name != "" {
		d.SetName(f.Name)
	}

	for _, line := range f.Headers {
		kv, err := core.ParseHeaderLine(line)
		if err != nil {
			return err
		}
		d.AddHeader(kv.Key, kv.Value)
	}
	for _, line := range f.Params {
		kv, err := core.ParseParamLine(line)
		if err != nil {
			return err
		}
		d.AddParam(kv.Key, kv.Value)
	}

	if f.Format != "" {
		format, err := core.ParseRawFormat(f.Format)
		if err != nil {
			return err
		}
		d.SetRawFormat(format)
	}

	if f.Body != "" && len(f.Form) > 0 {
		return fmt.Errorf("--body and --form cannot be combined")
	}
	if f.Body != "" {
		body, err := readBodyFlag(f.Body)
		if err != nil {
			return err
		}
		d.SetBodyType(core.BodyRaw)
		d.SetRawBody(body)
	}
	if len(f.Form) > 0 {
		items := append([]core.FormDataItem(nil), d.FormData...)
		for _, line := range f.Form {
			item, err := core.ParseFormLine(line)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		d.SetBodyType(core.BodyFormData)
		d.SetFormData(items)
	}

	auth, err := f.auth()
	if err != nil {
		return err
	}
	if auth != nil {
		d.SetAuth(auth)
	}
	return nil
}

// auth returns the auth variant named by the flags, or nil when none is set.
func (f *draftFlags) auth() (core.AuthConfig, error) {
	var auths []core.AuthConfig

	if f.Basic != "" {
		user, pass, _ := strings.Cut(f.Basic, ":")
		auths = append(auths, core.BasicAuth{Username: user, Password: pass})
	}
	if f.Bearer != "" {
		auths = append(auths, core.BearerAuth{Token: f.Bearer})
	}
	if f.OAuth2 != "" {
		auths = append(auths, core.OAuth2Auth{Token: f.OAuth2})
	}
	if f.APIKey != "" {
		kv, err := core.ParseParamLine(f.APIKey)
		if err != nil {
			return nil, fmt.Errorf("invalid --api-key: %w", err)
		}
		auth, err := core.AuthFields{Type: string(core.AuthAPIKey), Key: kv.Key, Value: kv.Value, In: strings.ToLower(f.APIKeyIn)}.ToAuth()
		if err != nil {
			return nil, err
		}
		auths = append(auths, auth)
	}

	switch len(auths) {
	case 0:
		return nil, nil
	case 1:
		return auths[0], nil
	default:
		return nil, fmt.Errorf("only one of --basic, --bearer, --oauth2 and --api-key can be used")
	}
}

func readBodyFlag(value string) (string, error) {
	path, ok := strings.CutPrefix(value, "@")
	if !ok {
		return value, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(content), nil
}

// setTarget applies positional METHOD and URL arguments.
func setTarget(d *core.RequestDraft, method, url string) error {
	m, err := core.ParseMethod(method)
	if err != nil {
		return err
	}
	d.SetMethod(m)
	d.SetURL(url)
	return nil
}
