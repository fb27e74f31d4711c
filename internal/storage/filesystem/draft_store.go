package filesystem

import (
	"fmt"
	"os"

	"github.com/artpar/httphub/internal/core"
	"gopkg.in/yaml.v3"
)

// draftFile is the on-disk YAML layout of a request draft.
type draftFile struct {
	Name    string          `yaml:"name,omitempty"`
	Method  string          `yaml:"method"`
	URL     string          `yaml:"url"`
	Headers []core.KeyValue `yaml:"headers,omitempty"`
	Params  []core.KeyValue `yaml:"params,omitempty"`
	Body    draftBody       `yaml:"body,omitempty"`
	Auth    core.AuthFields `yaml:"auth,omitempty"`
}

type draftBody struct {
	Type   string              `yaml:"type,omitempty"`
	Format string              `yaml:"format,omitempty"`
	Raw    string              `yaml:"raw,omitempty"`
	Form   []core.FormDataItem `yaml:"form,omitempty"`
}

// ReadDraft loads a draft from a YAML file. Missing fields take the values
// of a new draft.
func ReadDraft(path string) (*core.RequestDraft, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}
	return ParseDraft(content)
}

// ParseDraft decodes a YAML draft.
func ParseDraft(content []byte) (*core.RequestDraft, error) {
	var file draftFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}

	d := core.NewDraft()
	d.SetName(file.Name)
	if file.Method != "" {
		m, err := core.ParseMethod(file.Method)
		if err != nil {
			return nil, err
		}
		d.SetMethod(m)
	}
	d.SetURL(file.URL)
	if file.Headers != nil {
		d.SetHeaders(file.Headers)
	}
	if file.Params != nil {
		d.SetParams(file.Params)
	}

	switch core.BodyType(file.Body.Type) {
	case "", core.BodyRaw:
		d.SetBodyType(core.BodyRaw)
	case core.BodyFormData:
		d.SetBodyType(core.BodyFormData)
	default:
		return nil, fmt.Errorf("unsupported body type %q", file.Body.Type)
	}
	if file.Body.Format != "" {
		f, err := core.ParseRawFormat(file.Body.Format)
		if err != nil {
			return nil, err
		}
		d.SetRawFormat(f)
	}
	d.SetRawBody(file.Body.Raw)
	if file.Body.Form != nil {
		form := make([]core.FormDataItem, len(file.Body.Form))
		copy(form, file.Body.Form)
		for i := range form {
			if form[i].Kind == "" {
				form[i].Kind = core.FormText
			}
		}
		d.SetFormData(form)
	}

	auth, err := file.Auth.ToAuth()
	if err != nil {
		return nil, err
	}
	d.SetAuth(auth)

	return d, nil
}

// MarshalDraft encodes a draft as YAML.
func MarshalDraft(d *core.RequestDraft) ([]byte, error) {
	file := draftFile{
		Name:    d.Name,
		Method:  string(d.Method),
		URL:     d.URL,
		Headers: d.Headers,
		Params:  d.QueryParams,
		Body: draftBody{
			Type:   string(d.BodyType),
			Format: string(d.RawFormat),
			Raw:    d.RawBody,
			Form:   d.FormData,
		},
		Auth: core.FieldsOf(d.Auth),
	}
	content, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	return content, nil
}

// WriteDraft saves a draft to a YAML file.
func WriteDraft(path string, d *core.RequestDraft) error {
	content, err := MarshalDraft(d)
	if err != nil {
		return err
	}
	// Drafts may hold credentials.
	return writeFileAtomic(path, content, 0600)
}
