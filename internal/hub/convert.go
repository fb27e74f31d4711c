package hub

import (
	"fmt"
	"mime"
	"path"

	"github.com/artpar/httphub/internal/core"
)

// DraftFromSaved loads a saved request into a fresh draft.
func DraftFromSaved(r SavedRequest) (*core.RequestDraft, error) {
	method, err := core.ParseMethod(r.Method)
	if err != nil {
		return nil, err
	}

	d := core.NewDraft()
	d.SetName(r.Name)
	d.SetMethod(method)
	d.SetURL(r.URL)
	d.SetHeaders(r.Headers)
	d.SetParams(r.QueryParams)

	switch r.Body.Mode {
	case "", BodyModeRaw:
		d.SetBodyType(core.BodyRaw)
	case BodyModeFormData:
		d.SetBodyType(core.BodyFormData)
	default:
		return nil, fmt.Errorf("unsupported body mode %q", r.Body.Mode)
	}

	format := core.FormatText
	if r.Body.RawType != "" {
		if format, err = core.ParseRawFormat(r.Body.RawType); err != nil {
			return nil, err
		}
	}
	d.SetRawFormat(format)
	d.SetRawBody(r.Body.Raw)

	items := make([]core.FormDataItem, 0, len(r.Body.FormData))
	for _, f := range r.Body.FormData {
		if f.Type == string(core.FormFile) {
			items = append(items, core.FormDataItem{
				Key:   f.Key,
				Value: path.Base(f.Value),
				Kind:  core.FormFile,
				File:  &core.FileRef{
					URI:  f.Value,
					Name: path.Base(f.Value),
					MIME: mime.TypeByExtension(path.Ext(f.Value)),
				},
			})
			continue
		}
		items = append(items, core.FormDataItem{Key: f.Key, Value: f.Value, Kind: core.FormText})
	}
	d.SetFormData(items)

	auth, err := authFromSaved(r.Auth)
	if err != nil {
		return nil, err
	}
	d.SetAuth(auth)
	return d, nil
}

// SavedFromDraft converts a draft into a saved request document. ID,
// collection and timestamps are left for the caller.
func SavedFromDraft(d *core.RequestDraft) SavedRequest {
	r := SavedRequest{
		Name:        d.Name,
		Method:      string(d.Method),
		URL:         d.URL,
		Headers:     nonNilPairs(d.Headers),
		QueryParams: nonNilPairs(d.QueryParams),
		Body: RequestBody{
			Mode:     BodyModeRaw,
			Raw:      d.RawBody,
			RawType:  string(d.RawFormat),
			FormData: make([]FormField, 0, len(d.FormData)),
		},
		Auth: savedFromAuth(d.Auth),
	}
	if d.BodyType == core.BodyFormData {
		r.Body.Mode = BodyModeFormData
	}
	for _, item := range d.FormData {
		f := FormField{Key: item.Key, Value: item.Value, Type: string(core.FormText)}
		if item.Kind == core.FormFile {
			f.Type = string(core.FormFile)
			if item.File != nil {
				f.Value = item.File.URI
			}
		}
		r.Body.FormData = append(r.Body.FormData, f)
	}
	return r
}

func authFromSaved(a RequestAuth) (core.AuthConfig, error) {
	switch a.Type {
	case "", AuthInherit, AuthNoAuth:
		return core.NoAuth{}, nil
	case string(core.AuthBasic):
		if a.Basic == nil {
			return core.BasicAuth{}, nil
		}
		return core.BasicAuth{Username: a.Basic.Username, Password: a.Basic.Password}, nil
	case string(core.AuthBearer):
		if a.Bearer == nil {
			return core.BearerAuth{}, nil
		}
		return core.BearerAuth{Token: a.Bearer.Token}, nil
	case string(core.AuthOAuth2):
		if a.OAuth2 == nil {
			return core.OAuth2Auth{}, nil
		}
		return core.OAuth2Auth{Token: a.OAuth2.Token}, nil
	case string(core.AuthAPIKey):
		fields := core.AuthFields{Type: a.Type}
		if a.APIKey != nil {
			fields.Key, fields.Value, fields.In = a.APIKey.Key, a.APIKey.Value, a.APIKey.In
		}
		return fields.ToAuth()
	default:
		return nil, fmt.Errorf("unsupported auth type %q", a.Type)
	}
}

func savedFromAuth(auth core.AuthConfig) RequestAuth {
	switch a := auth.(type) {
	case core.BasicAuth:
		return RequestAuth{Type: string(core.AuthBasic), Basic: &BasicCredentials{Username: a.Username, Password: a.Password}}
	case core.BearerAuth:
		return RequestAuth{Type: string(core.AuthBearer), Bearer: &TokenCredentials{Token: a.Token}}
	case core.OAuth2Auth:
		return RequestAuth{Type: string(core.AuthOAuth2), OAuth2: &TokenCredentials{Token: a.Token}}
	case core.APIKeyAuth:
		return RequestAuth{Type: string(core.AuthAPIKey), APIKey: &APIKeyCredentials{Key: a.Key, Value: a.Value, In: string(a.Location)}}
	default:
		return RequestAuth{Type: AuthNoAuth}
	}
}

func nonNilPairs(src []core.KeyValue) []core.KeyValue {
	out := make([]core.KeyValue, len(src))
	copy(out, src)
	return out
}
