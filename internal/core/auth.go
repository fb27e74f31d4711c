package core

import (
	"encoding/base64"
	"fmt"
)

// AuthKind names an auth variant.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthBasic  AuthKind = "basic"
	AuthBearer AuthKind = "bearer"
	AuthOAuth2 AuthKind = "oauth2"
	AuthAPIKey AuthKind = "apikey"
)

// AuthKindNames returns display names for auth kinds.
var AuthKindNames = map[AuthKind]string{
	AuthNone:   "No Auth",
	AuthBasic:  "Basic Auth",
	AuthBearer: "Bearer Token",
	AuthOAuth2: "OAuth 2.0",
	AuthAPIKey: "API Key",
}

// AuthKinds returns the auth kinds in display order.
func AuthKinds() []AuthKind {
	return []AuthKind{AuthNone, AuthBasic, AuthBearer, AuthOAuth2, AuthAPIKey}
}

// APIKeyLocation specifies where to add the API key.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

// AuthConfig is one of NoAuth, BasicAuth, BearerAuth, OAuth2Auth or
// APIKeyAuth. The set is closed: only this package can add variants.
type AuthConfig interface {
	Kind() AuthKind
	sealedAuth()
}

type NoAuth struct{}

type BasicAuth struct {
	Username string
	Password string
}

type BearerAuth struct {
	Token string
}

// OAuth2Auth carries an already obtained access token. It is sent exactly
// like a bearer token; no grant or refresh flow is performed.
type OAuth2Auth struct {
	Token string
}

type APIKeyAuth struct {
	Key      string
	Value    string
	Location APIKeyLocation
}

func (NoAuth) Kind() AuthKind     { return AuthNone }
func (BasicAuth) Kind() AuthKind  { return AuthBasic }
func (BearerAuth) Kind() AuthKind { return AuthBearer }
func (OAuth2Auth) Kind() AuthKind { return AuthOAuth2 }
func (APIKeyAuth) Kind() AuthKind { return AuthAPIKey }

func (NoAuth) sealedAuth()     {}
func (BasicAuth) sealedAuth()  {}
func (BearerAuth) sealedAuth() {}
func (OAuth2Auth) sealedAuth() {}
func (APIKeyAuth) sealedAuth() {}

// NewAuth returns the empty value of the given variant. Unknown kinds map to
// NoAuth.
func NewAuth(kind AuthKind) AuthConfig {
	switch kind {
	case AuthBasic:
		return BasicAuth{}
	case AuthBearer:
		return BearerAuth{}
	case AuthOAuth2:
		return OAuth2Auth{}
	case AuthAPIKey:
		return APIKeyAuth{Location: APIKeyInHeader}
	default:
		return NoAuth{}
	}
}

// ApplyAuth merges auth into a copy of headers and, for query API keys, into
// rawURL. The input header set is left untouched.
func ApplyAuth(auth AuthConfig, headers *Headers, rawURL string) (*Headers, string, error) {
	out := NewHeaders()
	if headers != nil {
		out = headers.Clone()
	}

	switch a := auth.(type) {
	case nil, NoAuth:
		return out, rawURL, nil

	case BasicAuth:
		credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		out.Set("Authorization", "Basic "+credentials)
		return out, rawURL, nil

	case BearerAuth:
		out.Set("Authorization", "Bearer "+a.Token)
		return out, rawURL, nil

	case OAuth2Auth:
		out.Set("Authorization", "Bearer "+a.Token)
		return out, rawURL, nil

	case APIKeyAuth:
		if a.Key == "" {
			return out, rawURL, nil
		}
		if a.Location == APIKeyInQuery {
			u, err := setQueryParam(rawURL, a.Key, a.Value)
			if err != nil {
				return nil, "", err
			}
			return out, u, nil
		}
		out.Set(a.Key, a.Value)
		return out, rawURL, nil

	default:
		return nil, "", fmt.Errorf("unsupported auth config %T", auth)
	}
}

// DisplayName returns a human-readable name for the auth variant.
func DisplayName(auth AuthConfig) string {
	if auth == nil {
		return AuthKindNames[AuthNone]
	}
	return AuthKindNames[auth.Kind()]
}

// Summary returns a brief, secret-free description of the auth config.
func Summary(auth AuthConfig) string {
	switch a := auth.(type) {
	case BasicAuth:
		return fmt.Sprintf("Basic: %s", a.Username)
	case BearerAuth:
		return "Bearer: " + maskToken(a.Token)
	case OAuth2Auth:
		return "OAuth 2.0: " + maskToken(a.Token)
	case APIKeyAuth:
		loc := a.Location
		if loc == "" {
			loc = APIKeyInHeader
		}
		return fmt.Sprintf("API Key: %s (in %s)", a.Key, loc)
	default:
		return "No authentication"
	}
}

func maskToken(token string) string {
	if len(token) > 20 {
		return token[:8] + "..." + token[len(token)-4:]
	}
	return "****"
}

// AuthFields is the flat, serializable form of an AuthConfig used by draft
// files and saved requests.
type AuthFields struct {
	Type     string `json:"type" yaml:"type"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	In       string `json:"in,omitempty" yaml:"in,omitempty"`
}

// ToAuth converts the flat form into its variant.
func (f AuthFields) ToAuth() (AuthConfig, error) {
	switch AuthKind(f.Type) {
	case "", AuthNone:
		return NoAuth{}, nil
	case AuthBasic:
		return BasicAuth{Username: f.Username, Password: f.Password}, nil
	case AuthBearer:
		return BearerAuth{Token: f.Token}, nil
	case AuthOAuth2:
		return OAuth2Auth{Token: f.Token}, nil
	case AuthAPIKey:
		loc := APIKeyLocation(f.In)
		switch loc {
		case "":
			loc = APIKeyInHeader
		case APIKeyInHeader, APIKeyInQuery:
		default:
			return nil, fmt.Errorf("unsupported API key location %q", f.In)
		}
		return APIKeyAuth{Key: f.Key, Value: f.Value, Location: loc}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", f.Type)
	}
}

// FieldsOf flattens an auth variant.
func FieldsOf(auth AuthConfig) AuthFields {
	switch a := auth.(type) {
	case BasicAuth:
		return AuthFields{Type: string(AuthBasic), Username: a.Username, Password: a.Password}
	case BearerAuth:
		return AuthFields{Type: string(AuthBearer), Token: a.Token}
	case OAuth2Auth:
		return AuthFields{Type: string(AuthOAuth2), Token: a.Token}
	case APIKeyAuth:
		return AuthFields{Type: string(AuthAPIKey), Key: a.Key, Value: a.Value, In: string(a.Location)}
	default:
		return AuthFields{Type: string(AuthNone)}
	}
}
