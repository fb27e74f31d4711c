package hub

import (
	"time"

	"github.com/artpar/httphub/internal/core"
)

// Body modes and auth types used by saved request documents.
const (
	BodyModeRaw      = "raw"
	BodyModeFormData = "formdata"

	AuthInherit = "inherit"
	AuthNoAuth  = "noauth"
)

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OrgName   string    `json:"orgName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credentials is the body of register, login and profile edit calls.
// OrgName is ignored by login.
type Credentials struct {
	Name     string `json:"name"`
	OrgName  string `json:"orgName,omitempty"`
	Password string `json:"password,omitempty"`
}

// AuthResult is returned by register, login and profile edit.
type AuthResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Collection groups saved requests for one user.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	Requests    []string  `json:"requests"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FormField is one form-data row of a saved request.
type FormField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// RequestBody is the body section of a saved request.
type RequestBody struct {
	Mode     string      `json:"mode"`
	Raw      string      `json:"raw"`
	RawType  string      `json:"rawType"`
	FormData []FormField `json:"formdata"`
}

// BasicCredentials holds basic auth values.
type BasicCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenCredentials holds a bearer or oauth2 token.
type TokenCredentials struct {
	Token string `json:"token"`
}

// APIKeyCredentials holds an API key and where it goes.
type APIKeyCredentials struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	In    string `json:"in,omitempty"`
}

// RequestAuth is the auth section of a saved request. Only the section named
// by Type is meaningful.
type RequestAuth struct {
	Type   string             `json:"type"`
	Basic  *BasicCredentials  `json:"basic,omitempty"`
	Bearer *TokenCredentials  `json:"bearer,omitempty"`
	OAuth2 *TokenCredentials  `json:"oauth2,omitempty"`
	APIKey *APIKeyCredentials `json:"apiKey,omitempty"`
}

// SavedRequest is a request stored in a collection.
type SavedRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Method      string          `json:"method"`
	URL         string          `json:"url"`
	Headers     []core.KeyValue `json:"headers"`
	QueryParams []core.KeyValue `json:"queryParams"`
	Body        RequestBody     `json:"body"`
	Auth        RequestAuth     `json:"auth"`
	Collection  string          `json:"collection"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// RequestPatch is a partial update of a saved request. Nil fields are left
// unchanged.
type RequestPatch struct {
	Name        *string          `json:"name,omitempty"`
	Method      *string          `json:"method,omitempty"`
	URL         *string          `json:"url,omitempty"`
	Headers     *[]core.KeyValue `json:"headers,omitempty"`
	QueryParams *[]core.KeyValue `json:"queryParams,omitempty"`
	Body        *RequestBody     `json:"body,omitempty"`
	Auth        *RequestAuth     `json:"auth,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p RequestPatch) IsEmpty() bool {
	return p.Name == nil && p.Method == nil && p.URL == nil && p.Headers == nil &&
		p.QueryParams == nil && p.Body == nil && p.Auth == nil
}

// Apply writes the set fields of p onto r.
func (p RequestPatch) Apply(r *SavedRequest) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Method != nil {
		r.Method = *p.Method
	}
	if p.URL != nil {
		r.URL = *p.URL
	}
	if p.Headers != nil {
		r.Headers = *p.Headers
	}
	if p.QueryParams != nil {
		r.QueryParams = *p.QueryParams
	}
	if p.Body != nil {
		r.Body = *p.Body
	}
	if p.Auth != nil {
		r.Auth = *p.Auth
	}
}

// PatchFrom builds a patch that replaces every editable field with r's.
func PatchFrom(r SavedRequest) RequestPatch {
	return RequestPatch{
		Name:        &r.Name,
		Method:      &r.Method,
		URL:         &r.URL,
		Headers:     &r.Headers,
		QueryParams: &r.QueryParams,
		Body:        &r.Body,
		Auth:        &r.Auth,
	}
}
