package core

import (
	"fmt"
	"strings"
)

// Method is an HTTP request method supported by the request builder.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists the supported methods in display order.
func Methods() []Method {
	return []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions}
}

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q", s)
}

// AllowsBody reports whether a payload is sent for this method.
func (m Method) AllowsBody() bool {
	return m != MethodGet && m != MethodHead
}

// BodyType selects which of the draft's body fields is sent.
type BodyType string

const (
	BodyRaw      BodyType = "raw"
	BodyFormData BodyType = "form-data"
)

// RawFormat is the declared format of a raw body.
type RawFormat string

const (
	FormatJSON       RawFormat = "json"
	FormatText       RawFormat = "text"
	FormatJavaScript RawFormat = "javascript"
	FormatHTML       RawFormat = "html"
	FormatXML        RawFormat = "xml"
)

var rawContentTypes = map[RawFormat]string{
	FormatJSON:       "application/json",
	FormatText:       "text/plain",
	FormatJavaScript: "application/javascript",
	FormatHTML:       "text/html",
	FormatXML:        "application/xml",
}

// RawFormats lists the raw formats in display order.
func RawFormats() []RawFormat {
	return []RawFormat{FormatJSON, FormatText, FormatJavaScript, FormatHTML, FormatXML}
}

// ParseRawFormat validates a raw format name.
func ParseRawFormat(s string) (RawFormat, error) {
	f := RawFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rawContentTypes[f]; !ok {
		return "", fmt.Errorf("unsupported raw format %q", s)
	}
	return f, nil
}

// ContentType returns the MIME type sent for a raw body of this format.
func (f RawFormat) ContentType() string {
	if ct, ok := rawContentTypes[f]; ok {
		return ct
	}
	return rawContentTypes[FormatText]
}

// Tab is the section of the request screen currently shown.
type Tab string

const (
	TabHeaders  Tab = "Headers"
	TabBody     Tab = "Body"
	TabAuth     Tab = "Auth"
	TabParams   Tab = "Params"
	TabResponse Tab = "Response"
)

// Tabs lists the screen tabs in display order.
func Tabs() []Tab {
	return []Tab{TabHeaders, TabBody, TabAuth, TabParams, TabResponse}
}

// KeyValue is one editable row of headers or query parameters.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// FormKind distinguishes text and file form-data entries.
type FormKind string

const (
	FormText FormKind = "text"
	FormFile FormKind = "file"
)

// FileRef points at a file picked for a form-data entry.
type FileRef struct {
	URI  string `json:"uri" yaml:"uri"`
	Name string `json:"name" yaml:"name"`
	MIME string `json:"mime" yaml:"mime"`
}

// FormDataItem is one row of a multipart body.
type FormDataItem struct {
	Key   string   `json:"key" yaml:"key"`
	Value string   `json:"value" yaml:"value"`
	Kind  FormKind `json:"kind" yaml:"kind"`
	File  *FileRef `json:"file,omitempty" yaml:"file,omitempty"`
}

// RequestDraft is the in-progress request edited on a screen. It is owned by
// that screen and mutated only through its setters.
type RequestDraft struct {
	Name        string
	Method      Method
	URL         string
	Headers     []KeyValue
	QueryParams []KeyValue
	BodyType    BodyType
	RawFormat   RawFormat
	RawBody     string
	FormData    []FormDataItem
	Auth        AuthConfig
	ActiveTab   Tab
}

// NewDraft returns the empty draft a screen starts with.
func NewDraft() *RequestDraft {
	return &RequestDraft{
		Method:      MethodGet,
		Headers:     []KeyValue{},
		QueryParams: []KeyValue{},
		BodyType:    BodyRaw,
		RawFormat:   FormatJSON,
		FormData:    []FormDataItem{},
		Auth:        NoAuth{},
		ActiveTab:   TabHeaders,
	}
}

func (d *RequestDraft) SetName(name string)        { d.Name = name }
func (d *RequestDraft) SetMethod(m Method)         { d.Method = m }
func (d *RequestDraft) SetURL(u string)            { d.URL = u }
func (d *RequestDraft) SetBodyType(t BodyType)     { d.BodyType = t }
func (d *RequestDraft) SetRawFormat(f RawFormat)   { d.RawFormat = f }
func (d *RequestDraft) SetRawBody(body string)     { d.RawBody = body }
func (d *RequestDraft) SetAuth(a AuthConfig)       { d.Auth = a }
func (d *RequestDraft) SetTab(t Tab)               { d.ActiveTab = t }
func (d *RequestDraft) SetHeaders(h []KeyValue)    { d.Headers = copyPairs(h) }
func (d *RequestDraft) SetParams(p []KeyValue)     { d.QueryParams = copyPairs(p) }
func (d *RequestDraft) SetFormData(f []FormDataItem) {
	d.FormData = append([]FormDataItem(nil), f...)
}

// SwitchAuth changes the auth variant, resetting it to that variant's empty
// values.
func (d *RequestDraft) SwitchAuth(kind AuthKind) {
	d.Auth = NewAuth(kind)
}

// AddHeader appends a header row.
func (d *RequestDraft) AddHeader(key, value string) {
	d.Headers = append(copyPairs(d.Headers), KeyValue{Key: key, Value: value})
}

// AddParam appends a query parameter row.
func (d *RequestDraft) AddParam(key, value string) {
	d.QueryParams = append(copyPairs(d.QueryParams), KeyValue{Key: key, Value: value})
}

// AddFormField appends a text form-data row.
func (d *RequestDraft) AddFormField(key, value string) {
	d.SetFormData(append(d.FormData, FormDataItem{Key: key, Value: value, Kind: FormText}))
}

// AddFormFile appends a file form-data row.
func (d *RequestDraft) AddFormFile(key string, file FileRef) {
	d.SetFormData(append(d.FormData, FormDataItem{Key: key, Value: file.Name, Kind: FormFile, File: &file}))
}

// RemoveHeader deletes the header row at index i; out-of-range is a no-op.
func (d *RequestDraft) RemoveHeader(i int) {
	d.Headers = removeAt(d.Headers, i)
}

// RemoveParam deletes the query parameter row at index i.
func (d *RequestDraft) RemoveParam(i int) {
	d.QueryParams = removeAt(d.QueryParams, i)
}

// RemoveFormData deletes the form-data row at index i.
func (d *RequestDraft) RemoveFormData(i int) {
	if i < 0 || i >= len(d.FormData) {
		return
	}
	out := make([]FormDataItem, 0, len(d.FormData)-1)
	out = append(out, d.FormData[:i]...)
	d.FormData = append(out, d.FormData[i+1:]...)
}

// Clone returns a deep copy of the draft.
func (d *RequestDraft) Clone() *RequestDraft {
	clone := *d
	clone.Headers = copyPairs(d.Headers)
	clone.QueryParams = copyPairs(d.QueryParams)
	clone.FormData = make([]FormDataItem, len(d.FormData))
	for i, item := range d.FormData {
		clone.FormData[i] = item
		if item.File != nil {
			f := *item.File
			clone.FormData[i].File = &f
		}
	}
	return &clone
}

func copyPairs(src []KeyValue) []KeyValue {
	out := make([]KeyValue, len(src))
	copy(out, src)
	return out
}

func removeAt(src []KeyValue, i int) []KeyValue {
	if i < 0 || i >= len(src) {
		return src
	}
	out := make([]KeyValue, 0, len(src)-1)
	out = append(out, src[:i]...)
	return append(out, src[i+1:]...)
}
