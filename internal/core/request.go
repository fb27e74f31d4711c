package core

import (
	"bytes"
	"errors"
	"io"
)

// PreparedRequest is a draft after query, body and auth composition: ready
// to go on the wire.
type PreparedRequest struct {
	Method  Method
	URL     string
	Headers *Headers
	Body    Body
}

// Body represents a request or response payload.
type Body interface {
	Type() string
	ContentType() string
	IsEmpty() bool
	Size() int64
	Bytes() []byte
	String() string
	Reader() io.Reader
}

// emptyBody represents an absent payload.
type emptyBody struct{}

// NewEmptyBody creates an empty body.
func NewEmptyBody() Body {
	return &emptyBody{}
}

func (b *emptyBody) Type() string        { return "empty" }
func (b *emptyBody) ContentType() string { return "" }
func (b *emptyBody) IsEmpty() bool       { return true }
func (b *emptyBody) Size() int64         { return 0 }
func (b *emptyBody) Bytes() []byte       { return nil }
func (b *emptyBody) String() string      { return "" }
func (b *emptyBody) Reader() io.Reader   { return bytes.NewReader(nil) }

// rawBody is a single textual payload.
type rawBody struct {
	content     []byte
	contentType string
}

// NewRawBody creates a raw body with the given content and content type.
func NewRawBody(content []byte, contentType string) Body {
	return &rawBody{
		content:     content,
		contentType: contentType,
	}
}

func (b *rawBody) Type() string        { return "raw" }
func (b *rawBody) ContentType() string { return b.contentType }
func (b *rawBody) IsEmpty() bool       { return len(b.content) == 0 }
func (b *rawBody) Size() int64         { return int64(len(b.content)) }
func (b *rawBody) Bytes() []byte       { return b.content }
func (b *rawBody) String() string      { return string(b.content) }
func (b *rawBody) Reader() io.Reader   { return bytes.NewReader(b.content) }

// multipartBody is an encoded multipart/form-data payload. Its content type
// carries the boundary, so the transport must use it verbatim.
type multipartBody struct {
	content     []byte
	contentType string
}

func (b *multipartBody) Type() string        { return "multipart" }
func (b *multipartBody) ContentType() string { return b.contentType }
func (b *multipartBody) IsEmpty() bool       { return false }
func (b *multipartBody) Size() int64         { return int64(len(b.content)) }
func (b *multipartBody) Bytes() []byte       { return b.content }
func (b *multipartBody) String() string      { return string(b.content) }
func (b *multipartBody) Reader() io.Reader   { return bytes.NewReader(b.content) }

// IsMultipart reports whether the body was built from form-data entries.
func IsMultipart(b Body) bool {
	_, ok := b.(*multipartBody)
	return ok
}

// Validate checks the fields the transport relies on.
func (r *PreparedRequest) Validate() error {
	if r.Method == "" {
		return errors.New("method cannot be empty")
	}
	if r.URL == "" {
		return errors.New("url cannot be empty")
	}
	return nil
}
