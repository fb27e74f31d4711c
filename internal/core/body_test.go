package core

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFiles map[string][]byte

func (m memFiles) Open(uri string) (io.ReadCloser, error) {
	data, ok := m[uri]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type formPart struct {
	name, filename, contentType, content string
}

func readParts(t *testing.T, body Body) []formPart {
	t.Helper()
	_, params, err := mime.ParseMediaType(body.ContentType())
	require.NoError(t, err)

	reader := multipart.NewReader(body.Reader(), params["boundary"])
	var parts []formPart
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, formPart{
			name:        p.FormName(),
			filename:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			content:     string(content),
		})
	}
	return parts
}

func TestBuildBody_NoBodyMethods(t *testing.T) {
	for _, m := range []Method{MethodGet, MethodHead} {
		for _, bt := range []BodyType{BodyRaw, BodyFormData} {
			t.Run(string(m)+"/"+string(bt), func(t *testing.T) {
				d := NewDraft()
				d.SetMethod(m)
				d.SetBodyType(bt)
				d.SetRawBody(`{"a":1}`)
				d.AddFormField("k", "v")

				in := NewHeaders()
				in.Set("Accept", "*/*")

				body, h, err := BuildBody(d, in, nil)
				require.NoError(t, err)
				assert.True(t, body.IsEmpty())
				assert.Equal(t, in.Pairs(), h.Pairs())
			})
		}
	}
}

func TestBuildBody_Raw(t *testing.T) {
	tests := []struct {
		format      RawFormat
		contentType string
	}{
		{FormatJSON, "application/json"},
		{FormatText, "text/plain"},
		{FormatJavaScript, "application/javascript"},
		{FormatHTML, "text/html"},
		{FormatXML, "application/xml"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			d := NewDraft()
			d.SetMethod(MethodPost)
			d.SetRawFormat(tt.format)
			d.SetRawBody("payload")

			body, h, err := BuildBody(d, NewHeaders(), nil)
			require.NoError(t, err)
			assert.Equal(t, "payload", body.String())
			assert.Equal(t, tt.contentType, h.Get("Content-Type"))
			assert.Equal(t, tt.contentType, body.ContentType())
		})
	}

	t.Run("overwrites existing content type", func(t *testing.T) {
		d := NewDraft()
		d.SetMethod(MethodPut)
		d.SetRawBody(`{}`)

		in := NewHeaders()
		in.Set("content-type", "text/csv")

		_, h, err := BuildBody(d, in, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"application/json"}, h.GetAll("Content-Type"))
		assert.Equal(t, "text/csv", in.Get("Content-Type"))
	})
}

func TestBuildBody_FormData(t *testing.T) {
	t.Run("text and file parts", func(t *testing.T) {
		d := NewDraft()
		d.SetMethod(MethodPost)
		d.SetBodyType(BodyFormData)
		d.AddFormField("title", "hello")
		d.AddFormField("", "skipped")
		d.AddFormFile("upload", FileRef{URI: "mem://a.png", Name: "a.png", MIME: "image/png"})

		files := memFiles{"mem://a.png": []byte("PNGDATA")}
		body, h, err := BuildBody(d, NewHeaders(), files)
		require.NoError(t, err)
		assert.True(t, IsMultipart(body))
		assert.False(t, h.Has("Content-Type"))

		parts := readParts(t, body)
		require.Len(t, parts, 2)
		assert.Equal(t, formPart{name: "title", content: "hello"}, parts[0])
		assert.Equal(t, "upload", parts[1].name)
		assert.Equal(t, "a.png", parts[1].filename)
		assert.Equal(t, "image/png", parts[1].contentType)
		assert.Equal(t, "PNGDATA", parts[1].content)
	})

	t.Run("file entry without file ref sends its value", func(t *testing.T) {
		d := NewDraft()
		d.SetMethod(MethodPost)
		d.SetBodyType(BodyFormData)
		d.SetFormData([]FormDataItem{{Key: "doc", Value: "name.txt", Kind: FormFile}})

		body, _, err := BuildBody(d, nil, memFiles{})
		require.NoError(t, err)
		parts := readParts(t, body)
		require.Len(t, parts, 1)
		assert.Equal(t, "name.txt", parts[0].content)
	})

	t.Run("missing file fails", func(t *testing.T) {
		d := NewDraft()
		d.SetMethod(MethodPost)
		d.SetBodyType(BodyFormData)
		d.AddFormFile("upload", FileRef{URI: "mem://missing", Name: "x"})

		_, _, err := BuildBody(d, nil, memFiles{})
		assert.Error(t, err)
	})

	t.Run("reads local files by default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "note.txt")
		require.NoError(t, os.WriteFile(path, []byte("local"), 0644))

		d := NewDraft()
		d.SetMethod(MethodPost)
		d.SetBodyType(BodyFormData)
		d.AddFormFile("note", FileRef{URI: "file://" + path, Name: "note.txt"})

		body, _, err := BuildBody(d, nil, nil)
		require.NoError(t, err)
		parts := readParts(t, body)
		require.Len(t, parts, 1)
		assert.Equal(t, "local", parts[0].content)
		assert.Equal(t, "application/octet-stream", parts[0].contentType)
	})
}

func TestBuildBody_DoesNotMutateDraft(t *testing.T) {
	d := NewDraft()
	d.SetMethod(MethodPost)
	d.AddHeader("X-Trace", "1")
	d.SetRawBody("x")
	before := d.Clone()

	_, _, err := BuildBody(d, HeadersFromPairs(d.Headers), nil)
	require.NoError(t, err)
	assert.Equal(t, before, d)
}

func TestBuildBody_UnknownType(t *testing.T) {
	d := NewDraft()
	d.SetMethod(MethodPost)
	d.SetBodyType("binary")

	_, _, err := BuildBody(d, nil, nil)
	assert.Error(t, err)
}
