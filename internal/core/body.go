package core

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
)

const defaultFileMIME = "application/octet-stream"

// FileOpener reads the file behind a form-data file reference.
type FileOpener interface {
	Open(uri string) (io.ReadCloser, error)
}

// OSFileOpener opens local paths and file:// URIs.
type OSFileOpener struct{}

func (OSFileOpener) Open(uri string) (io.ReadCloser, error) {
	return os.Open(strings.TrimPrefix(uri, "file://"))
}

// BuildBody produces the payload for d and a header set carrying the
// matching Content-Type. Neither d nor headers is modified.
//
// Multipart bodies do not touch Content-Type here: the boundary lives in
// Body.ContentType and the transport applies it.
func BuildBody(d *RequestDraft, headers *Headers, files FileOpener) (Body, *Headers, error) {
	out := NewHeaders()
	if headers != nil {
		out = headers.Clone()
	}

	if !d.Method.AllowsBody() {
		return NewEmptyBody(), out, nil
	}

	switch d.BodyType {
	case BodyRaw, "":
		out.Set("Content-Type", d.RawFormat.ContentType())
		return NewRawBody([]byte(d.RawBody), d.RawFormat.ContentType()), out, nil

	case BodyFormData:
		if files == nil {
			files = OSFileOpener{}
		}
		body, err := buildMultipart(d.FormData, files)
		if err != nil {
			return nil, nil, err
		}
		return body, out, nil

	default:
		return nil, nil, fmt.Errorf("unsupported body type %q", d.BodyType)
	}
}

func buildMultipart(items []FormDataItem, files FileOpener) (Body, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for _, item := range items {
		if item.Key == "" {
			continue
		}
		if item.Kind == FormFile && item.File != nil {
			if err := writeFilePart(writer, item, files); err != nil {
				return nil, err
			}
			continue
		}
		if err := writer.WriteField(item.Key, item.Value); err != nil {
			return nil, fmt.Errorf("failed to write form field %q: %w", item.Key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &multipartBody{
		content:     buf.Bytes(),
		contentType: writer.FormDataContentType(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(writer *multipart.Writer, item FormDataItem, files FileOpener) error {
	f, err := files.Open(item.File.URI)
	if err != nil {
		return fmt.Errorf("failed to open form file %q: %w", item.File.URI, err)
	}
	defer f.Close()

	name := item.File.Name
	if name == "" {
		name = "file"
	}
	mimeType := item.File.MIME
	if mimeType == "" {
		mimeType = defaultFileMIME
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(item.Key), quoteEscaper.Replace(name)))
	h.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form file part %q: %w", item.Key, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy form file %q: %w", item.File.URI, err)
	}
	return nil
}
