package core

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ParseHeaderLine reads "Key: Value". The key must be non-empty.
func ParseHeaderLine(s string) (KeyValue, error) {
	return splitPair(s, ":", "header")
}

// ParseParamLine reads "key=value". A missing "=" gives an empty value.
func ParseParamLine(s string) (KeyValue, error) {
	if !strings.Contains(s, "=") {
		key := strings.TrimSpace(s)
		if key == "" {
			return KeyValue{}, fmt.Errorf("invalid query parameter %q: empty key", s)
		}
		return KeyValue{Key: key}, nil
	}
	return splitPair(s, "=", "query parameter")
}

// ParseFormLine reads a form-data entry: "key=value" for text, or
// "key=@path[;type=mime]" for a file. Without an explicit type the MIME is
// guessed from the file extension.
func ParseFormLine(s string) (FormDataItem, error) {
	kv, err := splitPair(s, "=", "form field")
	if err != nil {
		return FormDataItem{}, err
	}
	if !strings.HasPrefix(kv.Value, "@") {
		return FormDataItem{Key: kv.Key, Value: kv.Value, Kind: FormText}, nil
	}

	path, mimeType := strings.TrimPrefix(kv.Value, "@"), ""
	if i := strings.Index(path, ";type="); i >= 0 {
		path, mimeType = path[:i], path[i+len(";type="):]
	}
	if path == "" {
		return FormDataItem{}, fmt.Errorf("invalid form field %q: empty file path", s)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	file := FileRef{URI: path, Name: filepath.Base(path), MIME: mimeType}
	return FormDataItem{Key: kv.Key, Value: file.Name, Kind: FormFile, File: &file}, nil
}

// FormatFormLine is the inverse of ParseFormLine, used to prefill editors.
func FormatFormLine(item FormDataItem) string {
	if item.Kind == FormFile && item.File != nil {
		return item.Key + "=@" + item.File.URI
	}
	return item.Key + "=" + item.Value
}

func splitPair(s, sep, what string) (KeyValue, error) {
	idx := strings.Index(s, sep)
	if idx == -1 {
		return KeyValue{}, fmt.Errorf("invalid %s %q: expected key%svalue", what, s, sep)
	}
	key := strings.TrimSpace(s[:idx])
	if key == "" {
		return KeyValue{}, fmt.Errorf("invalid %s %q: empty key", what, s)
	}
	return KeyValue{Key: key, Value: strings.TrimSpace(s[idx+1:])}, nil
}
