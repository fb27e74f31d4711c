package core

import (
	"errors"
	"net/url"
	"strings"
)

// ComposeQuery merges params into the query string of base. Each pair with a
// non-empty key sets that key, so a repeated key keeps its last value.
// Existing segments of base are kept verbatim and in order; a set key
// replaces its first segment and drops the others, a new key is appended.
func ComposeQuery(base string, params []KeyValue) (string, error) {
	u, err := parseAbsoluteURL(base)
	if err != nil {
		return "", err
	}

	var segments []string
	if u.RawQuery != "" {
		segments = strings.Split(u.RawQuery, "&")
	}
	changed := false
	for _, p := range params {
		if p.Key == "" {
			continue
		}
		segments = setSegment(segments, p.Key, p.Value)
		changed = true
	}
	if changed {
		u.RawQuery = strings.Join(segments, "&")
		u.ForceQuery = false
	}
	return u.String(), nil
}

func setSegment(segments []string, key, value string) []string {
	encoded := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	out := segments[:0:0]
	placed := false
	for _, seg := range segments {
		if segmentKey(seg) != key {
			out = append(out, seg)
			continue
		}
		if !placed {
			out = append(out, encoded)
			placed = true
		}
	}
	if !placed {
		out = append(out, encoded)
	}
	return out
}

// segmentKey decodes the key of a raw query segment, falling back to the raw
// text when it is not valid percent-encoding.
func segmentKey(seg string) string {
	k, _, _ := strings.Cut(seg, "=")
	if decoded, err := url.QueryUnescape(k); err == nil {
		return decoded
	}
	return k
}

// setQueryParam overwrites a single query parameter on rawURL.
func setQueryParam(rawURL, key, value string) (string, error) {
	return ComposeQuery(rawURL, []KeyValue{{Key: key, Value: value}})
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, &InvalidURLError{URL: raw, Err: err}
	}
	if !u.IsAbs() {
		return nil, &InvalidURLError{URL: raw, Err: errors.New("missing scheme")}
	}
	if u.Host == "" {
		return nil, &InvalidURLError{URL: raw, Err: errors.New("missing host")}
	}
	return u, nil
}
