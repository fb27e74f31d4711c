package core

import (
	"net/http"
	"sort"
	"strings"
)

// Headers is a case-insensitive header set that remembers the order and
// casing in which keys were first added.
type Headers struct {
	data     map[string][]string
	keyOrder []string
}

// NewHeaders creates an empty header set.
func NewHeaders() *Headers {
	return &Headers{
		data:     make(map[string][]string),
		keyOrder: make([]string, 0),
	}
}

// HeadersFromPairs builds a header set from an editable key/value list.
// Pairs with an empty key are skipped and a repeated key keeps the last value.
func HeadersFromPairs(pairs []KeyValue) *Headers {
	h := NewHeaders()
	for _, p := range pairs {
		if strings.TrimSpace(p.Key) == "" {
			continue
		}
		h.Set(p.Key, p.Value)
	}
	return h
}

// HeadersFromHTTP converts net/http headers. Keys are sorted so the result is
// deterministic; values of a repeated header keep their received order.
func HeadersFromHTTP(src http.Header) *Headers {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := NewHeaders()
	for _, k := range keys {
		for _, v := range src[k] {
			h.Add(k, v)
		}
	}
	return h
}

func (h *Headers) normalize(key string) string {
	return strings.ToLower(key)
}

func (h *Headers) Set(key, value string) {
	normalized := h.normalize(key)
	if _, exists := h.data[normalized]; !exists {
		h.keyOrder = append(h.keyOrder, key)
	} else {
		for i, k := range h.keyOrder {
			if h.normalize(k) == normalized {
				h.keyOrder[i] = key
				break
			}
		}
	}
	h.data[normalized] = []string{value}
}

func (h *Headers) Add(key, value string) {
	normalized := h.normalize(key)
	if _, exists := h.data[normalized]; !exists {
		h.keyOrder = append(h.keyOrder, key)
	}
	h.data[normalized] = append(h.data[normalized], value)
}

func (h *Headers) Get(key string) string {
	values := h.data[h.normalize(key)]
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

func (h *Headers) Has(key string) bool {
	_, ok := h.data[h.normalize(key)]
	return ok
}

func (h *Headers) GetAll(key string) []string {
	values := h.data[h.normalize(key)]
	if values == nil {
		return []string{}
	}
	result := make([]string, len(values))
	copy(result, values)
	return result
}

func (h *Headers) Del(key string) {
	normalized := h.normalize(key)
	delete(h.data, normalized)
	for i, k := range h.keyOrder {
		if h.normalize(k) == normalized {
			h.keyOrder = append(h.keyOrder[:i], h.keyOrder[i+1:]...)
			break
		}
	}
}

func (h *Headers) Keys() []string {
	result := make([]string, len(h.keyOrder))
	copy(result, h.keyOrder)
	return result
}

func (h *Headers) Len() int {
	return len(h.keyOrder)
}

func (h *Headers) Clone() *Headers {
	clone := NewHeaders()
	for _, key := range h.keyOrder {
		for _, v := range h.data[h.normalize(key)] {
			clone.Add(key, v)
		}
	}
	return clone
}

// Pairs flattens the set into key/value entries, one per value.
func (h *Headers) Pairs() []KeyValue {
	result := make([]KeyValue, 0, len(h.keyOrder))
	for _, key := range h.keyOrder {
		for _, v := range h.data[h.normalize(key)] {
			result = append(result, KeyValue{Key: key, Value: v})
		}
	}
	return result
}

func (h *Headers) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, key := range h.keyOrder {
		normalized := h.normalize(key)
		result[key] = make([]string, len(h.data[normalized]))
		copy(result[key], h.data[normalized])
	}
	return result
}
