package present

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrNotJSON is returned when selecting from a body that is not JSON.
	ErrNotJSON = errors.New("response body is not valid JSON")
	// ErrNoMatch is returned when the path selects nothing.
	ErrNoMatch = errors.New("path matched nothing")
)

// Select extracts the value at a gjson path such as "data.items.0.id" or
// "items.#.name". Strings come back unquoted; everything else as raw JSON.
func Select(body, path string) (string, error) {
	if !gjson.Valid(body) {
		return "", ErrNotJSON
	}
	result := gjson.Get(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, path)
	}
	if result.Type == gjson.String {
		return result.Str, nil
	}
	return result.Raw, nil
}
