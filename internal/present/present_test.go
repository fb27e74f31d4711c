package present

import (
	"testing"

	"github.com/artpar/httphub/internal/core"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresent(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		format core.RawFormat
		mode   Mode
		want   string
	}{
		{"pretty json", `{"a":1,"b":[true,null]}`, core.FormatJSON, ModePretty, "{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}"},
		{"pretty keeps key order", `{"z":1,"a":2}`, core.FormatJSON, ModePretty, "{\n  \"z\": 1,\n  \"a\": 2\n}"},
		{"pretty invalid json unchanged", `{"a":`, core.FormatJSON, ModePretty, `{"a":`},
		{"pretty empty body", "", core.FormatJSON, ModePretty, ""},
		{"pretty non-json format unchanged", `{"a":1}`, core.FormatText, ModePretty, `{"a":1}`},
		{"pretty html unchanged", "<p>hi</p>", core.FormatHTML, ModePretty, "<p>hi</p>"},
		{"raw unchanged", `{"a":1}`, core.FormatJSON, ModeRaw, `{"a":1}`},
		{"preview placeholder", "<html></html>", core.FormatHTML, ModePreview, PreviewPlaceholder},
		{"unknown mode behaves as raw", "x", core.FormatJSON, Mode("fancy"), "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Present(tt.body, tt.format, tt.mode))
		})
	}
}

func TestPresent_Idempotent(t *testing.T) {
	bodies := []string{
		`{"a":{"b":[1,2,{"c":"d"}]}}`,
		"[1, 2,   3]\n",
		`"just a string"`,
		`not json at all`,
		"",
	}
	for _, body := range bodies {
		for _, mode := range Modes() {
			once := Present(body, core.FormatJSON, mode)
			twice := Present(once, core.FormatJSON, mode)
			assert.Equal(t, once, twice, "mode %s body %q", mode, body)
		}
	}
}

func TestPresent_PrettyRoundTrip(t *testing.T) {
	bodies := []string{
		`{"name":"httphub","tags":["a","b"],"n":1.5,"ok":false,"none":null}`,
		`[{"id":1},{"id":2}]`,
		`{"unicode":"héllo ☃","escaped":"a\"b"}`,
	}
	for _, body := range bodies {
		var before, after any
		require.NoError(t, json.Unmarshal([]byte(body), &before))
		require.NoError(t, json.Unmarshal([]byte(Present(body, core.FormatJSON, ModePretty)), &after))
		assert.Equal(t, before, after)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Pretty")
	require.NoError(t, err)
	assert.Equal(t, ModePretty, m)

	_, err = ParseMode("html")
	assert.Error(t, err)
}

func TestMode_Next(t *testing.T) {
	assert.Equal(t, ModeRaw, ModePretty.Next())
	assert.Equal(t, ModePreview, ModeRaw.Next())
	assert.Equal(t, ModePretty, ModePreview.Next())
	assert.Equal(t, ModePretty, Mode("").Next())
	assert.Equal(t, "Preview", ModePreview.Title())
}
