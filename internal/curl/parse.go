package curl

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/artpar/httphub/internal/core"
)

// valueOptions are curl options that consume the next token and have no
// meaning for a draft.
var valueOptions = map[string]bool{
	"-o": true, "--output": true,
	"-m": true, "--max-time": true,
	"--connect-timeout": true,
	"-w": true, "--write-out": true,
	"-x": true, "--proxy": true,
	"-c": true, "--cookie-jar": true,
	"--cacert": true, "--cert": true, "--key": true,
	"--retry": true, "--max-redirs": true,
	"-T": true, "--upload-file": true,
}

var continuations = strings.NewReplacer("\\\r\n", " ", "\\\n", " ")

type parsed struct {
	method   core.Method
	url      string
	headers  []core.KeyValue
	data     []string
	form     []core.FormDataItem
	auth     core.AuthConfig
	head     bool
	getQuery bool
}

// Parse reads a curl command line into a new draft. Options the draft
// cannot express are skipped.
func Parse(command string) (*core.RequestDraft, error) {
	tokens, err := tokenize(continuations.Replace(command))
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || tokens[0] != "curl" {
		return nil, fmt.Errorf("not a curl command")
	}

	p := &parsed{}
	for i := 1; i < len(tokens); i++ {
		token := tokens[i]
		next := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("option %s needs a value", token)
			}
			i++
			return tokens[i], nil
		}

		switch token {
		case "-X", "--request":
			v, err := next()
			if err != nil {
				return nil, err
			}
			m, err := core.ParseMethod(v)
			if err != nil {
				return nil, err
			}
			p.method = m

		case "-H", "--header":
			v, err := next()
			if err != nil {
				return nil, err
			}
			kv, err := core.ParseHeaderLine(v)
			if err != nil {
				return nil, err
			}
			p.addHeader(kv)

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			v, err := next()
			if err != nil {
				return nil, err
			}
			p.data = append(p.data, v)

		case "--json":
			v, err := next()
			if err != nil {
				return nil, err
			}
			p.data = append(p.data, v)
			p.headers = append(p.headers,
				core.KeyValue{Key: "Content-Type", Value: "application/json"},
				core.KeyValue{Key: "Accept", Value: "application/json"})

		case "-F", "--form":
			v, err := next()
			if err != nil {
				return nil, err
			}
			item, err := core.ParseFormLine(v)
			if err != nil {
				return nil, err
			}
			p.form = append(p.form, item)

		case "--form-string":
			v, err := next()
			if err != nil {
				return nil, err
			}
			key, value, _ := strings.Cut(v, "=")
			p.form = append(p.form, core.FormDataItem{Key: key, Value: value, Kind: core.FormText})

		case "-u", "--user":
			v, err := next()
			if err != nil {
				return nil, err
			}
			user, pass, _ := strings.Cut(v, ":")
			p.auth = core.BasicAuth{Username: user, Password: pass}

		case "-A", "--user-agent", "-e", "--referer", "-b", "--cookie":
			v, err := next()
			if err != nil {
				return nil, err
			}
			p.headers = append(p.headers, core.KeyValue{Key: headerFor(token), Value: v})

		case "--compressed":
			p.headers = append(p.headers, core.KeyValue{Key: "Accept-Encoding", Value: "gzip, deflate, br"})

		case "-I", "--head":
			p.head = true

		case "-G", "--get":
			p.getQuery = true

		case "--url":
			v, err := next()
			if err != nil {
				return nil, err
			}
			p.url = v

		default:
			switch {
			case valueOptions[token]:
				i++
			case strings.HasPrefix(token, "-"):
			case p.url == "":
				p.url = token
			}
		}
	}

	if p.url == "" {
		return nil, ErrNoURL
	}
	return p.draft()
}

func (p *parsed) addHeader(kv core.KeyValue) {
	if strings.EqualFold(kv.Key, "Authorization") {
		if token, ok := strings.CutPrefix(kv.Value, "Bearer "); ok {
			p.auth = core.BearerAuth{Token: strings.TrimSpace(token)}
			return
		}
	}
	p.headers = append(p.headers, kv)
}

func headerFor(option string) string {
	switch option {
	case "-A", "--user-agent":
		return "User-Agent"
	case "-e", "--referer":
		return "Referer"
	default:
		return "Cookie"
	}
}

func (p *parsed) draft() (*core.RequestDraft, error) {
	rawURL := p.url
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	base, params, err := splitQuery(rawURL)
	if err != nil {
		return nil, err
	}

	d := core.NewDraft()
	d.SetURL(base)
	d.SetName(nameFromURL(base))

	switch {
	case p.method != "":
		d.SetMethod(p.method)
	case p.head:
		d.SetMethod(core.MethodHead)
	case (len(p.data) > 0 && !p.getQuery) || len(p.form) > 0:
		d.SetMethod(core.MethodPost)
	}

	if p.getQuery {
		for _, chunk := range p.data {
			more, err := parseQuery(chunk)
			if err != nil {
				return nil, err
			}
			params = append(params, more...)
		}
	}
	d.SetParams(params)

	contentType := ""
	for _, kv := range p.headers {
		if strings.EqualFold(kv.Key, "Content-Type") {
			contentType = kv.Value
		}
	}

	switch {
	case len(p.form) > 0:
		d.SetBodyType(core.BodyFormData)
		d.SetFormData(p.form)
	case len(p.data) > 0 && !p.getQuery:
		body := strings.Join(p.data, "&")
		format, known := formatFor(contentType, body)
		d.SetBodyType(core.BodyRaw)
		d.SetRawFormat(format)
		d.SetRawBody(body)
		if known {
			contentType = ""
		}
	}

	for _, kv := range p.headers {
		if strings.EqualFold(kv.Key, "Content-Type") && (contentType == "" || len(p.form) > 0) {
			continue
		}
		d.AddHeader(kv.Key, kv.Value)
	}

	if p.auth != nil {
		d.SetAuth(p.auth)
	}
	return d, nil
}

// formatFor picks the raw format for a body sent with contentType. known is
// false when the content type has no matching format and must stay a header.
func formatFor(contentType, body string) (core.RawFormat, bool) {
	if contentType == "" {
		trimmed := strings.TrimSpace(body)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return core.FormatJSON, true
		}
		return core.FormatText, true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return core.FormatText, false
	}
	for _, f := range core.RawFormats() {
		if f.ContentType() == mediaType {
			return f, true
		}
	}
	return core.FormatText, false
}

// splitQuery separates the query string from rawURL, keeping param order.
func splitQuery(rawURL string) (string, []core.KeyValue, error) {
	base, query, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL, []core.KeyValue{}, nil
	}
	params, err := parseQuery(query)
	return base, params, err
}

func parseQuery(query string) ([]core.KeyValue, error) {
	params := []core.KeyValue{}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("invalid query %q: %w", pair, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("invalid query %q: %w", pair, err)
		}
		params = append(params, core.KeyValue{Key: key, Value: value})
	}
	return params, nil
}

// nameFromURL uses the last path segment, or the host when there is none.
func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if segment := path.Base(strings.TrimRight(u.Path, "/")); segment != "." && segment != "/" && segment != "" {
		return segment
	}
	return u.Hostname()
}

// tokenize splits a command line the way a POSIX shell does for quoting:
// no escapes inside single quotes, backslash escapes elsewhere.
func tokenize(cmd string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken, escaped := false, false

	for _, r := range cmd {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\\':
			escaped, inToken = true, true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inToken = r, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
