package history

import (
	"context"
	"strings"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/interfaces"
)

// Recorder writes every finished execution to a Store.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record implements interfaces.Recorder.
func (r *Recorder) Record(ctx context.Context, exec interfaces.Execution) error {
	_, err := r.store.Add(ctx, EntryFrom(exec, r.now()))
	return err
}

// EntryFrom flattens an execution into a history entry. Drafts that never
// reached the network are recorded with their raw URL.
func EntryFrom(exec interfaces.Execution, at time.Time) Entry {
	entry := Entry{
		Timestamp:       at,
		Status:          exec.Response.Status,
		StatusText:      exec.Response.StatusText,
		ResponseHeaders: exec.Response.Headers,
		ResponseBody:    exec.Response.BodyText,
		DurationMs:      exec.Response.Duration.Milliseconds(),
		Size:            int64(len(exec.Response.BodyText)),
		Error:           exec.Response.Error,
	}

	if d := exec.Draft; d != nil {
		entry.Name = d.Name
		entry.Method = string(d.Method)
		entry.URL = d.URL
		if d.Auth != nil && d.Auth.Kind() != core.AuthNone {
			entry.Auth = core.Summary(d.Auth)
		}
	}

	if req := exec.Request; req != nil {
		entry.Method = string(req.Method)
		entry.URL = req.URL
		entry.RequestHeaders = redact(req.Headers.Pairs(), exec.Draft)
		if req.Body != nil && !core.IsMultipart(req.Body) {
			entry.RequestBody = req.Body.String()
		}
	}

	return entry
}

// redact hides credentials that auth put into headers.
func redact(pairs []core.KeyValue, d *core.RequestDraft) []core.KeyValue {
	secret := map[string]bool{"authorization": true}
	if d != nil {
		if key, ok := d.Auth.(core.APIKeyAuth); ok && key.Location != core.APIKeyInQuery {
			secret[strings.ToLower(key.Key)] = true
		}
	}
	out := make([]core.KeyValue, len(pairs))
	for i, kv := range pairs {
		out[i] = kv
		if secret[strings.ToLower(kv.Key)] {
			out[i].Value = "[redacted]"
		}
	}
	return out
}

var _ interfaces.Recorder = (*Recorder)(nil)
