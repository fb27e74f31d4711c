package history

import (
	"time"

	"github.com/artpar/httphub/internal/core"
)

// Entry is one executed request and what came back.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name,omitempty"`

	// Request data, as sent
	Method         string          `json:"method"`
	URL            string          `json:"url"`
	RequestHeaders []core.KeyValue `json:"requestHeaders,omitempty"`
	RequestBody    string          `json:"requestBody,omitempty"`
	Auth           string          `json:"auth,omitempty"` // masked summary

	// Response data
	Status          int             `json:"status"`
	StatusText      string          `json:"statusText,omitempty"`
	ResponseHeaders []core.KeyValue `json:"responseHeaders,omitempty"`
	ResponseBody    string          `json:"responseBody,omitempty"`
	DurationMs      int64           `json:"durationMs"`
	Size            int64           `json:"size"`
	Error           string          `json:"error,omitempty"`
}

// Failed reports whether the call produced no response.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// QueryOptions specifies filters and pagination for history queries.
type QueryOptions struct {
	Method     string    // exact method
	URLPattern string    // SQL LIKE pattern
	StatusMin  int       // minimum status code
	StatusMax  int       // maximum status code
	FailedOnly bool      // only calls that never got a response
	After      time.Time // only entries after this time
	Before     time.Time // only entries before this time
	Search     string    // substring of url, name, bodies or error

	Limit  int // 0 = no limit
	Offset int
}

// PruneOptions specifies criteria for pruning old history entries. OlderThan
// takes precedence over KeepLast.
type PruneOptions struct {
	OlderThan time.Duration
	KeepLast  int
}

// PruneResult contains the result of a prune operation.
type PruneResult struct {
	DeletedCount int64 `json:"deletedCount"`
}
