// Package interfaces defines the abstractions shared between the request
// engine and its collaborators.
package interfaces

import (
	"context"

	"github.com/artpar/httphub/internal/core"
)

// Requester sends a prepared request over the wire.
// Implemented by: protocol/http.Client.
type Requester interface {
	// Send executes a request and returns the response. A non-2xx status is
	// a response, not an error.
	Send(ctx context.Context, req *core.PreparedRequest) (*core.Response, error)

	// Protocol returns the protocol identifier (e.g., "http").
	Protocol() string
}

// Execution describes one finished send, successful or not.
type Execution struct {
	Draft    *core.RequestDraft
	Request  *core.PreparedRequest
	Response core.ResponseViewModel
}

// Recorder observes finished executions, e.g. to keep a history.
// Implemented by: history.Recorder.
type Recorder interface {
	Record(ctx context.Context, exec Execution) error
}
