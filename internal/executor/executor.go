// Package executor turns a request draft into one network call and a
// display-ready response.
package executor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/interfaces"
	httpclient "github.com/artpar/httphub/internal/protocol/http"
	"go.uber.org/zap"
)

// DefaultTimeout is the deadline for a single send.
const DefaultTimeout = 20 * time.Second

// Executor prepares and sends drafts. It is safe for concurrent use; the
// per-screen ordering lives in Session.
type Executor struct {
	requester interfaces.Requester
	files     core.FileOpener
	recorder  interfaces.Recorder
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures the Executor.
type Option func(*Executor)

// WithRequester sets the transport used for sends.
func WithRequester(r interfaces.Requester) Option {
	return func(e *Executor) {
		e.requester = r
	}
}

// WithFileOpener sets how form-data file entries are read.
func WithFileOpener(f core.FileOpener) Option {
	return func(e *Executor) {
		e.files = f
	}
}

// WithRecorder registers a hook that sees every finished execution.
func WithRecorder(r interfaces.Recorder) Option {
	return func(e *Executor) {
		e.recorder = r
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an executor backed by the HTTP client unless a requester is
// given.
func New(opts ...Option) *Executor {
	e := &Executor{
		files:   core.OSFileOpener{},
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.requester == nil {
		e.requester = httpclient.NewClient()
	}
	return e
}

// Timeout returns the per-send deadline.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Prepare validates the draft and composes query, body and auth, in that
// order. The draft is not modified.
func (e *Executor) Prepare(d *core.RequestDraft) (*core.PreparedRequest, error) {
	if d == nil {
		return nil, &core.ValidationError{Field: "draft", Reason: "is required"}
	}
	if d.Method == "" {
		return nil, &core.ValidationError{Field: "method", Reason: "is required"}
	}
	method, err := core.ParseMethod(string(d.Method))
	if err != nil {
		return nil, &core.ValidationError{Field: "method", Reason: "is not supported"}
	}
	if strings.TrimSpace(d.URL) == "" {
		return nil, &core.ValidationError{Field: "url", Reason: "is required"}
	}

	url, err := core.ComposeQuery(strings.TrimSpace(d.URL), d.QueryParams)
	if err != nil {
		return nil, err
	}

	body, headers, err := core.BuildBody(d, core.HeadersFromPairs(d.Headers), e.files)
	if err != nil {
		return nil, err
	}

	headers, url, err = core.ApplyAuth(d.Auth, headers, url)
	if err != nil {
		return nil, err
	}

	return &core.PreparedRequest{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}, nil
}

// Execute sends the draft once and never returns an error: every failure
// ends up in the view's Error field.
func (e *Executor) Execute(ctx context.Context, d *core.RequestDraft) core.ResponseViewModel {
	req, err := e.Prepare(d)
	if err != nil {
		e.logger.Warn("request not sent", zap.Error(err))
		view := core.ErrorView(err.Error())
		e.record(ctx, d, nil, view)
		return view
	}

	e.logger.Debug("sending request",
		zap.String("method", string(req.Method)),
		zap.String("url", req.URL),
		zap.Int("headers", req.Headers.Len()),
		zap.Int64("body_bytes", req.Body.Size()),
	)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.requester.Send(callCtx, req)
	var view core.ResponseViewModel
	if err != nil {
		view = core.ErrorView(errorMessage(err))
		e.logger.Warn("request failed",
			zap.String("method", string(req.Method)),
			zap.String("url", req.URL),
			zap.Error(err),
		)
	} else {
		view = core.ViewFromResponse(resp)
		e.logger.Debug("response received",
			zap.Int("status", view.Status),
			zap.Duration("duration", view.Duration),
		)
	}

	e.record(ctx, d, req, view)
	return view
}

func (e *Executor) record(ctx context.Context, d *core.RequestDraft, req *core.PreparedRequest, view core.ResponseViewModel) {
	if e.recorder == nil || d == nil {
		return
	}
	exec := interfaces.Execution{
		Draft:    d.Clone(),
		Request:  req,
		Response: view,
	}
	if err := e.recorder.Record(context.WithoutCancel(ctx), exec); err != nil {
		e.logger.Warn("failed to record execution", zap.Error(err))
	}
}

func errorMessage(err error) string {
	var timeoutErr *core.TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.MsgCancelledOrTimedOut
	}
	return err.Error()
}
