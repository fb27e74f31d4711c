package executor

import (
	"context"
	"sync"

	"github.com/artpar/httphub/internal/core"
)

// Result is the outcome of one Session.Send. Applied is false when a newer
// send started before this one finished; View is then discarded.
type Result struct {
	Generation uint64
	View       core.ResponseViewModel
	Applied    bool
}

// Session owns the response panel of one screen. Only the latest send may
// write to it.
type Session struct {
	exec *Executor

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	view       core.ResponseViewModel
}

// NewSession creates a session with an empty response.
func NewSession(exec *Executor) *Session {
	return &Session{
		exec: exec,
		view: core.EmptyView(),
	}
}

// Send starts a new generation and blocks until its call finishes. Earlier
// in-flight calls keep running but can no longer commit.
func (s *Session) Send(ctx context.Context, d *core.RequestDraft) Result {
	return s.Start(ctx, d)()
}

// Start begins a new generation immediately and returns the call that runs
// it. Callers that run the call on another goroutine use it so generations
// follow the order of user actions, not of goroutine scheduling.
func (s *Session) Start(ctx context.Context, d *core.RequestDraft) func() Result {
	gen, callCtx, cancel := s.begin(ctx)
	return func() Result {
		defer cancel()
		return s.commit(gen, s.exec.Execute(callCtx, d))
	}
}

// Cancel aborts the latest in-flight call, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Response returns the current view model.
func (s *Session) Response() core.ResponseViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Generation returns the number of sends started so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// IsCurrent reports whether gen is the latest generation.
func (s *Session) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// Clear empties the response panel unless a call is in flight.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Loading {
		return
	}
	s.view = core.EmptyView()
}

func (s *Session) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cancel = cancel
	s.view = core.LoadingView()
	return s.generation, callCtx, cancel
}

func (s *Session) commit(gen uint64, view core.ResponseViewModel) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return Result{Generation: gen, View: view}
	}
	view.Loading = false
	s.view = view
	s.cancel = nil
	return Result{Generation: gen, View: view, Applied: true}
}
