package core

import "fmt"

// MsgCancelledOrTimedOut is shown for both user cancellation and timeouts.
const MsgCancelledOrTimedOut = "Request cancelled or timed out"

// ValidationError reports a draft that cannot be sent at all.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// InvalidURLError reports a URL that is not a well-formed absolute URL.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid URL %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure such as DNS or connection errors.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError wraps a call aborted by its deadline or by cancellation.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return MsgCancelledOrTimedOut
}

func (e *TimeoutError) Unwrap() error { return e.Err }
