package core

import "time"

// TimingInfo contains request/response timing information.
type TimingInfo struct {
	StartTime time.Time
	EndTime   time.Time
	Total     time.Duration
}

// Status represents an HTTP status code and its status line.
type Status struct {
	code int
	text string
}

// NewStatus creates a new status.
func NewStatus(code int, text string) *Status {
	return &Status{
		code: code,
		text: text,
	}
}

func (s *Status) Code() int    { return s.code }
func (s *Status) Text() string { return s.text }

func (s *Status) IsSuccess() bool {
	return s.code >= 200 && s.code < 300
}

func (s *Status) IsError() bool {
	return s.code >= 400
}

// Response is what the transport hands back for one call.
type Response struct {
	status  *Status
	headers *Headers
	body    Body
	timing  TimingInfo
}

// NewResponse creates a response with the given status.
func NewResponse(status *Status) *Response {
	return &Response{
		status:  status,
		headers: NewHeaders(),
		body:    NewEmptyBody(),
	}
}

func (r *Response) Status() *Status    { return r.status }
func (r *Response) Headers() *Headers  { return r.headers }
func (r *Response) Body() Body         { return r.body }
func (r *Response) Timing() TimingInfo { return r.timing }

// WithHeaders sets the response headers and returns the response for chaining.
func (r *Response) WithHeaders(h *Headers) *Response {
	r.headers = h
	return r
}

// WithBody sets the response body and returns the response for chaining.
func (r *Response) WithBody(b Body) *Response {
	r.body = b
	return r
}

// WithTiming sets the timing info and returns the response for chaining.
func (r *Response) WithTiming(t TimingInfo) *Response {
	r.timing = t
	return r
}

// ResponseViewModel is the display-ready outcome of one send. It is always
// replaced as a whole; when Error is set, no status, headers or body are.
type ResponseViewModel struct {
	Loading    bool          `json:"loading"`
	Status     int           `json:"status,omitempty"`
	StatusText string        `json:"statusText,omitempty"`
	Headers    []KeyValue    `json:"headers"`
	BodyText   string        `json:"body"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"-"`
}

// LoadingView is shown while a call is in flight.
func LoadingView() ResponseViewModel {
	return ResponseViewModel{Loading: true, Headers: []KeyValue{}}
}

// EmptyView is the cleared response panel.
func EmptyView() ResponseViewModel {
	return ResponseViewModel{Headers: []KeyValue{}}
}

// ErrorView reports a failed send.
func ErrorView(msg string) ResponseViewModel {
	return ResponseViewModel{Headers: []KeyValue{}, Error: msg}
}

// ViewFromResponse normalizes a transport response.
func ViewFromResponse(resp *Response) ResponseViewModel {
	return ResponseViewModel{
		Status:     resp.Status().Code(),
		StatusText: resp.Status().Text(),
		Headers:    resp.Headers().Pairs(),
		BodyText:   resp.Body().String(),
		Duration:   resp.Timing().Total,
	}
}

// Failed reports whether the view carries an error instead of a response.
func (v ResponseViewModel) Failed() bool {
	return v.Error != ""
}
