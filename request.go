package cuimp

import (
	"net/http"
	"time"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/binary"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/command"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/descriptor"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/response"
)

type (
	// Descriptor selects the browser profile and the binary variant.
	Descriptor = descriptor.Descriptor
	// Header is one request header; order and case are preserved.
	Header = command.Header
	// Param is one query parameter.
	Param = command.Param
	// Headers are the response headers in arrival order.
	Headers = response.Headers
	// BinaryRecord describes a ready curl-impersonate binary.
	BinaryRecord = binary.Record
)

// Request describes one HTTP request. Zero fields fall back to the
// client's defaults. The client never modifies a Request.
type Request struct {
	Method  string
	URL     string
	BaseURL string
	Headers []Header
	Params  []Param
	// Body is nil, a string, a []byte, an io.Reader, or any value that is
	// encoded as JSON.
	Body any

	Timeout time.Duration
	// MaxRedirects of zero uses the client default (10 unless configured);
	// a negative value disables redirect following.
	MaxRedirects int
	// Proxy overrides the client proxy and the proxy environment.
	Proxy       string
	InsecureTLS bool
	// ExtraArgs are appended after every computed curl flag and therefore
	// override them.
	ExtraArgs []string

	// Descriptor fields override the client defaults one by one.
	Descriptor Descriptor

	// Into receives the decoded body: *string and *[]byte get the raw body,
	// anything else is decoded as JSON.
	Into any
}

// RequestEcho records what was actually executed.
type RequestEcho struct {
	ID         string
	URL        string
	Method     string
	Headers    []Header
	Command    []string
	Binary     string
	Descriptor Descriptor
	// Proxy is the proxy in effect, with credentials redacted.
	Proxy string
}

// Response is the outcome of one request.
type Response struct {
	Status     int
	StatusText string
	Proto      string
	Headers    Headers
	Body       []byte

	// Data is Request.Into after decoding, or the decoded JSON value when
	// no target was given and the body is JSON.
	Data any
	// DecodeErr reports a failed decode. The rest of the response is
	// still valid.
	DecodeErr error

	Request  RequestEcho
	Duration time.Duration
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return response.Decode(r.parsed(), v)
}

func (r *Response) parsed() *response.Parsed {
	return &response.Parsed{
		Status:     r.Status,
		StatusText: r.StatusText,
		Proto:      r.Proto,
		Headers:    r.Headers,
		Body:       r.Body,
	}
}
