// Package command turns a resolved descriptor and a request into the exact
// argument vector passed to curl-impersonate.
//
// Arguments are assembled as a literal vector and never joined into a shell
// string. Caller-supplied extra arguments are placed after every computed
// flag; curl honours the last occurrence of a repeated option, so extra
// arguments override conflicting computed values (for example an explicit
// --max-time beats the request timeout).
package command

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

const (
	// DefaultMaxRedirects applies when a request leaves MaxRedirects at zero.
	DefaultMaxRedirects = 10
	// InlineBodyLimit is the largest body passed inline on the command line.
	// Larger bodies go through a temporary file.
	InlineBodyLimit = 64 << 10
)

// Header is one request header. Order and case are preserved.
type Header struct {
	Name  string
	Value string
}

// Param is one query parameter.
type Param struct {
	Key   string
	Value string
}

// Request is the per-call request configuration. The builder never
// modifies it.
type Request struct {
	URL     string
	BaseURL string
	Method  string
	Headers []Header
	Params  []Param
	// Body is nil, a string, a []byte, an io.Reader, or any value that is
	// encoded as JSON.
	Body    any
	Timeout time.Duration
	// MaxRedirects of zero means DefaultMaxRedirects; a negative value
	// disables redirect following.
	MaxRedirects int
	InsecureTLS  bool
	ExtraArgs    []string
}

// EffectiveMethod returns the upper-cased method, GET when empty.
func (r *Request) EffectiveMethod() string {
	if r.Method == "" {
		return "GET"
	}
	return strings.ToUpper(r.Method)
}

// ResolveURL joins the base URL and appends query parameters in order.
func ResolveURL(req *Request) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", errs.InvalidRequest("url is required")
	}

	ref, err := url.Parse(req.URL)
	if err != nil {
		return "", errs.InvalidRequest("parse url: %v", err)
	}

	u := ref
	if req.BaseURL != "" {
		base, err := url.Parse(req.BaseURL)
		if err != nil || !base.IsAbs() {
			return "", errs.InvalidRequest("invalid base url %q", req.BaseURL)
		}
		u = base.ResolveReference(ref)
	}

	if !u.IsAbs() || u.Host == "" {
		return "", errs.InvalidRequest("url %q is not absolute", u.String())
	}

	if len(req.Params) > 0 {
		pairs := make([]string, 0, len(req.Params))
		for _, p := range req.Params {
			pairs = append(pairs, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
		}
		query := strings.Join(pairs, "&")
		if u.RawQuery == "" {
			u.RawQuery = query
		} else {
			u.RawQuery += "&" + query
		}
	}

	return u.String(), nil
}

// validMethod accepts HTTP token characters only.
func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for _, c := range m {
		if c <= ' ' || c >= 0x7f || strings.ContainsRune(`"(),/:;<=>?@[\]{}`, c) {
			return false
		}
	}
	return true
}

func validateHeader(h Header) error {
	if h.Name == "" {
		return errs.InvalidRequest("empty header name")
	}
	for _, c := range h.Name {
		if c <= ' ' || c >= 0x7f || c == ':' {
			return errs.InvalidRequest("invalid header name %q", h.Name)
		}
	}
	if strings.ContainsAny(h.Value, "\r\n\x00") {
		return errs.InvalidRequest("header %s contains a line break", h.Name)
	}
	return nil
}

// mergeHeaders validates the request headers and overlays them on the
// profile defaults.
func mergeHeaders(defaults [][2]string, request []Header) ([]Header, error) {
	for _, h := range request {
		if err := validateHeader(h); err != nil {
			return nil, err
		}
	}

	base := make([]Header, 0, len(defaults))
	for _, d := range defaults {
		base = append(base, Header{Name: d[0], Value: d[1]})
	}
	return Overlay(base, request), nil
}

// Overlay applies overrides to base. An override replaces, at its position,
// the first base entry of the same name (case-insensitively) that no earlier
// override has replaced. Other overrides are appended in order, so repeated
// headers of one name are all kept.
func Overlay(base, overrides []Header) []Header {
	merged := make([]Header, len(base), len(base)+len(overrides))
	copy(merged, base)

	replaced := make([]bool, len(base))
	for _, h := range overrides {
		idx := -1
		for i := range base {
			if !replaced[i] && strings.EqualFold(base[i].Name, h.Name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			merged = append(merged, h)
			continue
		}
		merged[idx] = h
		replaced[idx] = true
	}
	return merged
}

func hasHeader(headers []Header, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

// headerArg renders a header for -H. curl drops headers with an empty value
// unless they are written as "Name;".
func headerArg(h Header) string {
	if h.Value == "" {
		return h.Name + ";"
	}
	return fmt.Sprintf("%s: %s", h.Name, h.Value)
}
