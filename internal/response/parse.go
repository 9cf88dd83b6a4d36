// Package response parses the captured output of a curl-impersonate run.
//
// Framing: curl writes the response header block to a dedicated header
// file (-D) and the body, untouched, to stdout. The body is therefore never
// split on a textual separator and may contain any byte sequence,
// including blank lines or text that looks like a status line.
package response

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/runner"
)

// Parsed is the final response recovered from one run.
type Parsed struct {
	Status     int
	StatusText string
	Proto      string
	Headers    Headers
	Body       []byte
	// Blocks counts the header blocks in the dump (redirects, 1xx and proxy
	// CONNECT responses each add one).
	Blocks int
}

// Parse recovers the final response from raw.
//
// A run that exited non-zero without writing a status line fails with
// *errs.ProcessError. A zero exit without a usable header dump fails with
// *errs.MalformedError.
func Parse(raw *runner.RawOutput) (*Parsed, error) {
	block, blocks := lastBlock(raw.Header)
	if len(block) == 0 {
		if raw.ExitCode != 0 {
			return nil, &errs.ProcessError{ExitCode: raw.ExitCode, Stderr: errs.Excerpt(raw.Stderr)}
		}
		reason := "no status line in header dump"
		if len(bytes.TrimSpace(raw.Header)) == 0 {
			reason = "empty header dump"
		}
		return nil, &errs.MalformedError{Reason: reason, Excerpt: errs.Excerpt(raw.Header)}
	}

	p := &Parsed{Body: raw.Body, Blocks: blocks}
	if err := p.parseStatus(block[0]); err != nil {
		return nil, err
	}
	p.Headers = parseHeaders(block[1:])
	return p, nil
}

// lastBlock splits the header dump into lines and returns the lines of the
// last block that starts with a status line.
func lastBlock(dump []byte) ([]string, int) {
	var (
		current []string
		last    []string
		blocks  int
	)
	for _, line := range strings.Split(string(dump), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "HTTP/") {
			if current != nil {
				last = current
			}
			current = []string{line}
			blocks++
			continue
		}
		if current != nil && line != "" {
			current = append(current, line)
		}
	}
	if current != nil {
		last = current
	}
	return last, blocks
}

func (p *Parsed) parseStatus(line string) error {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return &errs.MalformedError{Reason: "truncated status line", Excerpt: errs.Redact(line)}
	}

	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 || code > 999 {
		return &errs.MalformedError{Reason: "invalid status code", Excerpt: errs.Redact(line)}
	}

	p.Proto = fields[0]
	p.Status = code
	if len(fields) == 3 {
		p.StatusText = strings.TrimSpace(fields[2])
	}
	if p.StatusText == "" {
		p.StatusText = http.StatusText(code)
	}
	return nil
}

func parseHeaders(lines []string) Headers {
	headers := make(Headers, 0, len(lines))
	for _, line := range lines {
		// obsolete line folding
		if (line[0] == ' ' || line[0] == '\t') && len(headers) > 0 {
			last := &headers[len(headers)-1]
			last.Value = strings.TrimSpace(last.Value + " " + strings.TrimSpace(line))
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers
}
