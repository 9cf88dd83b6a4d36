package command

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/descriptor"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/proxy"
)

// Invocation is a fully specified process invocation.
type Invocation struct {
	Path string
	Args []string

	// URL, Method and Headers echo what is sent.
	URL     string
	Method  string
	Headers []Header

	// HeaderFile receives curl's response header dump.
	HeaderFile string
	// Timeout is the effective --max-time of Args, zero when unset.
	Timeout time.Duration

	tempDir string
}

// Argv returns the path followed by the arguments.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.Path}, inv.Args...)
}

// Cleanup removes the invocation's temporary files.
func (inv *Invocation) Cleanup() error {
	if inv.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(inv.tempDir)
	inv.tempDir = ""
	return err
}

// String renders a shell-quoted preview. It is for display only; the
// invocation itself never goes through a shell.
func (inv *Invocation) String() string {
	return Join(inv.Argv())
}

// Join shell-quotes argv into one line for display.
func Join(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// Builder assembles invocations.
type Builder struct {
	tempDir string
}

// NewBuilder creates a builder that places per-request files under tempDir
// ("" means the system temporary directory).
func NewBuilder(tempDir string) *Builder {
	return &Builder{tempDir: tempDir}
}

// Build assembles the invocation of binaryPath for req. The caller owns the
// returned invocation and must call Cleanup once the process has exited.
//
// Argument order: profile flags, -s -S, -D <headerfile>, method, redirects,
// --max-time, -k, proxy, headers, body, extra arguments, URL.
func (b *Builder) Build(binaryPath string, r *descriptor.Resolved, req *Request, px *proxy.Spec) (*Invocation, error) {
	if req == nil {
		return nil, errs.InvalidRequest("request is required")
	}
	if r == nil || r.Profile == nil {
		return nil, fmt.Errorf("resolved descriptor with profile is required")
	}

	target, err := ResolveURL(req)
	if err != nil {
		return nil, err
	}

	method := req.EffectiveMethod()
	if !validMethod(method) {
		return nil, errs.InvalidRequest("invalid method %q", req.Method)
	}

	headers, err := mergeHeaders(r.Profile.Headers, req.Headers)
	if err != nil {
		return nil, err
	}

	body, isJSON, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	if isJSON && !hasHeader(headers, "Content-Type") {
		headers = append(headers, Header{Name: "Content-Type", Value: "application/json"})
	}

	dir, err := os.MkdirTemp(b.tempDir, "cuimp-req-")
	if err != nil {
		return nil, fmt.Errorf("create request temp dir: %w", err)
	}
	inv := &Invocation{
		Path:       binaryPath,
		URL:        target,
		Method:     method,
		Headers:    headers,
		HeaderFile: filepath.Join(dir, "headers"),
		tempDir:    dir,
	}

	args := make([]string, 0, len(r.Profile.Args)+len(headers)*2+len(req.ExtraArgs)+24)
	args = append(args, r.Profile.Args...)
	args = append(args, "-s", "-S", "-D", inv.HeaderFile)

	switch method {
	case "GET":
	case "HEAD":
		args = append(args, "--head")
	default:
		args = append(args, "-X", method)
	}

	maxRedirects := req.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = DefaultMaxRedirects
	}
	if maxRedirects > 0 {
		args = append(args, "--location", "--max-redirs", strconv.Itoa(maxRedirects))
	}

	if req.Timeout > 0 {
		args = append(args, "--max-time", formatSeconds(req.Timeout))
	}

	if req.InsecureTLS {
		args = append(args, "-k")
	}

	if px != nil {
		args = append(args, px.Args()...)
	}

	for _, h := range headers {
		args = append(args, "-H", headerArg(h))
	}

	if body != nil {
		bodyArgs, err := bodyArgs(dir, body)
		if err != nil {
			inv.Cleanup()
			return nil, err
		}
		args = append(args, bodyArgs...)
	}

	args = append(args, req.ExtraArgs...)
	args = append(args, target)

	inv.Args = args
	inv.Timeout = EffectiveTimeout(req.Timeout, req.ExtraArgs)
	return inv, nil
}

// encodeBody normalizes a request body to bytes. Values other than strings,
// byte slices and readers are encoded as JSON.
func encodeBody(body any) ([]byte, bool, error) {
	switch v := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(v), false, nil
	case []byte:
		return v, false, nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, false, fmt.Errorf("read request body: %w", err)
		}
		return data, false, nil
	default:
		data, err := sonic.Marshal(v)
		if err != nil {
			return nil, false, errs.InvalidRequest("encode json body: %v", err)
		}
		return data, true, nil
	}
}

// bodyArgs passes small bodies inline and spools large or NUL-containing
// bodies to a file, since argv cannot carry NUL bytes.
func bodyArgs(dir string, body []byte) ([]string, error) {
	if len(body) <= InlineBodyLimit && bytes.IndexByte(body, 0) < 0 {
		return []string{"--data-raw", string(body)}, nil
	}

	path := filepath.Join(dir, "body")
	if err := os.WriteFile(path, body, 0600); err != nil {
		return nil, fmt.Errorf("write request body: %w", err)
	}
	return []string{"--data-binary", "@" + path}, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// EffectiveTimeout returns the timeout curl will apply: base, unless extra
// carries a --max-time (or -m) of its own, in which case the last valid one
// wins. Only caller-supplied extra arguments are scanned; header values and
// bodies can never change the deadline.
func EffectiveTimeout(base time.Duration, extra []string) time.Duration {
	timeout := base
	for i := 0; i < len(extra); i++ {
		a := extra[i]
		var value string
		switch {
		case a == "--max-time" || a == "-m":
			if i+1 >= len(extra) {
				continue
			}
			i++
			value = extra[i]
		case strings.HasPrefix(a, "--max-time="):
			value = strings.TrimPrefix(a, "--max-time=")
		case strings.HasPrefix(a, "-m") && len(a) > 2:
			value = a[2:]
		default:
			continue
		}

		secs, err := strconv.ParseFloat(value, 64)
		if err != nil || secs <= 0 {
			continue
		}
		timeout = time.Duration(secs * float64(time.Second))
	}
	return timeout
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || strings.ContainsRune("-_./:=@%+,", c)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
