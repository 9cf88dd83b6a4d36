package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FakeResponse scripts the behaviour of a fake curl-impersonate binary.
type FakeResponse struct {
	// HeaderDump is written to the file named by -D.
	HeaderDump string
	Body       string
	Stderr     string
	ExitCode   int
	// Sleep is passed to sleep(1) before anything is written.
	Sleep string
}

// FakeCurl is a shell script standing in for curl-impersonate. It records
// the arguments of its last invocation and counts invocations.
type FakeCurl struct {
	Path     string
	argsFile string
	calls    string
}

// NewFakeCurl writes a fake binary into a temporary directory. It needs
// /bin/sh and is meant for tests guarded by a !windows build constraint.
func NewFakeCurl(t *testing.T, resp FakeResponse) *FakeCurl {
	t.Helper()

	dir := t.TempDir()
	f := &FakeCurl{
		Path:     filepath.Join(dir, "curl-impersonate"),
		argsFile: filepath.Join(dir, "args"),
		calls:    filepath.Join(dir, "calls"),
	}

	files := map[string]string{
		"header": resp.HeaderDump,
		"body":   resp.Body,
		"stderr": resp.Stderr,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write fake %s: %v", name, err)
		}
	}

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&script, "echo x >> %s\n", shellQuote(f.calls))
	fmt.Fprintf(&script, ": > %s\n", shellQuote(f.argsFile))
	script.WriteString("hdr=\nprev=\n")
	script.WriteString("for a in \"$@\"; do\n")
	fmt.Fprintf(&script, "  printf '%%s\\000' \"$a\" >> %s\n", shellQuote(f.argsFile))
	script.WriteString("  if [ \"$prev\" = \"-D\" ]; then hdr=\"$a\"; fi\n")
	script.WriteString("  prev=\"$a\"\n")
	script.WriteString("done\n")
	if resp.Sleep != "" {
		fmt.Fprintf(&script, "sleep %s\n", resp.Sleep)
	}
	fmt.Fprintf(&script, "[ -n \"$hdr\" ] && cat %s > \"$hdr\"\n", shellQuote(filepath.Join(dir, "header")))
	fmt.Fprintf(&script, "cat %s\n", shellQuote(filepath.Join(dir, "body")))
	fmt.Fprintf(&script, "cat %s >&2\n", shellQuote(filepath.Join(dir, "stderr")))
	fmt.Fprintf(&script, "exit %d\n", resp.ExitCode)

	if err := os.WriteFile(f.Path, []byte(script.String()), 0o755); err != nil {
		t.Fatalf("failed to write fake binary: %v", err)
	}
	return f
}

// Args returns the arguments of the most recent invocation.
func (f *FakeCurl) Args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.argsFile)
	if err != nil {
		t.Fatalf("fake binary was never invoked: %v", err)
	}
	data = bytes.TrimSuffix(data, []byte{0})
	if len(data) == 0 {
		return nil
	}
	return strings.Split(string(data), "\x00")
}

// Calls returns how many times the binary ran.
func (f *FakeCurl) Calls(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(f.calls)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("read call count: %v", err)
	}
	return bytes.Count(data, []byte("\n"))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
