//go:build !windows

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/command"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

// stub writes an executable shell script and an invocation that runs it.
func stub(t *testing.T, script string, timeout time.Duration) *command.Invocation {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "curl-impersonate")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatalf("cannot create stub binary: %v", err)
	}
	headerFile := filepath.Join(dir, "headers")
	return &command.Invocation{
		Path:       path,
		Args:       []string{headerFile},
		HeaderFile: headerFile,
		Timeout:    timeout,
	}
}

func TestRun_CapturesStreams(t *testing.T) {
	inv := stub(t, `printf 'HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n' > "$1"
printf 'abc'
printf 'warning' >&2`, 0)

	out, err := New(Config{}).Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if string(out.Body) != "abc" {
		t.Errorf("Body = %q, want %q", out.Body, "abc")
	}
	if string(out.Stderr) != "warning" {
		t.Errorf("Stderr = %q", out.Stderr)
	}
	if !strings.HasPrefix(string(out.Header), "HTTP/1.1 200 OK") {
		t.Errorf("Header = %q", out.Header)
	}
	if out.ExitCode != 0 || out.PID == 0 {
		t.Errorf("ExitCode = %d, PID = %d", out.ExitCode, out.PID)
	}
}

func TestRun_NonZeroExitIsReported(t *testing.T) {
	inv := stub(t, `echo "curl: (6) Could not resolve host: nowhere.invalid" >&2
exit 6`, 0)

	out, err := New(Config{}).Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.ExitCode != 6 {
		t.Errorf("ExitCode = %d, want 6", out.ExitCode)
	}
	if out.Header != nil {
		t.Errorf("missing header file should yield nil Header, got %q", out.Header)
	}
}

func TestRun_CurlTimeoutExitCode(t *testing.T) {
	inv := stub(t, "exit 28", 3*time.Second)

	_, err := New(Config{}).Run(context.Background(), inv)
	var te *errs.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *errs.TimeoutError", err)
	}
	if te.After != 3*time.Second {
		t.Errorf("After = %v, want 3s", te.After)
	}
}

func TestRun_KillsAfterGrace(t *testing.T) {
	inv := stub(t, "exec sleep 30", 100*time.Millisecond)

	start := time.Now()
	_, err := New(Config{KillGrace: 100 * time.Millisecond}).Run(context.Background(), inv)
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Run() took %v, child was not killed", elapsed)
	}

	var te *errs.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *errs.TimeoutError", err)
	}
	if !errors.Is(err, errs.ErrTimeout) {
		t.Error("timeout should match errs.ErrTimeout")
	}

	proc, err := os.FindProcess(te.PID)
	if err == nil {
		if err := proc.Signal(syscall.Signal(0)); err == nil {
			t.Errorf("process %d still alive after timeout", te.PID)
		}
	}
}

func TestRun_ParentCancellation(t *testing.T) {
	inv := stub(t, "exec sleep 30", 0)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := New(Config{KillGrace: 100 * time.Millisecond}).Run(ctx, inv)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	inv := stub(t, "exit 0", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(Config{}).Run(ctx, inv); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRun_EnvironmentScrubbed(t *testing.T) {
	env := map[string]string{
		"PATH":          os.Getenv("PATH"),
		"HOME":          "/home/tester",
		"SSL_CERT_FILE": "/etc/ssl/bundle.pem",
		"HTTPS_PROXY":   "http://leak.invalid:8080",
		"CUIMP_TOKEN":   "secret",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	inv := stub(t, "env", 0)
	out, err := New(Config{LookupEnv: lookup}).Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := string(out.Body)
	for _, want := range []string{"HOME=/home/tester", "SSL_CERT_FILE=/etc/ssl/bundle.pem"} {
		if !strings.Contains(got, want) {
			t.Errorf("child env missing %q:\n%s", want, got)
		}
	}
	for _, leaked := range []string{"HTTPS_PROXY", "CUIMP_TOKEN"} {
		if strings.Contains(got, leaked) {
			t.Errorf("child env leaked %s:\n%s", leaked, got)
		}
	}
}

func TestRun_StartFailure(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "curl-impersonate")
	if err := os.WriteFile(notExec, []byte("#!/bin/sh\nexit 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		path  string
		cause error
	}{
		{"missing_binary", filepath.Join(dir, "absent"), os.ErrNotExist},
		{"not_executable", notExec, os.ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{}).Run(context.Background(), &command.Invocation{Path: tt.path})
			if !errors.Is(err, errs.ErrProcessFailed) {
				t.Fatalf("error = %v, want ErrProcessFailed", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("error = %v, want cause %v", err, tt.cause)
			}
			var pe *errs.ProcessError
			if !errors.As(err, &pe) || pe.ExitCode != -1 {
				t.Errorf("ProcessError = %+v, want exit code -1", pe)
			}
		})
	}
}
