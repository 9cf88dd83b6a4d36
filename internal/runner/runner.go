// Package runner executes a built invocation of curl-impersonate and
// captures its output.
//
// The child runs with an allowlisted environment and no stdin. Stdout and
// stderr are captured into separate buffers and the header dump is read
// back from the invocation's header file. When the invocation carries a
// timeout the process is killed if it outlives that timeout plus a grace
// period; curl normally gives up first with exit code 28.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/command"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/config"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

const (
	// DefaultKillGrace is how long a child may outlive its own --max-time
	// before it is killed.
	DefaultKillGrace = 2 * time.Second

	// ExitOperationTimedOut is curl's exit code for an expired --max-time.
	ExitOperationTimedOut = 28
)

// passthroughEnv lists the only variables inherited by the child. Proxy
// variables are deliberately absent: proxies are resolved up front and
// passed as flags.
var passthroughEnv = []string{
	"HOME", "PATH", "USER", "LANG", "TMPDIR", "SYSTEMROOT",
	"SSL_CERT_FILE", "SSL_CERT_DIR", "CURL_CA_BUNDLE",
}

// RawOutput is everything captured from one process run.
type RawOutput struct {
	Header   []byte
	Body     []byte
	Stderr   []byte
	ExitCode int
	PID      int
	Duration time.Duration
}

// Config configures a Runner.
type Config struct {
	KillGrace time.Duration
	Logger    config.Logger
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Runner spawns invocations. It is safe for concurrent use.
type Runner struct {
	killGrace time.Duration
	logger    config.Logger
	lookupEnv func(string) (string, bool)
}

// New creates a Runner.
func New(cfg Config) *Runner {
	r := &Runner{
		killGrace: cfg.KillGrace,
		logger:    config.OrNop(cfg.Logger),
		lookupEnv: cfg.LookupEnv,
	}
	if r.killGrace <= 0 {
		r.killGrace = DefaultKillGrace
	}
	if r.lookupEnv == nil {
		r.lookupEnv = os.LookupEnv
	}
	return r
}

// Run executes inv and waits for it to exit.
//
// A non-zero exit is not an error here; it is reported in RawOutput so the
// caller can decide whether a response was still produced. Run fails with
// a *errs.TimeoutError when the child timed out, with ctx.Err() when ctx
// ended first, and with a plain error when the binary could not start.
func (r *Runner) Run(ctx context.Context, inv *command.Invocation) (*RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout+r.killGrace)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.Path, inv.Args...)
	cmd.Env = r.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.killGrace

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &errs.ProcessError{ExitCode: -1, Err: fmt.Errorf("start %s: %w", filepath.Base(inv.Path), err)}
	}
	pid := cmd.Process.Pid
	r.logger.Debug("spawned curl-impersonate", "pid", pid, "timeout", inv.Timeout)

	waitErr := cmd.Wait()
	out := &RawOutput{
		Body:     stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		PID:      pid,
		Duration: time.Since(start),
	}
	r.logger.Debug("curl-impersonate exited", "pid", pid, "exit_code", out.ExitCode, "duration", out.Duration)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runCtx.Err() != nil {
		r.logger.Warn("killed curl-impersonate after timeout", "pid", pid, "after", inv.Timeout)
		return nil, &errs.TimeoutError{After: inv.Timeout, PID: pid}
	}
	if out.ExitCode == ExitOperationTimedOut {
		after := inv.Timeout
		if after == 0 {
			after = out.Duration
		}
		return nil, &errs.TimeoutError{After: after, PID: pid}
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return nil, fmt.Errorf("wait for pid %d: %w", pid, waitErr)
	}

	header, err := os.ReadFile(inv.HeaderFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read header dump: %w", err)
	}
	out.Header = header
	return out, nil
}

func (r *Runner) environ() []string {
	env := make([]string, 0, len(passthroughEnv))
	for _, name := range passthroughEnv {
		if v, ok := r.lookupEnv(name); ok && v != "" {
			env = append(env, name+"="+v)
		}
	}
	return env
}
