// Package cuimp performs HTTP requests that look like they come from a real
// browser by driving curl-impersonate as a subprocess.
//
// A Client resolves a browser descriptor to a profile and a release
// variant, makes sure a verified curl-impersonate binary is cached,
// builds the exact argument vector for the request, runs it and parses
// the captured output:
//
//	c, err := cuimp.New(cuimp.WithBrowser("chrome", "131"))
//	if err != nil {
//		return err
//	}
//	resp, err := c.Get(ctx, "https://example.com")
//
// Errors are classified by the Err* kinds in this package.
package cuimp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/binary"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/command"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/config"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/descriptor"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/proxy"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/response"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/runner"
)

const detectTimeout = 5 * time.Second

// Client runs impersonated requests. It is safe for concurrent use.
type Client struct {
	opts     options
	host     platform.Info
	resolver *descriptor.Resolver
	store    *binary.Store
	builder  *command.Builder
	runner   *runner.Runner
	limiter  *rate.Limiter
	logger   config.Logger
}

// New creates a Client. The host platform is detected once here.
func New(opts ...Option) (*Client, error) {
	var o options
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	logger := config.OrNop(o.logger)

	detector := o.detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()
	host, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	resolver, err := descriptor.NewResolver(*host, o.release)
	if err != nil {
		return nil, err
	}

	keyring := o.keyring
	if keyring == nil && o.keyringFile != "" {
		if keyring, err = binary.LoadKeyring(o.keyringFile); err != nil {
			return nil, err
		}
	}

	store, err := binary.NewStore(binary.Config{
		Root:       o.cacheDir,
		BaseURL:    o.baseURL,
		Retries:    o.retries,
		Checksums:  o.checksums,
		Keyring:    keyring,
		HTTPClient: o.httpClient,
		Logger:     logger,
		OnState:    o.onState,
		Progress:   o.progress,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		opts:     o,
		host:     *host,
		resolver: resolver,
		store:    store,
		builder:  command.NewBuilder(o.tempDir),
		runner:   runner.New(runner.Config{KillGrace: o.killGrace, Logger: logger}),
		logger:   logger,
	}
	if o.rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.rps), o.burst)
	}

	logger.Debug("client ready",
		"os", host.OS, "arch", host.Arch, "release", resolver.Release(), "cache", store.Root())
	return c, nil
}

// Host returns the detected host platform.
func (c *Client) Host() platform.Info {
	return c.host
}

// Resolve fills d from the client defaults and the host and checks it
// against the support matrix.
func (c *Client) Resolve(d Descriptor) (*descriptor.Resolved, error) {
	return c.resolver.Resolve(c.mergeDescriptor(d))
}

// Ensure makes sure the binary for d is ready and returns its record.
// With force set, a cached binary is discarded and provisioned again.
func (c *Client) Ensure(ctx context.Context, d Descriptor, force bool) (*BinaryRecord, error) {
	resolved, err := c.Resolve(d)
	if err != nil {
		return nil, err
	}
	return c.binaryFor(ctx, resolved, force)
}

// ClearCache removes the cached binary for d, or every cached binary when
// d is nil.
func (c *Client) ClearCache(ctx context.Context, d *Descriptor) error {
	if d == nil {
		return c.store.ClearAll(ctx)
	}
	resolved, err := c.Resolve(*d)
	if err != nil {
		return err
	}
	return c.store.Clear(ctx, resolved.Key)
}

// CacheDir returns the binary cache root.
func (c *Client) CacheDir() string {
	return c.store.Root()
}

// Request executes req and returns the parsed response.
//
// Descriptor, provisioning, proxy and request validation failures return
// before any process is spawned. A failed body decode is reported in
// Response.DecodeErr, not as an error.
func (c *Client) Request(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errs.InvalidRequest("request is required")
	}

	plan, err := c.plan(ctx, req, true)
	if err != nil {
		return nil, err
	}
	defer plan.inv.Cleanup()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	log := []any{"id", plan.echo.ID, "method", plan.echo.Method, "url", errs.Redact(plan.echo.URL)}
	c.logger.Debug("running request", append(log, "command", errs.Redact(plan.inv.String()))...)

	raw, err := c.runner.Run(ctx, plan.inv)
	if err != nil {
		c.logger.Warn("request failed", append(log, "error", err)...)
		return nil, err
	}

	parsed, err := response.Parse(raw)
	if err != nil {
		c.logger.Warn("unusable output", append(log, "exit_code", raw.ExitCode, "error", err)...)
		return nil, err
	}
	if raw.ExitCode != 0 {
		c.logger.Warn("curl-impersonate exited non-zero after a response",
			append(log, "exit_code", raw.ExitCode, "stderr", errs.Excerpt(raw.Stderr))...)
	}

	resp := &Response{
		Status:     parsed.Status,
		StatusText: parsed.StatusText,
		Proto:      parsed.Proto,
		Headers:    parsed.Headers,
		Body:       parsed.Body,
		Request:    plan.echo,
		Duration:   raw.Duration,
	}
	resp.Data, resp.DecodeErr = decodeInto(parsed, req.Into)
	if resp.DecodeErr != nil {
		c.logger.Debug("decode failed", append(log, "error", resp.DecodeErr)...)
	}

	c.logger.Info("request completed", append(log,
		"status", resp.Status, "bytes", len(resp.Body), "duration", resp.Duration)...)
	return resp, nil
}

// Preview returns the command line req would run, without provisioning a
// binary or spawning a process. The temporary files it names are removed
// before Preview returns.
func (c *Client) Preview(ctx context.Context, req *Request) ([]string, error) {
	if req == nil {
		return nil, errs.InvalidRequest("request is required")
	}
	plan, err := c.plan(ctx, req, false)
	if err != nil {
		return nil, err
	}
	plan.inv.Cleanup()
	return plan.echo.Command, nil
}

type requestPlan struct {
	inv  *command.Invocation
	echo RequestEcho
}

// plan resolves everything a request needs up to the built invocation.
// With provision unset, the binary path is where it would be without
// touching the cache.
func (c *Client) plan(ctx context.Context, req *Request, provision bool) (*requestPlan, error) {
	resolved, err := c.Resolve(req.Descriptor)
	if err != nil {
		return nil, err
	}

	creq := c.commandRequest(req)
	target, err := command.ResolveURL(creq)
	if err != nil {
		return nil, err
	}

	explicit := req.Proxy
	if explicit == "" {
		explicit = c.opts.proxy
	}
	env := c.opts.env
	if env == nil {
		env = proxy.Environ()
	}
	px, err := proxy.Resolve(explicit, target, env)
	if err != nil {
		return nil, err
	}

	var binPath string
	if provision {
		rec, err := c.binaryFor(ctx, resolved, false)
		if err != nil {
			return nil, err
		}
		binPath = rec.Path
	} else {
		binPath = c.previewPath(resolved)
	}

	inv, err := c.builder.Build(binPath, resolved, creq, px)
	if err != nil {
		return nil, err
	}

	echo := RequestEcho{
		ID:         uuid.NewString(),
		URL:        inv.URL,
		Method:     inv.Method,
		Headers:    inv.Headers,
		Command:    inv.Argv(),
		Binary:     binPath,
		Descriptor: resolved.Descriptor,
	}
	if px != nil {
		echo.Proxy = px.Redacted()
	}
	return &requestPlan{inv: inv, echo: echo}, nil
}

// binaryFor returns the binary to run for resolved: an explicit path, a
// system binary, or a provisioned one.
func (c *Client) binaryFor(ctx context.Context, resolved *descriptor.Resolved, force bool) (*BinaryRecord, error) {
	if c.opts.binaryPath != "" {
		rec, err := binary.RecordForPath(c.opts.binaryPath, binary.SourceExplicit)
		if err != nil {
			return nil, &errs.VerificationError{Key: c.opts.binaryPath, Reason: "explicit binary unusable", Err: err}
		}
		return rec, nil
	}

	if c.opts.systemBinary && !force {
		path, err := binary.FindSystemBinary()
		if err == nil {
			if rec, err := binary.RecordForPath(path, binary.SourceSystem); err == nil {
				return rec, nil
			}
		} else if !errors.Is(err, binary.ErrNoSystemBinary) {
			return nil, err
		}
		c.logger.Debug("no usable system curl-impersonate, provisioning", "key", resolved.Key)
	}

	return c.store.Ensure(ctx, resolved, binary.EnsureOptions{Force: force})
}

func (c *Client) previewPath(resolved *descriptor.Resolved) string {
	if c.opts.binaryPath != "" {
		return c.opts.binaryPath
	}
	if c.opts.systemBinary {
		if path, err := binary.FindSystemBinary(); err == nil {
			return path
		}
	}
	if rec, ok := c.store.Lookup(resolved.Key); ok {
		return rec.Path
	}
	return c.store.BinaryPath(resolved)
}

func (c *Client) mergeDescriptor(d Descriptor) Descriptor {
	def := c.opts.descriptor
	if d.Browser == "" {
		d.Browser = def.Browser
		if d.Version == "" {
			d.Version = def.Version
		}
	}
	if d.Platform == "" {
		d.Platform = def.Platform
	}
	if d.Architecture == "" {
		d.Architecture = def.Architecture
	}
	return d
}

// commandRequest layers req over the client defaults.
func (c *Client) commandRequest(req *Request) *command.Request {
	out := &command.Request{
		URL:          req.URL,
		BaseURL:      req.BaseURL,
		Method:       req.Method,
		Params:       req.Params,
		Body:         req.Body,
		Timeout:      req.Timeout,
		MaxRedirects: req.MaxRedirects,
		InsecureTLS:  req.InsecureTLS || c.opts.insecureTLS,
	}
	if out.Timeout == 0 {
		out.Timeout = c.opts.timeout
	}
	if out.MaxRedirects == 0 {
		out.MaxRedirects = c.opts.maxRedirects
	}

	out.Headers = command.Overlay(c.opts.headers, req.Headers)

	out.ExtraArgs = make([]string, 0, len(c.opts.extraArgs)+len(req.ExtraArgs))
	out.ExtraArgs = append(out.ExtraArgs, c.opts.extraArgs...)
	out.ExtraArgs = append(out.ExtraArgs, req.ExtraArgs...)
	return out
}

// decodeInto decodes into the caller's target, or into a generic value
// when no target is given and the body is JSON.
func decodeInto(p *response.Parsed, into any) (any, error) {
	if into != nil {
		return into, response.Decode(p, into)
	}
	if !p.IsJSON() || len(p.Body) == 0 {
		return nil, nil
	}
	var v any
	if err := response.Decode(p, &v); err != nil {
		return nil, err
	}
	return v, nil
}
