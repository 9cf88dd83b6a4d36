package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/cuimp"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/command"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

// requestFlags describe one request on the command line.
type requestFlags struct {
	method    string
	headers   []string
	params    []string
	data      string
	dataFile  string
	json      bool
	timeout   time.Duration
	maxRedirs int
	noFollow  bool
	insecure  bool
	extraArgs []string
	include   bool
	output    string
	fail      bool
	showCmd   bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.method, "request", "X", "", "request method (default GET, or POST with a body)")
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `request header "Name: Value" (repeatable)`)
	flags.StringArrayVarP(&f.params, "param", "p", nil, `query parameter "key=value" (repeatable)`)
	flags.StringVarP(&f.data, "data", "d", "", "request body")
	flags.StringVar(&f.dataFile, "data-file", "", "read the request body from a file")
	flags.BoolVar(&f.json, "json", false, "send the body as application/json")
	flags.DurationVarP(&f.timeout, "timeout", "m", 0, "request timeout (e.g. 30s)")
	flags.IntVar(&f.maxRedirs, "max-redirs", 0, "maximum redirects to follow (default 10)")
	flags.BoolVar(&f.noFollow, "no-follow", false, "do not follow redirects")
	flags.BoolVarP(&f.insecure, "insecure", "k", false, "skip TLS certificate verification")
	flags.StringArrayVar(&f.extraArgs, "curl-arg", nil, "extra raw curl-impersonate argument (repeatable)")
}

func (f *requestFlags) registerOutput(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVarP(&f.include, "include", "i", false, "print the status line and headers")
	flags.StringVarP(&f.output, "output", "o", "", "write the body to a file")
	flags.BoolVarP(&f.fail, "fail", "f", false, "exit non-zero on HTTP status 400 and above")
	flags.BoolVar(&f.showCmd, "show-command", false, "print the executed command to stderr")
}

// toRequest builds the request for target.
func (f *requestFlags) toRequest(target string) (*cuimp.Request, error) {
	req := &cuimp.Request{
		Method:      strings.ToUpper(f.method),
		URL:         target,
		Timeout:     f.timeout,
		InsecureTLS: f.insecure,
		ExtraArgs:   f.extraArgs,
	}

	for _, raw := range f.headers {
		h, err := parseHeader(raw)
		if err != nil {
			return nil, err
		}
		req.Headers = append(req.Headers, h)
	}
	for _, raw := range f.params {
		p, err := parseParam(raw)
		if err != nil {
			return nil, err
		}
		req.Params = append(req.Params, p)
	}

	switch {
	case f.noFollow:
		req.MaxRedirects = -1
	case f.maxRedirs > 0:
		req.MaxRedirects = f.maxRedirs
	}

	switch {
	case f.data != "" && f.dataFile != "":
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	case f.dataFile != "":
		body, err := os.ReadFile(f.dataFile)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		req.Body = body
	case f.data != "":
		req.Body = f.data
	}

	if req.Body != nil {
		if req.Method == "" {
			req.Method = http.MethodPost
		}
		if f.json && !hasHeader(req.Headers, "Content-Type") {
			req.Headers = append(req.Headers, cuimp.Header{Name: "Content-Type", Value: "application/json"})
		}
	}
	return req, nil
}

// parseHeader splits "Name: Value". "Name:" sends an empty header.
func parseHeader(raw string) (cuimp.Header, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return cuimp.Header{}, fmt.Errorf("invalid header %q: expected \"Name: Value\"", raw)
	}
	return cuimp.Header{Name: name, Value: strings.TrimLeft(value, " \t")}, nil
}

// parseParam splits "key=value". A missing "=" means an empty value.
func parseParam(raw string) (cuimp.Param, error) {
	key, value, _ := strings.Cut(raw, "=")
	if key == "" {
		return cuimp.Param{}, fmt.Errorf("invalid parameter %q: expected key=value", raw)
	}
	return cuimp.Param{Key: key, Value: value}, nil
}

func hasHeader(headers []cuimp.Header, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

func newRequestCmd(g *globalFlags) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request [flags] <url>",
		Short: "Send a request and print the response",
		Example: `  cuimp request https://example.com
  cuimp request -b firefox -i https://example.com
  cuimp request -X POST --json -d '{"q":"x"}' https://api.example.com/search`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.toRequest(args[0])
			if err != nil {
				return err
			}

			s, err := newClient(cmd, g)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.client.Request(cmd.Context(), req)
			if err != nil {
				return err
			}

			if f.showCmd {
				fmt.Fprintln(cmd.ErrOrStderr(), errs.Redact(command.Join(resp.Request.Command)))
			}
			if err := writeResponse(cmd.OutOrStdout(), resp, f); err != nil {
				return err
			}
			if f.fail && resp.Status >= http.StatusBadRequest {
				return fmt.Errorf("server returned %d %s", resp.Status, resp.StatusText)
			}
			return nil
		},
	}
	f.register(cmd)
	f.registerOutput(cmd)
	return cmd
}

func writeResponse(w io.Writer, resp *cuimp.Response, f *requestFlags) error {
	if f.include {
		fmt.Fprintf(w, "%s %d %s\n", resp.Proto, resp.Status, resp.StatusText)
		for _, h := range resp.Headers {
			fmt.Fprintf(w, "%s: %s\n", h.Name, h.Value)
		}
		fmt.Fprintln(w)
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, resp.Body, 0o644); err != nil {
			return fmt.Errorf("write body: %w", err)
		}
		return nil
	}
	_, err := w.Write(resp.Body)
	return err
}

func newPreviewCmd(g *globalFlags) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "preview [flags] <url>",
		Short: "Print the curl-impersonate command a request would run",
		Long: `Print the exact command line a request would run without downloading
a binary or sending anything. Temporary header and body files named in
the output are already removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.toRequest(args[0])
			if err != nil {
				return err
			}

			s, err := newClient(cmd, g)
			if err != nil {
				return err
			}
			defer s.Close()

			argv, err := s.client.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), command.Join(argv))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
