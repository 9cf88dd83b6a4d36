package binary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/errs"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "cuimp/1.0"
)

// Downloader handles HTTP downloads with optional retries.
type Downloader struct {
	client    *retryablehttp.Client
	userAgent string
}

// NewDownloader creates a downloader that retries transient failures up to
// retries times. httpClient may be nil.
func NewDownloader(retries int, httpClient *http.Client) *Downloader {
	client := retryablehttp.NewClient()
	client.RetryMax = max(retries, 0)
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil // Disable logging
	// Hand the final response back so the status code can be reported.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if httpClient != nil {
		client.HTTPClient = httpClient
	} else {
		client.HTTPClient.Timeout = DefaultTimeout
	}

	return &Downloader{
		client:    client,
		userAgent: DefaultUserAgent,
	}
}

// Download streams url into destPath, hashing it on the way. Failures are
// reported as *errs.DownloadError unless ctx was cancelled, in which case
// the context error is returned. destPath is removed on failure.
func (d *Downloader) Download(ctx context.Context, url, destPath string, progress ProgressFunc) (*DownloadResult, error) {
	start := time.Now()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.DownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errs.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errs.DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create download file: %w", err)
	}

	// Track whether we need to clean up the partial file
	cleanupNeeded := true
	defer func() {
		out.Close()
		if cleanupNeeded {
			os.Remove(destPath)
		}
	}()

	hasher := sha256.New()
	var src io.Reader = resp.Body
	if progress != nil {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress}
	}

	n, err := io.Copy(io.MultiWriter(out, hasher), src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &errs.DownloadError{URL: url, Err: err}
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return nil, &errs.DownloadError{URL: url, Err: io.ErrUnexpectedEOF}
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close download file: %w", err)
	}

	cleanupNeeded = false
	return &DownloadResult{
		Path:     destPath,
		SHA256:   hex.EncodeToString(hasher.Sum(nil)),
		Size:     n,
		Duration: time.Since(start),
	}, nil
}

type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.read, p.total)
	}
	if errors.Is(err, io.EOF) && p.total < 0 {
		p.fn(p.read, p.read)
	}
	return n, err
}
