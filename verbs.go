package cuimp

import (
	"context"
	"net/http"
	"sync"
)

// Fetch runs req and decodes the body into a new T. The response is
// returned whenever the request itself succeeded; a failed decode is
// returned as the error alongside it.
func Fetch[T any](ctx context.Context, c *Client, req *Request) (*T, *Response, error) {
	if req == nil {
		req = &Request{}
	}
	out := new(T)
	r := *req
	r.Into = out

	resp, err := c.Request(ctx, &r)
	if err != nil {
		return nil, nil, err
	}
	if resp.DecodeErr != nil {
		return nil, resp, resp.DecodeErr
	}
	return out, resp, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*Response, error) {
	return c.Request(ctx, &Request{Method: method, URL: url, Body: body})
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodHead, url, nil)
}

// Options issues an OPTIONS request.
func (c *Client) Options(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodOptions, url, nil)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

// Post issues a POST request. See Request.Body for accepted body types.
func (c *Client) Post(ctx context.Context, url string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, url string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, url string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, url, body)
}

var defaultClient = sync.OnceValues(func() (*Client, error) {
	return New()
})

// Default returns the shared client used by the package-level helpers. It
// is created on first use with default options.
func Default() (*Client, error) {
	return defaultClient()
}

func doDefault(ctx context.Context, method, url string, body any) (*Response, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, url, body)
}

// Get issues a GET request with the default client.
func Get(ctx context.Context, url string) (*Response, error) {
	return doDefault(ctx, http.MethodGet, url, nil)
}

// Head issues a HEAD request with the default client.
func Head(ctx context.Context, url string) (*Response, error) {
	return doDefault(ctx, http.MethodHead, url, nil)
}

// Options issues an OPTIONS request with the default client.
func Options(ctx context.Context, url string) (*Response, error) {
	return doDefault(ctx, http.MethodOptions, url, nil)
}

// Delete issues a DELETE request with the default client.
func Delete(ctx context.Context, url string) (*Response, error) {
	return doDefault(ctx, http.MethodDelete, url, nil)
}

// Post issues a POST request with the default client.
func Post(ctx context.Context, url string, body any) (*Response, error) {
	return doDefault(ctx, http.MethodPost, url, body)
}

// Put issues a PUT request with the default client.
func Put(ctx context.Context, url string, body any) (*Response, error) {
	return doDefault(ctx, http.MethodPut, url, body)
}

// Patch issues a PATCH request with the default client.
func Patch(ctx context.Context, url string, body any) (*Response, error) {
	return doDefault(ctx, http.MethodPatch, url, body)
}
