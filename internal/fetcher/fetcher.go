package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxBodySize = int64(10 * 1024 * 1024)

// Response carries the status code back to the caller even for non-2xx
// answers. Only transport-level failures surface as errors; callers decide
// what an HTTP 404 or 503 means for their row.
type Response struct {
	StatusCode int
	Body       string
	URL        string
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RetryBackoff float64
}

// Client issues GETs with a fixed User-Agent and retries transport errors
// with exponential backoff. It never retries on status code.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxRetries   int
	retryDelay   time.Duration
	retryBackoff float64
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 800 * time.Millisecond
	}
	if opts.RetryBackoff < 1.0 {
		opts.RetryBackoff = 2.0
	}

	return &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		userAgent:    opts.UserAgent,
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		retryBackoff: opts.RetryBackoff,
	}
}

// Get fetches url, retrying transport failures up to MaxRetries attempts in
// total. The body is read fully so the connection can be reused.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryDelay
	bo.Multiplier = c.retryBackoff
	bo.RandomizationFactor = 0
	bo.MaxInterval = 30 * time.Second

	var resp *Response

	operation := func() error {
		var err error
		resp, err = c.getOnce(ctx, url)
		return err
	}

	// MaxRetries counts attempts in total, backoff counts retries after the
	// first attempt.
	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	return resp, nil
}

func (c *Client) getOnce(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: res.StatusCode,
		Body:       string(body),
		URL:        url,
	}, nil
}
