package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher defaults. Connect and read timeouts are separate because a slow
// handshake and a slow body transfer are different failure modes.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultMaxBodySize    = 5 * 1024 * 1024 // 5MB
	defaultMaxAttempts    = 3
	defaultBackoffBase    = 1 * time.Second
	maxRedirects          = 10
)

// errTooManyRedirects is returned from the client's redirect hook and
// unwrapped during classification.
var errTooManyRedirects = errors.New("stopped after too many redirects")

// retryableStatuses are transient server conditions worth retrying with
// backoff.
var retryableStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// FetchError is a classified per-URL fetch failure.
type FetchError struct {
	// Kind buckets the failure for statistics.
	Kind ErrorKind

	// URL is the URL whose fetch failed.
	URL string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// FetchResponse is the outcome of a completed HTTP exchange. It exists for
// every response the server actually produced, including non-2xx statuses;
// the worker decides whether that outcome is a download or a skip.
type FetchResponse struct {
	// StatusCode is the final HTTP status after redirects and retries.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// Body is the response body, capped at the configured size.
	Body []byte

	// ResponseTime spans the whole fetch, including retries.
	ResponseTime time.Duration
}

// OK reports whether the response status is 2xx.
func (r *FetchResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsHTML reports whether the response carries an HTML content type.
func (r *FetchResponse) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}

// Fetcher performs HTTP GETs with timeouts, a redirect cap, connection
// pooling, and a bounded retry with exponential backoff for transient
// server statuses.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	maxAttempts int
	backoffBase time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps how many response body bytes are read.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithMaxAttempts bounds the total attempts per URL, retries included.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoffBase sets the first retry delay; subsequent delays double.
func WithBackoffBase(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.backoffBase = d
	}
}

// WithHTTPClient replaces the default client. The caller owns redirect and
// timeout behavior of the provided client. Mainly for tests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithReadTimeout sets the overall per-request timeout on the default
// client. No effect after WithHTTPClient.
func WithReadTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// NewFetcher creates a fetcher with a pooled transport.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   defaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   defaultReadTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		maxBodySize: defaultMaxBodySize,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Client exposes the underlying HTTP client so the politeness gate can
// reuse its pool for robots.txt fetches.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch GETs a URL. It returns a FetchResponse whenever the server produced
// a final response, and a *FetchError for transport-level failures.
// Statuses in retryableStatuses are retried up to the attempt budget with
// exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResponse, *FetchError) {
	start := time.Now()

	var resp *FetchResponse
	for attempt := 1; ; attempt++ {
		httpResp, err := f.do(ctx, rawURL)
		if err != nil {
			return nil, &FetchError{Kind: classifyError(err), URL: rawURL, Err: err}
		}

		body, err := f.readBody(httpResp)
		if err != nil {
			return nil, &FetchError{Kind: classifyError(err), URL: rawURL, Err: err}
		}

		resp = &FetchResponse{
			StatusCode:  httpResp.StatusCode,
			ContentType: httpResp.Header.Get("Content-Type"),
			Body:        body,
		}

		if _, retryable := retryableStatuses[resp.StatusCode]; !retryable || attempt >= f.maxAttempts {
			break
		}

		backoff := f.backoffBase << (attempt - 1)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &FetchError{Kind: classifyError(ctx.Err()), URL: rawURL, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	resp.ResponseTime = time.Since(start)
	return resp, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	return f.client.Do(req)
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, f.maxBodySize)
	return io.ReadAll(limited)
}

// classifyError buckets a transport failure into an ErrorKind.
func classifyError(err error) ErrorKind {
	if err == nil {
		return ErrKindOther
	}

	if errors.Is(err, errTooManyRedirects) {
		return ErrKindRedirects
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrKindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrKindConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrKindConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrKindHTTP
	}

	return ErrKindOther
}
