package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/nao1215/jssift/internal/model"
)

const (
	// DefaultTimeout bounds a single request, including the body read.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the largest response body accepted (20 MiB).
	DefaultMaxBodySize = 20 << 20

	// DefaultUserAgent identifies the tool when no browser identity is used.
	DefaultUserAgent = "jssift/1.0 (+https://github.com/nao1215/jssift)"

	defaultAccept = "text/html,application/xhtml+xml,application/javascript,text/javascript,*/*;q=0.8"
)

// Fetcher retrieves the body of a URL.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// HostSettings holds request material that is only sent to one host.
type HostSettings struct {
	// Cookie is sent verbatim as the Cookie header.
	Cookie string
	// Headers are extra request headers.
	Headers map[string]string
}

// HTTPFetcher is a Fetcher backed by resty.
type HTTPFetcher struct {
	client      *resty.Client
	logger      *slog.Logger
	transport   http.RoundTripper
	timeout     time.Duration
	maxBodySize int
	userAgent   string
	headers     map[string]string
	hosts       map[string]HostSettings
	limiter     *rate.Limiter

	documentHeaders map[string]string
	scriptHeaders   map[string]string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxBodySize sets the response body limit in bytes.
// Non-positive values keep the default.
func WithMaxBodySize(size int) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTransport sets the round tripper, typically one built by NewTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *HTTPFetcher) {
		f.transport = rt
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		maps.Copy(f.headers, headers)
	}
}

// WithDocumentHeaders sets headers sent only with page requests.
func WithDocumentHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.documentHeaders = maps.Clone(headers)
	}
}

// WithScriptHeaders sets headers sent only with requests marked by
// ScriptRequest. When set, script requests also carry Referer and
// Sec-Fetch-Site derived from the page that loads the script.
func WithScriptHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		f.scriptHeaders = maps.Clone(headers)
	}
}

// WithHostSettings registers a cookie and headers for requests to host.
// The host is compared case-insensitively and without port.
func WithHostSettings(host string, settings HostSettings) Option {
	return func(f *HTTPFetcher) {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			return
		}
		f.hosts[host] = settings
	}
}

// WithRateLimit caps the number of requests started per second across all
// callers. Non-positive values disable the limit.
func WithRateLimit(perSecond float64) Option {
	return func(f *HTTPFetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		logger:      slog.Default(),
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
		headers: map[string]string{
			"Accept": defaultAccept,
		},
		hosts: make(map[string]HostSettings),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.transport == nil {
		f.transport = NewTransport()
	}

	hc := &http.Client{
		Transport: f.transport,
		Timeout:   f.timeout,
	}
	f.client = resty.NewWithClient(hc).
		SetLogger(restyLogger{logger: f.logger}).
		SetRetryCount(0).
		SetResponseBodyLimit(f.maxBodySize).
		SetHeader("User-Agent", f.userAgent).
		SetHeaders(f.headers)

	return f
}

// Fetch performs a GET request and returns the response body.
// Connection failures, timeouts, oversized bodies and non-2xx statuses are
// returned as *model.TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil {
		return nil, &model.TransportError{Err: errors.New("nil URL")}
	}
	target := u.String()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &model.TransportError{URL: target, Err: err}
		}
	}

	req := f.client.R().SetContext(ctx)
	f.setDestinationHeaders(ctx, req, u)
	if hs, ok := f.hosts[strings.ToLower(u.Hostname())]; ok {
		if hs.Cookie != "" {
			req.SetHeader("Cookie", hs.Cookie)
		}
		req.SetHeaders(hs.Headers)
	}

	start := time.Now()
	resp, err := req.Get(target)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			err = fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBodySize)
		}
		return nil, &model.TransportError{URL: target, Err: err}
	}

	f.logger.Debug("fetched",
		"url", target,
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"elapsed", time.Since(start),
	)

	if !resp.IsSuccess() {
		return nil, &model.TransportError{
			URL:        target,
			StatusCode: resp.StatusCode(),
			Err:        ErrUnexpectedStatus,
		}
	}
	return resp.Body(), nil
}

// Close releases idle connections held by the transport.
func (f *HTTPFetcher) Close() {
	f.client.GetClient().CloseIdleConnections()
}

func (f *HTTPFetcher) setDestinationHeaders(ctx context.Context, req *resty.Request, u *url.URL) {
	page, isScript := scriptPage(ctx)
	if !isScript {
		req.SetHeaders(f.documentHeaders)
		return
	}
	if len(f.scriptHeaders) == 0 {
		return
	}
	req.SetHeaders(f.scriptHeaders)
	if page != nil {
		req.SetHeader("Referer", referer(page, u))
		req.SetHeader("Sec-Fetch-Site", fetchSite(page, u))
	}
}
