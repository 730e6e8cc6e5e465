package pocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
	baseURL    string
	siteURL    string
	userAgent  string
	maxBody    int64
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout: defaultTimeout,
		logger:  zerolog.Nop(),
		baseURL: defaultBaseURL,
		siteURL: defaultSiteURL,
		maxBody: defaultMaxBodySize,
	}
}

// WithHTTPClient sets the transport used for every request.
// The timeout option is ignored when a client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithBaseURL overrides the versioned API root, https://getpocket.com/v3 by default.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithSiteURL overrides the root used for the browser authorization page.
func WithSiteURL(siteURL string) Option {
	return func(o *clientOptions) {
		if siteURL != "" {
			o.siteURL = strings.TrimRight(siteURL, "/")
		}
	}
}

// WithMaxResponseSize limits the number of response body bytes read per request.
func WithMaxResponseSize(n int64) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxBody = n
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}
