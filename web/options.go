package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultUserAgent identifies requests made by this package.
	DefaultUserAgent = "copilot/1.0 (+https://github.com/poiesic/copilot)"

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 2 << 20

	defaultHTTPTimeout = 30 * time.Second
)

type clientOptions struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *slog.Logger
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		client:       &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
}

// Option configures a SearXNG provider or a Fetcher.
type Option func(*clientOptions)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithMaxBodyBytes caps the number of response bytes read.
func WithMaxBodyBytes(n int64) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func (o *clientOptions) newRequest(ctx context.Context, target string, accept string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", accept)
	return req, nil
}
