// Package scoring provides the HTTP client for the external scoring engine.
package scoring

import (
	"net/http"
	"strings"
	"time"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the scoring engine base URL, e.g. "http://scorer:8000".
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithToken sets the shared internal token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds a single scoring call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient injects a custom HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}
