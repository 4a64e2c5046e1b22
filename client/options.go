package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file makes it easy to discover
// all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/socialsense/socialsense-go/client/internal/store"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithHTTPClient injects a custom *http.Client. Useful for setting transport
// timeouts, tracing, custom TLS settings, etc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		c.http = hc
		return nil
	}
}

// WithTimeout overrides the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("non-positive timeout")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithStore injects the persistent key-value store holding the token, user
// record, and cached resources. The default is an in-memory store.
func WithStore(s store.Store) Option {
	return func(c *Client) error {
		if s == nil {
			return fmt.Errorf("nil store")
		}
		c.store = s
		return nil
	}
}

// WithFileStore is WithStore with a file-backed store rooted at dir.
func WithFileStore(dir string) Option {
	return func(c *Client) error {
		s, err := store.NewFile(dir)
		if err != nil {
			return err
		}
		c.store = s
		return nil
	}
}

// WithDebugLogging wraps the client's transport such that every
// request/response is logged when enabled is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			transport := c.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: transport}
		}
		return nil
	}
}

// WithoutRefresher makes cache refreshes run inline instead of on the
// background runner. Suited to short-lived CLI invocations that would
// otherwise exit before a detached refresh lands.
func WithoutRefresher() Option {
	return func(c *Client) error {
		c.refresh = syncRunner{}
		return nil
	}
}
