// Package client is the Go SDK for the social-sense backend. It owns the
// session lifecycle (token + user record), read-through resource caches for
// the profile and history list, and the in-memory forum feed.
package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/socialsense/socialsense-go/client/internal/refresh"
	"github.com/socialsense/socialsense-go/client/internal/store"
)

// runner abstracts refresh.Runner for tests.
type runner interface {
	Submit(context.Context, refresh.Job) error
	Stop()
}

// syncRunner executes jobs inline. Used by WithoutRefresher for short-lived
// callers (CLI one-shots) and by tests that need deterministic refreshes.
type syncRunner struct{}

func (syncRunner) Submit(ctx context.Context, job refresh.Job) error {
	if err := job.Run(ctx); err != nil {
		log.Warn().Err(err).Msg("inline refresh failed")
	}
	return nil
}
func (syncRunner) Stop() {}

// Client talks to one social-sense backend. The base URL and all collaborators
// are injected at construction; there is no process-wide state.
type Client struct {
	baseURL string
	http    *http.Client
	store   store.Store
	refresh runner

	closedOnce uint32
}

// New constructs a Client for the backend at base. Without options the client
// keeps its state in memory only; pass WithStore for durable persistence.
func New(base string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store.NewMemory(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.refresh == nil {
		r, err := newDefaultRunner()
		if err != nil {
			return nil, err
		}
		c.refresh = r
	}
	return c, nil
}

// Close is idempotent. It drains the background refresh runner.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.refresh != nil {
		c.refresh.Stop()
	}
	return nil
}

func newDefaultRunner() (*refresh.Runner, error) {
	cfg, err := refresh.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg("background refresh failed")
		}
	}
	return refresh.NewRunner(cfg), nil
}
