package client

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/socialsense/socialsense-go/client/internal/refresh"
	"github.com/socialsense/socialsense-go/client/internal/store"
)

// resourceCache implements the read-through, stale-while-revalidate pattern
// shared by the profile and history caches. A hit returns the cached value
// immediately and enqueues a detached refresh; its outcome is only observable
// through the next Get. The cache stores nothing it did not receive as a
// direct, successful backend response.
type resourceCache[T any] struct {
	c        *Client
	resource string // metric label
	key      func(ctx context.Context) (string, error)
	fetch    func(ctx context.Context) (T, error)
}

// Get returns the cached value when present, kicking off a background
// refresh, and falls through to a synchronous fetch on a cold store.
func (rc *resourceCache[T]) Get(ctx context.Context) (T, error) {
	var zero T
	key, err := rc.key(ctx)
	if err != nil {
		return zero, err
	}
	raw, ok, err := rc.c.store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			rc.refreshInBackground()
			return v, nil
		}
		// Unreadable cache entry; treat as a miss and refetch.
		log.Warn().Str("key", key).Msg("discarding corrupt cache entry")
	}
	return rc.ForceRefresh(ctx)
}

// ForceRefresh always hits the network and overwrites the cached value on
// success. On failure the stale cache is left untouched.
func (rc *resourceCache[T]) ForceRefresh(ctx context.Context) (T, error) {
	var zero T
	v, err := rc.fetch(ctx)
	if err != nil {
		return zero, err
	}
	key, err := rc.key(ctx)
	if err != nil {
		return zero, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	if err := rc.c.store.Set(ctx, key, string(b)); err != nil {
		return zero, err
	}
	return v, nil
}

// Clear drops the cached value without touching the backend.
func (rc *resourceCache[T]) Clear(ctx context.Context) error {
	key, err := rc.key(ctx)
	if err != nil {
		return err
	}
	return rc.c.store.Delete(ctx, key)
}

// refreshInBackground submits a detached refresh. Errors never reach the
// caller that triggered it; they are logged and counted.
func (rc *resourceCache[T]) refreshInBackground() {
	resource := rc.resource
	job := refresh.JobFunc(func(jctx context.Context) error {
		if _, err := rc.ForceRefresh(jctx); err != nil {
			refreshFailedTotal.WithLabelValues(resource).Inc()
			return err
		}
		return nil
	})
	if err := rc.c.refresh.Submit(context.Background(), job); err != nil {
		log.Warn().Err(err).Str("resource", resource).Msg("could not enqueue background refresh")
		return
	}
	refreshEnqueuedTotal.WithLabelValues(resource).Inc()
}

// profileCache caches the user record under its fixed key.
func (c *Client) profileCache() *resourceCache[*User] {
	return &resourceCache[*User]{
		c:        c,
		resource: "profile",
		key: func(context.Context) (string, error) {
			return store.KeyUserData, nil
		},
		fetch: c.CurrentUser,
	}
}

// historiesCache caches the history list keyed by the current user's ID.
func (c *Client) historiesCache() *resourceCache[[]History] {
	return &resourceCache[[]History]{
		c:        c,
		resource: "histories",
		key: func(ctx context.Context) (string, error) {
			u, ok, err := c.storedUser(ctx)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", errNoStoredUser()
			}
			return store.HistoriesKey(u.ID), nil
		},
		fetch: c.fetchHistories,
	}
}
