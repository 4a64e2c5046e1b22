// Package store provides the durable key-value persistence the SDK uses for
// the auth token, the cached user record, and cached resource lists.
package store

import "context"

// Store is an asynchronous string key-value store. Implementations must be
// safe for concurrent use; background cache refreshes write while callers
// read.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Well-known keys. No component outside the SDK writes these.
const (
	KeyAuthToken   = "auth_token"
	KeyUserData    = "user_data"
	KeyForumFilter = "forum_filter"
)

// HistoriesKey returns the per-user cache key for the history list.
func HistoriesKey(userID string) string { return "user_histories:" + userID }
