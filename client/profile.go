package client

import "context"

// UserProfile returns the current user's profile through the read-through
// cache: a warm store answers immediately and refreshes in the background, a
// cold store fetches synchronously.
func (c *Client) UserProfile(ctx context.Context) (*User, error) {
	return c.profileCache().Get(ctx)
}

// RefreshUserProfile bypasses the cache and overwrites it with fresh backend
// state.
func (c *Client) RefreshUserProfile(ctx context.Context) (*User, error) {
	return c.profileCache().ForceRefresh(ctx)
}
