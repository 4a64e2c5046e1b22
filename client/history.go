package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
)

func errNoStoredUser() error {
	return apierrors.Auth("histories", "no authentication token or user data found")
}

// Histories returns the current user's history list through the read-through
// cache.
func (c *Client) Histories(ctx context.Context) ([]History, error) {
	return c.historiesCache().Get(ctx)
}

// RefreshHistories bypasses the cache and overwrites it with fresh state.
func (c *Client) RefreshHistories(ctx context.Context) ([]History, error) {
	return c.historiesCache().ForceRefresh(ctx)
}

// ClearHistoryCache drops the cached history list.
func (c *Client) ClearHistoryCache(ctx context.Context) error {
	return c.historiesCache().Clear(ctx)
}

// fetchHistories is the cache's backing fetch: the raw list endpoint.
func (c *Client) fetchHistories(ctx context.Context) ([]History, error) {
	u, ok, err := c.storedUser(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoStoredUser()
	}
	q := url.Values{}
	q.Set("user_id", u.ID)
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/history/user/?"+q.Encode(), nil, true)
	if err != nil {
		return nil, err
	}
	var hs []History
	if err := c.doJSON(req, "list histories", http.StatusOK, &hs); err != nil {
		return nil, err
	}
	return hs, nil
}

// CreateHistory creates a history. An empty id lets the client pick a fresh
// UUID rather than deferring to the backend, so the caller knows the ID
// immediately.
func (c *Client) CreateHistory(ctx context.Context, id string) (*History, error) {
	if id == "" {
		id = uuid.NewString()
	} else if err := requireUUID("create history", "historyId", id); err != nil {
		return nil, err
	}
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/history/", createHistoryRequest{HistoryID: id}, true)
	if err != nil {
		return nil, err
	}
	var h History
	if err := c.doJSON(req, "create history", http.StatusOK, &h); err != nil {
		return nil, err
	}
	c.refreshHistoriesAfterMutation(ctx)
	return &h, nil
}

// GetHistory fetches one history by ID, uncached.
func (c *Client) GetHistory(ctx context.Context, historyID string) (*History, error) {
	if err := requireUUID("get history", "historyId", historyID); err != nil {
		return nil, err
	}
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/history/"+historyID, nil, true)
	if err != nil {
		return nil, err
	}
	var h History
	if err := c.doJSON(req, "get history", http.StatusOK, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// AddQueryToHistory appends a query reference to a history's query set.
func (c *Client) AddQueryToHistory(ctx context.Context, historyID, queryID string) error {
	if err := requireUUID("add query", "historyId", historyID); err != nil {
		return err
	}
	if err := requireUUID("add query", "queryId", queryID); err != nil {
		return err
	}
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	req, err := c.newJSONRequest(ctx, http.MethodPut, "/history/"+historyID+"/add-query", historyQueryRequest{QueryID: queryID}, true)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, "add query", http.StatusOK, nil); err != nil {
		return err
	}
	c.refreshHistoriesAfterMutation(ctx)
	return nil
}

// RemoveQueryFromHistory removes a query reference from a history's query
// set. The endpoint is a DELETE that carries a JSON body.
func (c *Client) RemoveQueryFromHistory(ctx context.Context, historyID, queryID string) error {
	if err := requireUUID("remove query", "historyId", historyID); err != nil {
		return err
	}
	if err := requireUUID("remove query", "queryId", queryID); err != nil {
		return err
	}
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/history/"+historyID+"/remove-query", historyQueryRequest{QueryID: queryID}, true)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, "remove query", http.StatusOK, nil); err != nil {
		return err
	}
	c.refreshHistoriesAfterMutation(ctx)
	return nil
}

// DeleteHistory removes a whole history.
func (c *Client) DeleteHistory(ctx context.Context, historyID string) error {
	if err := requireUUID("delete history", "historyId", historyID); err != nil {
		return err
	}
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/history/"+historyID, nil, true)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, "delete history", http.StatusOK, nil); err != nil {
		return err
	}
	c.refreshHistoriesAfterMutation(ctx)
	return nil
}

// MostRecentHistory returns the history with the highest query count, or nil
// when the user has none.
func (c *Client) MostRecentHistory(ctx context.Context) (*History, error) {
	hs, err := c.Histories(ctx)
	if err != nil {
		return nil, err
	}
	if len(hs) == 0 {
		return nil, nil
	}
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].QueryNumber > hs[j].QueryNumber })
	return &hs[0], nil
}

// refreshHistoriesAfterMutation re-syncs the cached list after a confirmed
// mutation. The mutation already succeeded, so a refresh failure only means
// the cache stays stale until the next successful refresh.
func (c *Client) refreshHistoriesAfterMutation(ctx context.Context) {
	if _, err := c.RefreshHistories(ctx); err != nil {
		log.Warn().Err(err).Msg("history cache refresh after mutation failed")
	}
}
