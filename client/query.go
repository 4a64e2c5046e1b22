package client

import (
	"context"
	"net/http"
)

// GetQuery resolves a query reference from a history's query set.
func (c *Client) GetQuery(ctx context.Context, queryID string) (*Query, error) {
	if err := requireUUID("get query", "queryId", queryID); err != nil {
		return nil, err
	}
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/query/"+queryID, nil, true)
	if err != nil {
		return nil, err
	}
	var q Query
	if err := c.doJSON(req, "get query", http.StatusOK, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
