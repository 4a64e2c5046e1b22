package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
	"github.com/socialsense/socialsense-go/client/internal/store"
)

const maxErrorBody = 4 << 10

// token reads the stored bearer token. A missing token is an auth-class
// failure so callers purge/redirect uniformly.
func (c *Client) token(ctx context.Context) (string, error) {
	tok, ok, err := c.store.Get(ctx, store.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if !ok || tok == "" {
		return "", apierrors.Auth("session", "no authentication token found")
	}
	return tok, nil
}

// newJSONRequest builds a JSON request against the backend. When authed is
// true the stored bearer token is attached.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any, authed bool) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do executes req and classifies the outcome. On success the caller owns the
// response body. Transport failures classify as network errors; non-want
// statuses become typed errors carrying the backend detail text.
func (c *Client) do(req *http.Request, op string, want int) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if cerr := req.Context().Err(); errors.Is(cerr, context.Canceled) {
			return nil, cerr
		}
		return nil, apierrors.Network(op, err)
	}
	if resp.StatusCode != want {
		detail := readDetail(resp.Body)
		_ = resp.Body.Close()
		return nil, apierrors.FromStatus(op, resp.StatusCode, detail)
	}
	return resp, nil
}

// doJSON executes req expecting want, decoding the body into out when out is
// non-nil.
func (c *Client) doJSON(req *http.Request, op string, want int, out any) error {
	resp, err := c.do(req, op, want)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readDetail extracts the FastAPI-style {"detail": ...} message from an error
// body, falling back to the raw text.
func readDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(b))
}
