package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
	"github.com/socialsense/socialsense-go/client/internal/refresh"
	"github.com/socialsense/socialsense-go/client/internal/store"
)

// Session state transitions:
//
//	logged out --login/register--> logged in
//	logged in  --logout, verify fails with auth error--> logged out
//	logged in  --verify fails with network error--> logged in (optimistic)
//
// The token and the user record move together: a purge always removes both.

// Login exchanges credentials for a token, fetches the user record, and
// persists both. The login endpoint takes an OAuth2 password form, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*User, string, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, "", err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tok TokenResponse
	if err := c.doJSON(req, "login", http.StatusOK, &tok); err != nil {
		return nil, "", err
	}
	if err := c.store.Set(ctx, store.KeyAuthToken, tok.AccessToken); err != nil {
		return nil, "", err
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, "", err
	}
	if err := c.saveUser(ctx, user); err != nil {
		return nil, "", err
	}
	return user, tok.AccessToken, nil
}

// Register creates an account and then logs in, since the registration
// endpoint returns the created user but no token.
func (c *Client) Register(ctx context.Context, reg RegisterRequest) (*User, string, error) {
	if err := validateRegistration(reg); err != nil {
		return nil, "", err
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/auth/register", reg, false)
	if err != nil {
		return nil, "", err
	}
	var created User
	if err := c.doJSON(req, "register", http.StatusOK, &created); err != nil {
		// Some deployments answer 201 for creation.
		var ae *apierrors.Error
		if !errors.As(err, &ae) || ae.StatusCode != http.StatusCreated {
			return nil, "", err
		}
	}

	return c.Login(ctx, reg.Username, reg.Password)
}

// Logout notifies the backend best-effort and unconditionally purges the
// local token and user record. A failing or unreachable backend never leaves
// credentials behind.
func (c *Client) Logout(ctx context.Context) error {
	tok, ok, err := c.store.Get(ctx, store.KeyAuthToken)
	if err == nil && ok && tok != "" {
		c.notifyLogout(tok)
	} else if err != nil {
		log.Warn().Err(err).Msg("reading token during logout")
	}
	return c.purgeSession(ctx)
}

// notifyLogout fires the server-side invalidation without waiting for it.
func (c *Client) notifyLogout(tok string) {
	job := refresh.JobFunc(func(jctx context.Context) error {
		jctx, cancel := context.WithTimeout(jctx, 10*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(jctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			// The local purge already happened; nothing to recover.
			log.Warn().Err(err).Msg("logout notification failed")
			return nil
		}
		_ = resp.Body.Close()
		return nil
	})
	if err := c.refresh.Submit(context.Background(), job); err != nil {
		log.Warn().Err(err).Msg("could not enqueue logout notification")
	}
}

// IsLoggedIn reports whether a usable credential exists. The token is
// validated against the backend rather than decoded locally: a network
// failure keeps the session alive for offline continuation, an auth failure
// purges it, anything else reports false without purging.
func (c *Client) IsLoggedIn(ctx context.Context) bool {
	_, ok, err := c.store.Get(ctx, store.KeyAuthToken)
	if err != nil || !ok {
		return false
	}

	if err := c.VerifyToken(ctx); err != nil {
		switch {
		case IsNetworkError(err):
			log.Debug().Err(err).Msg("token verify unreachable, continuing session")
			return true
		case IsAuthError(err):
			if perr := c.purgeSession(ctx); perr != nil {
				log.Warn().Err(perr).Msg("purging rejected session")
			}
			return false
		default:
			log.Warn().Err(err).Msg("token verify failed")
			return false
		}
	}
	return true
}

// VerifyToken round-trips the stored token to the backend.
func (c *Client) VerifyToken(ctx context.Context) error {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/auth/verify-token", nil, true)
	if err != nil {
		return err
	}
	return c.doJSON(req, "verify token", http.StatusOK, nil)
}

// RefreshToken rotates the token using the current one and reports success.
// Refresh is advisory: failures are logged, never returned.
func (c *Client) RefreshToken(ctx context.Context) bool {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/auth/refresh-token", nil, true)
	if err != nil {
		log.Debug().Err(err).Msg("token refresh skipped")
		return false
	}
	var tok TokenResponse
	if err := c.doJSON(req, "refresh token", http.StatusOK, &tok); err != nil {
		log.Debug().Err(err).Msg("token refresh failed")
		return false
	}
	if err := c.store.Set(ctx, store.KeyAuthToken, tok.AccessToken); err != nil {
		log.Warn().Err(err).Msg("storing refreshed token")
		return false
	}
	return true
}

// CurrentUser fetches the caller's user record from the backend.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, "/user/me", nil, true)
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.doJSON(req, "get current user", http.StatusOK, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile sends changed fields and persists the canonical record the
// backend returns.
func (c *Client) UpdateProfile(ctx context.Context, upd UserUpdate) (*User, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPut, "/user/update", upd, true)
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.doJSON(req, "update profile", http.StatusOK, &u); err != nil {
		return nil, err
	}
	if err := c.saveUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ensureSession re-validates the session before a mutating request. On an
// auth-rejected verify it attempts one token refresh before giving up.
func (c *Client) ensureSession(ctx context.Context) error {
	if _, err := c.token(ctx); err != nil {
		return err
	}
	err := c.VerifyToken(ctx)
	if err == nil {
		return nil
	}
	if IsAuthError(err) {
		if c.RefreshToken(ctx) {
			return nil
		}
		return apierrors.Auth("session", "authentication session expired, please login again")
	}
	return err
}

// storedUser returns the locally persisted user record, if any.
func (c *Client) storedUser(ctx context.Context) (*User, bool, error) {
	raw, ok, err := c.store.Get(ctx, store.KeyUserData)
	if err != nil || !ok {
		return nil, false, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, false, err
	}
	return &u, true, nil
}

func (c *Client) saveUser(ctx context.Context, u *User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, store.KeyUserData, string(b))
}

// purgeSession removes the token and user record together.
func (c *Client) purgeSession(ctx context.Context) error {
	terr := c.store.Delete(ctx, store.KeyAuthToken)
	uerr := c.store.Delete(ctx, store.KeyUserData)
	if terr != nil {
		return terr
	}
	return uerr
}
