package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
)

func TestReadDetail(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Incorrect username or password"}`, "Incorrect username or password"},
		{"structured detail", `{"detail":[{"loc":["body","email"],"msg":"invalid"}]}`, `[{"loc":["body","email"],"msg":"invalid"}]`},
		{"plain text", "internal server error\n", "internal server error"},
		{"empty", "", ""},
		{"other json", `{"error":"nope"}`, `{"error":"nope"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := readDetail(strings.NewReader(tc.body)); got != tc.want {
				t.Fatalf("readDetail(%q) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestDo_SurfacesBackendDetail(t *testing.T) {
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Path == "/user/me" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail":"user already exists"}`))
			return true
		}
		return false
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	_, err := c.CurrentUser(context.Background())
	var ae *apierrors.Error
	if !errors.As(err, &ae) {
		t.Fatalf("want *apierrors.Error, got %T: %v", err, err)
	}
	if ae.StatusCode != http.StatusConflict || ae.Detail != "user already exists" {
		t.Fatalf("unexpected classified error %+v", ae)
	}
}

func TestDo_CancelledContextIsNotANetworkError(t *testing.T) {
	srv := authServer(t, func(w http.ResponseWriter, r *http.Request) bool {
		if r.URL.Path == "/user/me" {
			time.Sleep(200 * time.Millisecond)
			return false
		}
		return false
	})
	c, mem := newTestClient(t, srv)
	seedSession(t, mem, "tok-1")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.CurrentUser(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if IsNetworkError(err) {
		t.Fatal("deliberate cancellation misclassified as network failure")
	}
}

func TestNewJSONRequest_MissingTokenIsAuthError(t *testing.T) {
	srv := authServer(t, nil)
	c, _ := newTestClient(t, srv)

	_, err := c.newJSONRequest(context.Background(), http.MethodGet, "/user/me", nil, true)
	if !IsAuthError(err) {
		t.Fatalf("want auth error, got %v", err)
	}
}
