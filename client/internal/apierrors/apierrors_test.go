package apierrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus_Classification(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusBadRequest, KindGeneric},
		{http.StatusNotFound, KindGeneric},
		{http.StatusConflict, KindGeneric},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
		{http.StatusServiceUnavailable, KindServer},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			err := FromStatus("op", tc.status, "detail")
			assert.Equal(t, tc.want, err.Kind)
			assert.Equal(t, tc.status, err.StatusCode)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "login: status 401: Incorrect username or password",
		FromStatus("login", 401, "Incorrect username or password").Error())
	assert.Equal(t, "login: status 502", FromStatus("login", 502, "").Error())
	assert.Equal(t, "verify: boom", Network("verify", errors.New("boom")).Error())
	assert.Equal(t, "login: auth error", Auth("login", "").Error())
}

func TestKindOf_WrappedChain(t *testing.T) {
	base := FromStatus("list questions", http.StatusForbidden, "")
	wrapped := fmt.Errorf("feed load: %w", base)

	k, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindAuth, k)
	assert.True(t, Is(wrapped, KindAuth))
	assert.False(t, Is(wrapped, KindServer))
}

func TestKindOf_BareTransportErrors(t *testing.T) {
	var ne net.Error = &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	k, ok := KindOf(fmt.Errorf("get: %w", ne))
	assert.True(t, ok)
	assert.Equal(t, KindNetwork, k)

	k, ok = KindOf(fmt.Errorf("get: %w", context.DeadlineExceeded))
	assert.True(t, ok)
	assert.Equal(t, KindNetwork, k)
}

func TestKindOf_UnclassifiedError(t *testing.T) {
	_, ok := KindOf(errors.New("something else"))
	assert.False(t, ok)
	assert.False(t, Is(errors.New("something else"), KindGeneric))
}

func TestUnwrap(t *testing.T) {
	underlying := errors.New("dial tcp: connection refused")
	err := Network("verify", underlying)
	assert.True(t, errors.Is(err, underlying))
}

func TestIrrecoverable(t *testing.T) {
	assert.True(t, Irrecoverable(Auth("op", "missing token")))
	assert.True(t, Irrecoverable(Validation("op", "bad input")))
	assert.True(t, Irrecoverable(FromStatus("op", http.StatusUnauthorized, "")))
	assert.False(t, Irrecoverable(FromStatus("op", http.StatusInternalServerError, "")))
	assert.False(t, Irrecoverable(Network("op", errors.New("refused"))))
	assert.False(t, Irrecoverable(errors.New("plain")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "auth", KindAuth.String())
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "server", KindServer.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "generic", KindGeneric.String())
}
