package client

import (
	"errors"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
	"github.com/socialsense/socialsense-go/client/internal/refresh"
)

// ErrReauthRequired is returned by Feed.Load when the backend rejected the
// session; the caller should send the user back through login.
var ErrReauthRequired = errors.New("re-authentication required")

// ErrQueueFull is returned when the background refresh queue is full.
var ErrQueueFull = refresh.ErrQueueFull

// IsAuthError reports whether err is credential-related (401/403, missing or
// rejected token). These failures purge local credentials.
func IsAuthError(err error) bool { return apierrors.Is(err, apierrors.KindAuth) }

// IsNetworkError reports whether err is a transport-level failure with no
// backend verdict. Session checks treat these as "assume still valid".
func IsNetworkError(err error) bool { return apierrors.Is(err, apierrors.KindNetwork) }

// IsServerError reports whether err is a 5xx response.
func IsServerError(err error) bool { return apierrors.Is(err, apierrors.KindServer) }

// IsValidationError reports whether err was raised client-side before any
// request was made.
func IsValidationError(err error) bool { return apierrors.Is(err, apierrors.KindValidation) }
