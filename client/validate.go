package client

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
)

// emailRegex matches the same shape the registration form accepts:
// something@something.tld, no whitespace.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

// validateRegistration checks registration input before any request is made.
func validateRegistration(req RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Name == "" || req.Password == "" {
		return apierrors.Validation("register", "all required fields must be filled")
	}
	if !emailRegex.MatchString(req.Email) {
		return apierrors.Validation("register", "invalid email address")
	}
	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		return apierrors.Validation("register", "passwords do not match")
	}
	if len(req.Password) < minPasswordLen {
		return apierrors.Validation("register", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}

// validateCredentials checks login input.
func validateCredentials(username, password string) error {
	if username == "" || password == "" {
		return apierrors.Validation("login", "username and password are required")
	}
	return nil
}

// requireText validates a user-entered text field: non-empty after trimming.
// Returns the trimmed value.
func requireText(op, field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apierrors.Validation(op, field+" must not be empty")
	}
	return v, nil
}

// requireUUID validates an ID that the backend issues as a UUID.
func requireUUID(op, field, id string) error {
	if id == "" {
		return apierrors.Validation(op, field+" is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apierrors.Validation(op, field+" must be a valid UUID")
	}
	return nil
}
