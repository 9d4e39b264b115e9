package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "gopkg.in/go-playground/validator.v9"

	"github.com/blankon/cidash/internal/api"
	"github.com/blankon/cidash/pkg/httputil"
)

var (
	ErrNoStatus         = errors.New("status not loaded yet")
	ErrAdminDisabled    = errors.New("admin actions are not configured")
	ErrBuildUUIDMissing = errors.New("build uuid should not be empty")

	ErrBuildsetUUIDMissing = errors.New("buildset uuid should not be empty")
	ErrNameMissing         = errors.New("name should not be empty")
)

// UsecaseError wraps an HTTP-style status and user-facing message.
type UsecaseError struct {
	Code    int
	Message string
}

func (e UsecaseError) Error() string {
	return e.Message
}

// NewUsecaseError creates a typed error with status code.
func NewUsecaseError(code int, message string) error {
	return UsecaseError{Code: code, Message: message}
}

// StaleError is returned with data served from a snapshot because the
// upstream fetch failed.
type StaleError struct {
	FetchedAt time.Time
	Err       error
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("showing data from %s: %v", e.FetchedAt.Format(time.RFC3339), e.Err)
}

func (e *StaleError) Unwrap() error {
	return e.Err
}

// toUsecaseError maps client errors to a status code for the dashboard.
func toUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	var statusErr httputil.HTTPStatusError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		return NewUsecaseError(http.StatusUnauthorized, "sign in to perform this action")
	case errors.As(err, &validationErrs):
		return NewUsecaseError(http.StatusBadRequest, validationErrs.Error())
	case errors.As(err, &statusErr):
		message := statusErr.Message
		if message == "" {
			message = http.StatusText(statusErr.StatusCode)
		}
		return NewUsecaseError(statusErr.StatusCode, message)
	}
	return NewUsecaseError(http.StatusBadGateway, err.Error())
}
