package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chathaus/friends-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs internal consistency faults and unexpected errors without leaking
//     details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrReceiverNotFound):
		return http.StatusNotFound, "user could not be found"
	case errors.Is(err, domain.ErrRequestNotFound):
		return http.StatusNotFound, "request not found or already resolved"
	case errors.Is(err, domain.ErrNotRequestOwner):
		return http.StatusForbidden, "request does not belong to you"
	case errors.Is(err, domain.ErrSelfRequest):
		return http.StatusUnprocessableEntity, "cannot send a request to yourself"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, "request already sent"
	case errors.Is(err, domain.ErrReverseRequestExists):
		return http.StatusConflict, "this user has already sent you a request"
	case errors.Is(err, domain.ErrAlreadyFriends):
		return http.StatusConflict, "you are already friends"
	}

	// Consistency faults: log the detail for operators, keep the response
	// generic.
	if errors.Is(err, domain.ErrSenderNotFound) || errors.Is(err, domain.ErrConsistency) {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("consistency fault")
		return http.StatusInternalServerError, "internal error"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
