// Package apperr defines the domain error taxonomy shared by all workflows
// and maps it to HTTP responses at the handler boundary.
package apperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is a domain error with a fixed HTTP status. Workflows return these
// unchanged; anything else reaching the boundary is treated as a storage
// failure and surfaced as a generic 500.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Invalid reports malformed or missing input.
func Invalid(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// InvalidFields reports validation failures with per-field detail.
func InvalidFields(msg string, fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Fields: fields}
}

// Unauthorized reports missing or bad credentials. The message stays generic
// so callers can never tell which factor failed.
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// Forbidden reports a valid session with insufficient privilege.
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// NotFound reports a missing entity.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict reports a state conflict, e.g. borrowing an unavailable book or
// registering a duplicate username.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

// IsStatus reports whether err is a domain error with the given status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}

// Respond writes err to the response. Domain errors keep their status and
// message; everything else is logged and becomes a generic 500.
func Respond(c *gin.Context, err error) {
	var e *Error
	if errors.As(err, &e) {
		body := gin.H{"error": e.Message}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		c.JSON(e.Status, body)
		return
	}
	log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
