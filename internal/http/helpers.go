package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/auth"
)

// currentUserID returns the authenticated user's ID from the request
// context. The auth middleware guarantees it is set on protected routes.
func currentUserID(c *gin.Context) string {
	return c.GetString(auth.ContextKeyUserID)
}

// csrfToken returns the CSRF token injected by the middleware, if any.
func csrfToken(c *gin.Context) string {
	return c.GetString(auth.ContextKeyCSRFToken)
}

// splitList parses a comma-separated form field into trimmed, non-empty
// values. Used for the author and tag inputs.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// joinList renders a list back into the comma-separated form format.
func joinList(values []string) string {
	return strings.Join(values, ", ")
}

// parseOptionalInt returns nil for an empty field.
func parseOptionalInt(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// parseOptionalDate parses a yyyy-mm-dd form date, nil when empty.
func parseOptionalDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// optionalString returns nil for an empty field so empty inputs stay NULL.
func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
