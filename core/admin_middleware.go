package core

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const subjectKey = "session_subject"

// RequireRole decides whether subject may perform an operation needing role.
// Roles are compared exactly; admin does not imply user.
func RequireRole(subject *SessionSubject, role Role) error {
	if subject == nil {
		return ErrUnauthorized
	}
	if subject.Role != role {
		return ErrForbidden
	}
	return nil
}

// RoleRequired aborts the request unless the session carries role.
func RoleRequired(role Role, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowRole(c, role, metrics) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// allowRole runs RequireRole for the current request and writes the
// rejection response itself.
func allowRole(c *gin.Context, role Role, metrics *Metrics) bool {
	err := RequireRole(currentSubject(c), role)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrUnauthorized):
		metrics.denied("unauthorized")
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
	default:
		metrics.denied("forbidden")
		respondError(c, http.StatusForbidden, "FORBIDDEN", "insufficient role")
	}
	return false
}

func currentSubject(c *gin.Context) *SessionSubject {
	v, ok := c.Get(subjectKey)
	if !ok {
		return nil
	}
	s, _ := v.(*SessionSubject)
	return s
}
