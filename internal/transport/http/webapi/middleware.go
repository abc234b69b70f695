package webapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-server-go/internal/domain/auth"
	"catalog-server-go/internal/domain/auth/model"
)

const contextUserKey = "auth.user"

// Guard adapts the auth domain's guard chain to gin middleware.
type Guard struct {
	authorizer *auth.Authorizer
}

// NewGuard wraps an Authorizer for route protection.
func NewGuard(authorizer *auth.Authorizer) *Guard {
	return &Guard{authorizer: authorizer}
}

// Protect returns middleware enforcing the guard chain plus any extra
// requirements. On success the resolved user lands in the request context.
func (g *Guard) Protect(reqs ...auth.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		user, err := g.authorizer.Authorize(c.Request.Context(), token, reqs...)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrForbidden):
				respondError(c, http.StatusForbidden, err.Error(), nil)
			case errors.Is(err, auth.ErrUnauthenticated):
				c.Header("WWW-Authenticate", "Bearer")
				respondError(c, http.StatusUnauthorized, err.Error(), nil)
			default:
				respondError(c, http.StatusInternalServerError, "authorization check failed", nil)
			}
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account resolved by Protect for this request.
func CurrentUser(c *gin.Context) (model.UserRecord, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return model.UserRecord{}, false
	}
	user, ok := value.(model.UserRecord)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
