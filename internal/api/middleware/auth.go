package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/models"
	"sos-backend/pkg/jwt"
	"sos-backend/pkg/utils"
)

const identityKey = "identity"

var errMissingToken = errors.New("authorization header required")

// Authenticate parses a bearer token when one is present and stores the
// caller identity on the context. Requests without a token pass through as
// guests; a token that fails validation is rejected.
func Authenticate(jwtUtil *jwt.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		id, err := jwtUtil.Identity(token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", err)
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireIdentity rejects guests. With roles given, the caller must hold one of them.
func RequireIdentity(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", errMissingToken)
			c.Abort()
			return
		}

		if len(roles) > 0 && !hasRole(id.Role, roles) {
			utils.ErrorResponse(c, http.StatusForbidden, "Insufficient role", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller set by Authenticate.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

// bearerToken accepts "Bearer <token>" or a bare token.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return header
}

func hasRole(role models.Role, roles []models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
