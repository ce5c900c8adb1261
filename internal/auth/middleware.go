package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RoleFaculty is the role issued to dashboard users; tokens carrying any
// other role are rejected by FacultyAuth.
const RoleFaculty = "faculty"

const claimsKey = "claims"

// FacultyAuth enforces bearer JWT tokens signed with HS256 and issued with
// the faculty role. Valid claims are stored on the request context for
// FacultyID.
func FacultyAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Role != RoleFaculty {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "faculty role required"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// FacultyID returns the authenticated faculty identifier, or "" outside an
// authenticated request.
func FacultyID(c *gin.Context) string {
	claimsAny, ok := c.Get(claimsKey)
	if !ok {
		return ""
	}
	claims, ok := claimsAny.(Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
