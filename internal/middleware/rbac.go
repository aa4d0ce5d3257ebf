package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/response"
)

// RequirePermission checks that the admin JWT grants permissionCode.
func RequirePermission(permissionCode string) gin.HandlerFunc {
	return RequireAnyPermission(permissionCode)
}

// RequireAnyPermission checks that the admin JWT grants at least one of codes.
// A grant of "*" covers everything and "resource:*" covers every action on
// resource, so "exam_groups:*" satisfies "exam_groups:publish".
func RequireAnyPermission(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, want := range codes {
			if granted(claims.Permissions, want) {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}

func granted(perms []string, want string) bool {
	resource, _, _ := strings.Cut(want, ":")
	for _, p := range perms {
		switch {
		case p == want, p == "*":
			return true
		case strings.HasSuffix(p, ":*") && strings.TrimSuffix(p, ":*") == resource:
			return true
		}
	}
	return false
}
