package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/mens-health/internal/domain/access"
	"github.com/yanqian/mens-health/internal/domain/auth"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
)

// authMiddleware restores the session behind a bearer token. Callers without
// a usable token continue anonymously; only a failing session lookup aborts.
func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		session, err := svc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeInvalidToken) || apperrors.IsCode(err, auth.CodeUserNotFound) {
				c.Next()
				return
			}
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_failed", apperrors.MessageOf(err), err))
			return
		}
		setSession(c, session)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireSession rejects anonymous callers.
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := getSession(c); !ok {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, "login required", nil))
			return
		}
		c.Next()
	}
}

// requireView admits callers whose role may open view.
func requireView(view string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, authenticated := getSession(c)
		if access.CanAccess(sessionRole(c), view) {
			c.Next()
			return
		}
		if !authenticated {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, "login required", nil))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusForbidden, apperrors.CodeForbidden, "access to "+view+" denied", nil))
	}
}
