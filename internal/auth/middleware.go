package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	dom "github.com/calculuslmvt/backend101-yt/internal/domain"
	"github.com/calculuslmvt/backend101-yt/internal/dto"
	"github.com/calculuslmvt/backend101-yt/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const accessCookieName = "accessToken"

const contextKeyUser = "current_user"

// CurrentUser returns the authenticated user set by RequireAuth. The zero
// user (ID 0) means the middleware did not run.
func CurrentUser(c *gin.Context) dom.User {
	v, ok := c.Get(contextKeyUser)
	if !ok {
		return dom.User{}
	}
	u, ok := v.(dom.User)
	if !ok {
		return dom.User{}
	}
	return u
}

// UserSource resolves a token's identity to a stored user.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (dom.User, error)
}

// RequireAuth verifies the access token from the accessToken cookie or the
// Authorization header, resolves the claims to a stored user and puts the
// public projection in context. Verification is purely cryptographic and
// time-based: the stored refresh token is never consulted, so a valid
// access token outlives logout until it expires.
func RequireAuth(tokens *token.Manager, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			abortUnauthorized(c, "unauthorized request")
			return
		}

		claims, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				abortUnauthorized(c, "Access token expired")
				return
			}
			abortUnauthorized(c, "Invalid Access Token")
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				abortUnauthorized(c, "Invalid Access Token")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.APIErrorResponse{
				StatusCode: http.StatusInternalServerError,
				Message:    "something went wrong",
				Errors:     []string{},
			})
			return
		}

		c.Set(contextKeyUser, u.Public())
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessCookieName); err == nil && cookie != "" {
		return cookie
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.APIErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Errors:     []string{},
	})
}
