package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userKey  = "auth.user"
	tokenKey = "auth.token"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string, kind model.TokenKind) (model.User, error)
}

// BearerAuth admits requests carrying a valid access token for an active
// user. Requests without a bearer credential are rejected before the token
// is looked at.
func BearerAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithAuthError(c, authErrors.ErrMissingCredential)
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token, model.TokenAccess)
		if err != nil {
			if !authErrors.IsUnauthenticated(err) && !authErrors.IsIdentityDisabled(err) {
				log.Error("bearer verification failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			} else {
				log.Debug("bearer rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			}
			AbortWithAuthError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// CurrentUser returns the identity BearerAuth attached to the request.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// AbortWithAuthError writes the rejection for an authentication or
// authorization failure. Unauthorized responses carry a Bearer challenge.
func AbortWithAuthError(c *gin.Context, err error) {
	status, msg := AuthFailure(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// AuthFailure maps err to a status code and a client-safe message. Errors
// outside the taxonomy become a generic 401.
func AuthFailure(err error) (int, string) {
	switch {
	case errors.Is(err, authErrors.ErrIdentityDisabled):
		return http.StatusForbidden, "forbidden: user is inactive"
	// checked before ErrUnknownIdentity: login wraps both so that an unknown
	// username reads the same as a wrong password
	case errors.Is(err, authErrors.ErrCredentialMismatch):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, authErrors.ErrMissingCredential):
		return http.StatusUnauthorized, "authentication required: missing or invalid Authorization header"
	case errors.Is(err, authErrors.ErrDecode):
		return http.StatusUnauthorized, "authentication failed: token decode error"
	case errors.Is(err, authErrors.ErrInvalidSignature):
		return http.StatusUnauthorized, "authentication failed: invalid signature"
	case errors.Is(err, authErrors.ErrExpired):
		return http.StatusUnauthorized, "authentication failed: token expired"
	case errors.Is(err, authErrors.ErrMissingSubject):
		return http.StatusUnauthorized, "authentication failed: user id missing in token"
	case errors.Is(err, authErrors.ErrWrongTokenType):
		return http.StatusUnauthorized, "authentication failed: wrong token type"
	case errors.Is(err, authErrors.ErrRevoked):
		return http.StatusUnauthorized, "authentication failed: token revoked"
	case errors.Is(err, authErrors.ErrUnknownIdentity):
		return http.StatusUnauthorized, "authentication failed: user not found"
	default:
		return http.StatusUnauthorized, "authentication failed"
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
