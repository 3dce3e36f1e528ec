package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	authErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type verifierStub struct {
	user  model.User
	err   error
	calls int
	token string
	kind  model.TokenKind
}

func (v *verifierStub) Verify(_ context.Context, token string, kind model.TokenKind) (model.User, error) {
	v.calls++
	v.token = token
	v.kind = kind
	return v.user, v.err
}

func gatedRouter(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", BearerAuth(v, zap.NewNop()), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "token": CurrentToken(c)})
	})
	return r
}

func call(r http.Handler, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestBearerAuth_Admits(t *testing.T) {
	v := &verifierStub{user: model.User{ID: 42, Username: "alice", IsActive: true}}
	w := call(gatedRouter(v), "Bearer tok.en.value")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":42,"token":"tok.en.value"}`, w.Body.String())
	require.Equal(t, 1, v.calls)
	require.Equal(t, "tok.en.value", v.token)
	require.Equal(t, model.TokenAccess, v.kind)
}

func TestBearerAuth_SchemeCaseInsensitive(t *testing.T) {
	v := &verifierStub{user: model.User{ID: 1, IsActive: true}}
	require.Equal(t, http.StatusOK, call(gatedRouter(v), "bEaReR abc").Code)
	require.Equal(t, "abc", v.token)
}

func TestBearerAuth_MissingCredential(t *testing.T) {
	cases := map[string]string{
		"absent":       "",
		"basic scheme": "Basic xyz",
		"no token":     "Bearer",
		"blank token":  "Bearer    ",
		"bare token":   "abc.def.ghi",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			v := &verifierStub{}
			w := call(gatedRouter(v), header)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			require.Contains(t, w.Body.String(), "missing or invalid Authorization header")
			require.Zero(t, v.calls, "verifier must not be consulted")
		})
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"expired", authErrors.ErrExpired, http.StatusUnauthorized, "token expired"},
		{"signature", authErrors.ErrInvalidSignature, http.StatusUnauthorized, "invalid signature"},
		{"decode", authErrors.ErrDecode, http.StatusUnauthorized, "token decode error"},
		{"subject", authErrors.ErrMissingSubject, http.StatusUnauthorized, "user id missing"},
		{"kind", authErrors.ErrWrongTokenType, http.StatusUnauthorized, "wrong token type"},
		{"revoked", authErrors.ErrRevoked, http.StatusUnauthorized, "token revoked"},
		{"unknown", authErrors.ErrUnknownIdentity, http.StatusUnauthorized, "user not found"},
		{"disabled", authErrors.ErrIdentityDisabled, http.StatusForbidden, "inactive"},
		{"internal", authErrors.WrapInternal(errors.New("db down"), "verify"), http.StatusUnauthorized, "authentication failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &verifierStub{err: fmt.Errorf("verify: %w", tc.err)}
			w := call(gatedRouter(v), "Bearer token")

			require.Equal(t, tc.status, w.Code)
			require.Contains(t, w.Body.String(), tc.msg)
			require.NotContains(t, w.Body.String(), "db down")
			if tc.status == http.StatusUnauthorized {
				require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			} else {
				require.Empty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthFailure_UnifiedLoginRejection(t *testing.T) {
	unknown := fmt.Errorf("%w: %w", authErrors.ErrCredentialMismatch, authErrors.ErrUnknownIdentity)

	s1, m1 := AuthFailure(unknown)
	s2, m2 := AuthFailure(authErrors.ErrCredentialMismatch)
	require.Equal(t, http.StatusUnauthorized, s1)
	require.Equal(t, s1, s2)
	require.Equal(t, m1, m2)
}

func TestCurrentUser_Absent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentUser(c)
	require.False(t, ok)
	require.Empty(t, CurrentToken(c))
}
