package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_RedactsCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "session=secret-cookie")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var sawCompleted bool
	for _, e := range logs.All() {
		for _, f := range e.Context {
			if f.Key == "hdr" {
				hdr := string(f.Interface.([]byte))
				require.False(t, strings.Contains(hdr, "secret"), "credentials leaked: %s", hdr)
				require.Contains(t, hdr, "[redacted]")
			}
		}
		if e.Message == "completed" {
			sawCompleted = true
			require.Equal(t, int64(http.StatusNoContent), e.ContextMap()["status"])
		}
	}
	require.True(t, sawCompleted)
}

func TestRequestLogger_Aborted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/", func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, 1, logs.FilterMessage("aborted").Len())
}
