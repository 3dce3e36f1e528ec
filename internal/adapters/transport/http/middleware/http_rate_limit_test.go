package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limit, burst, size int, ttl time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewHTTPRateLimitPerIP(limit, burst, size, ttl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r http.Handler, addr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHTTPRateLimitPerIP_Basic(t *testing.T) {
	r := newLimitedRouter(1, 1, 100, time.Hour)

	if code := hit(r, "1.2.3.4:12345"); code != http.StatusOK {
		t.Fatalf("want 200, got %d", code)
	}
	if code := hit(r, "1.2.3.4:12345"); code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", code)
	}
}

func TestHTTPRateLimitPerIP_DifferentHosts(t *testing.T) {
	r := newLimitedRouter(1, 1, 100, time.Hour)

	if code := hit(r, "10.0.0.1:1111"); code != http.StatusOK {
		t.Fatalf("host A first request must pass, got %d", code)
	}
	if code := hit(r, "10.0.0.2:2222"); code != http.StatusOK {
		t.Fatalf("host B first request must pass independently, got %d", code)
	}
}

func TestHTTPRateLimitPerIP_SamePortsIgnored(t *testing.T) {
	r := newLimitedRouter(1, 1, 100, time.Hour)

	if code := hit(r, "10.0.0.3:1000"); code != http.StatusOK {
		t.Fatalf("want 200, got %d", code)
	}
	if code := hit(r, "10.0.0.3:2000"); code != http.StatusTooManyRequests {
		t.Fatalf("limit is per host, want 429 got %d", code)
	}
}

func TestHTTPRateLimitPerIP_TTL_Evicts(t *testing.T) {
	ttl := 10 * time.Millisecond
	r := newLimitedRouter(1, 1, 10, ttl)

	if code := hit(r, "127.0.0.1:5555"); code != http.StatusOK {
		t.Fatalf("first req want 200 got %d", code)
	}
	if code := hit(r, "127.0.0.1:5555"); code != http.StatusTooManyRequests {
		t.Fatalf("second immediate req want 429 got %d", code)
	}
	time.Sleep(ttl + 5*time.Millisecond)
	if code := hit(r, "127.0.0.1:5555"); code != http.StatusOK {
		t.Fatalf("after TTL want 200 got %d", code)
	}
}
