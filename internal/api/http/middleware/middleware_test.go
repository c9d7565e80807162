package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pap-cedram/pap-backend/internal/logging"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(RequestID(zap.New(core)))
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		logging.FromContext(c.Request.Context()).Info("inside")
		c.Status(http.StatusNoContent)
	})

	t.Run("generates an id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		rid := rr.Header().Get(HeaderRequestID)
		_, err := uuid.Parse(rid)
		require.NoError(t, err)
		assert.Equal(t, rid, seen)
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get(HeaderRequestID))
		assert.Equal(t, "abc-123", seen)
	})

	entries := logs.FilterField(zap.String("request_id", "abc-123")).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "request", entries[1].Message)
	assert.EqualValues(t, http.StatusNoContent, entries[1].ContextMap()["status"])
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 2)
	limiter.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	// Buckets are per client.
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))

	now = now.Add(idleAfter + time.Second)
	send("10.0.0.3")
	assert.Len(t, limiter.clients, 1)
}

func TestRateLimiter_SweepsOncePerIdleWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	at := func(d time.Duration, ip string) {
		now = start.Add(d)
		limiter.allow(ip)
	}

	at(0, "a")
	at(5*time.Minute, "b")

	at(idleAfter+time.Second, "c")
	assert.NotContains(t, limiter.clients, "a")
	assert.Len(t, limiter.clients, 2)

	// b is idle now, but the last sweep was less than idleAfter ago.
	at(idleAfter+5*time.Minute+2*time.Second, "d")
	assert.Contains(t, limiter.clients, "b")
	assert.Len(t, limiter.clients, 3)

	at(2*idleAfter+2*time.Second, "e")
	assert.Len(t, limiter.clients, 2)
	assert.Contains(t, limiter.clients, "d")
	assert.Contains(t, limiter.clients, "e")
}
