package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenReject(t *testing.T) {
	l := New(Config{Enabled: true, RequestsPerMinute: 1, Burst: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "clients are limited independently")
	assert.Equal(t, 2, l.Clients())
}

func TestDisabledAllowsEverything(t *testing.T) {
	l := New(Config{Enabled: false, RequestsPerMinute: 1, Burst: 1})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.Equal(t, 0, l.Clients())
}

func TestCleanupRemovesIdleClients(t *testing.T) {
	l := New(Config{Enabled: true, RequestsPerMinute: 60, MaxIdle: time.Millisecond})
	defer l.Stop()

	l.Allow("10.0.0.1")
	time.Sleep(5 * time.Millisecond)
	l.cleanup()
	assert.Equal(t, 0, l.Clients())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := New(Config{Enabled: true, RequestsPerMinute: 1, Burst: 1})
	defer l.Stop()

	router := gin.New()
	router.Use(l.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
