package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(perMinute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	r := limitedRouter(60)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitRejectsBurstOverBudget(t *testing.T) {
	r := limitedRouter(3)

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimitTracksClientsSeparately(t *testing.T) {
	r := limitedRouter(1)

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest(http.MethodGet, "/ping", nil)
	reqA.Header.Set("X-Forwarded-For", "10.0.0.1")
	r.ServeHTTP(first, reqA)
	assert.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	reqA2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	reqA2.Header.Set("X-Forwarded-For", "10.0.0.1")
	r.ServeHTTP(blocked, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	other := httptest.NewRecorder()
	reqB := httptest.NewRequest(http.MethodGet, "/ping", nil)
	reqB.Header.Set("X-Forwarded-For", "10.0.0.2")
	r.ServeHTTP(other, reqB)
	assert.Equal(t, http.StatusOK, other.Code)
}
