package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", mw, func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return r
}

func doRequests(t *testing.T, url string, n int) []int {
	t.Helper()
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		res, err := http.Get(url)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		codes = append(codes, res.StatusCode)
	}
	return codes
}

func TestSimpleRateLimitBlocksOverLimit(t *testing.T) {
	r := newTestRouter(SimpleRateLimit(2, time.Minute))
	srv := httptest.NewServer(r)
	defer srv.Close()

	codes := doRequests(t, srv.URL+"/test", 3)
	if codes[0] != 200 || codes[1] != 200 {
		t.Fatalf("allowed requests got %v", codes[:2])
	}
	if codes[2] != 429 {
		t.Fatalf("expected 429 got %d", codes[2])
	}
}

func TestSimpleRateLimitResetsAfterWindow(t *testing.T) {
	r := newTestRouter(SimpleRateLimit(1, 50*time.Millisecond))
	srv := httptest.NewServer(r)
	defer srv.Close()

	codes := doRequests(t, srv.URL+"/test", 2)
	if codes[1] != 429 {
		t.Fatalf("expected 429 got %d", codes[1])
	}

	time.Sleep(80 * time.Millisecond)
	codes = doRequests(t, srv.URL+"/test", 1)
	if codes[0] != 200 {
		t.Fatalf("expected 200 after window reset, got %d", codes[0])
	}
}

// Without a configured Redis client the limiter must still throttle via the
// in-process window rather than letting everything through.
func TestRedisRateLimitFallsBackWithoutRedis(t *testing.T) {
	prev := redisClient
	redisClient = nil
	defer func() { redisClient = prev }()

	r := newTestRouter(RedisRateLimit(2, time.Minute))
	srv := httptest.NewServer(r)
	defer srv.Close()

	codes := doRequests(t, srv.URL+"/test", 3)
	if codes[2] != 429 {
		t.Fatalf("expected 429 from fallback limiter, got %d", codes[2])
	}
}
