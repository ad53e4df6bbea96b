package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"recipe-matcher/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))
}

func TestRateLimit_Middleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(1, 30*time.Second))
	router.GET("/", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), common.ErrCodeTooManyRequests)
}

func TestDeduplicator_RejectsRepeatedBody(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	defer d.Stop()

	var bodies []string
	router := gin.New()
	router.POST("/feedback", d.Handler(), func(c *gin.Context) {
		data, _ := c.GetRawData()
		bodies = append(bodies, string(data))
		c.Status(http.StatusAccepted)
	})

	send := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(body)))
		return w
	}

	assert.Equal(t, http.StatusAccepted, send(`{"a":1}`).Code)

	w := send(`{"a":1}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeTooManyRequests)
	assert.Contains(t, w.Body.String(), "duplicate request")

	assert.Equal(t, http.StatusAccepted, send(`{"a":2}`).Code)

	// 處理器仍能讀到完整的請求體
	assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, bodies)
}

func TestDeduplicator_WindowExpires(t *testing.T) {
	d := NewDeduplicator(time.Second)
	defer d.Stop()

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	assert.False(t, d.seen("k"))
	assert.True(t, d.seen("k"))

	now = now.Add(2 * time.Second)
	assert.False(t, d.seen("k"))

	now = now.Add(time.Hour)
	d.cleanup()
	d.mu.Lock()
	assert.Empty(t, d.requests)
	d.mu.Unlock()
}

func TestDeduplicator_IgnoresGet(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	defer d.Stop()

	router := gin.New()
	router.Use(d.Handler())
	router.GET("/", okHandler)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimit(8))
	router.POST("/", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Request body too large")
}

func TestLogger_PropagatesRequestID(t *testing.T) {
	var fromCtx string
	router := gin.New()
	router.Use(requestid.New(), Logger())
	router.GET("/", func(c *gin.Context) {
		fromCtx = common.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", fromCtx)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeInternalError)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
