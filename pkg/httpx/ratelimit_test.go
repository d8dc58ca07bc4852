package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
	h := Chain(okHandler(), RateLimitByIP(cfg))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 3; i++ {
		rec := do("10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i)
	}

	rec := do("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// Different client keeps its own bucket.
	rec = do("10.0.0.2:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPKeyExtractorForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "203.0.113.7", IPKeyExtractor(req))
}

func TestIPKeyExtractorRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:5050"

	assert.Equal(t, "192.0.2.4", IPKeyExtractor(req))
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	extract := JSONFieldKeyExtractor("username")

	req := httptest.NewRequest(http.MethodPost, "/v1/login",
		strings.NewReader(`{"username":"alice","password":"secret"}`))
	assert.Equal(t, "alice", extract(req))

	// The body survives extraction for the downstream handler.
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","password":"secret"}`, string(body))

	req = httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(`not json`))
	assert.Equal(t, "", extract(req))

	req = httptest.NewRequest(http.MethodPost, "/v1/login",
		strings.NewReader(`{"username":42}`))
	assert.Equal(t, "", extract(req), "non-string field yields no key")
}

func TestRateLimitByIPAndJSONField(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := Chain(okHandler(), RateLimitByIPAndJSONField(cfg, "username"))

	do := func(username string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/login",
			strings.NewReader(`{"username":"`+username+`","password":"x"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do("alice").Code, "request %d should pass", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, do("alice").Code)

	// Same IP, different username is a separate bucket.
	assert.Equal(t, http.StatusOK, do("bob").Code)
}

func TestCompositeKeyExtractorSkipsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:5050"

	key := CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor)(req)
	assert.Equal(t, "192.0.2.4", key, "unauthenticated request falls back to IP alone")
}

func TestRateLimitMissingKeyAllows(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := Chain(okHandler(), RateLimitMiddleware(cfg, func(*http.Request) string { return "" }))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
