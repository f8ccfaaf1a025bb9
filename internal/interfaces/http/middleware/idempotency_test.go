package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redispkg "eqic-a2a.backend/pkg/redis"
)

func useMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })
	return srv
}

func newIdempotencyRouter(handled *int32, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(WalletAddressKey, "0xWallet")
		c.Next()
	})
	r.Use(IdempotencyMiddleware())
	r.POST("/transfers", func(c *gin.Context) {
		atomic.AddInt32(handled, 1)
		c.JSON(status, gin.H{"id": "transfer-1"})
	})
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transfers", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderPassthrough(t *testing.T) {
	useMiniRedis(t)
	var handled int32
	r := newIdempotencyRouter(&handled, http.StatusCreated)

	postWithKey(r, "")
	postWithKey(r, "")
	require.Equal(t, int32(2), handled, "requests without a key are never deduplicated")
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	useMiniRedis(t)
	var handled int32
	r := newIdempotencyRouter(&handled, http.StatusCreated)

	first := postWithKey(r, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	require.Empty(t, first.Header().Get("X-Idempotency-Hit"))

	second := postWithKey(r, "key-1")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, int32(1), handled, "handler runs once per key")
}

func TestIdempotency_KeyIsScopedToWallet(t *testing.T) {
	useMiniRedis(t)
	gin.SetMode(gin.TestMode)

	var handled int32
	newRouter := func(wallet string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(WalletAddressKey, wallet)
			c.Next()
		})
		r.Use(IdempotencyMiddleware())
		r.POST("/transfers", func(c *gin.Context) {
			atomic.AddInt32(&handled, 1)
			c.JSON(http.StatusCreated, gin.H{"wallet": wallet})
		})
		return r
	}

	postWithKey(newRouter("0xAlpha"), "shared-key")
	postWithKey(newRouter("0xBeta"), "shared-key")
	require.Equal(t, int32(2), handled, "same key from different wallets must not collide")
}

func TestIdempotency_ProcessingMarkerConflicts(t *testing.T) {
	srv := useMiniRedis(t)
	var handled int32
	r := newIdempotencyRouter(&handled, http.StatusCreated)

	require.NoError(t, srv.Set("idempotency:0xWallet:key-1", "processing"))

	w := postWithKey(r, "key-1")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "ERR_IDEMPOTENCY_CONFLICT")
	require.Zero(t, handled)
}

func TestIdempotency_FailureClearsLock(t *testing.T) {
	srv := useMiniRedis(t)
	var handled int32
	r := newIdempotencyRouter(&handled, http.StatusBadRequest)

	w := postWithKey(r, "key-1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, srv.Exists("idempotency:0xWallet:key-1"), "failed responses are not cached")

	// The retry reaches the handler again
	postWithKey(r, "key-1")
	require.Equal(t, int32(2), handled)
}

func TestIdempotency_RedisDownFailsOpen(t *testing.T) {
	cli := redisv9.NewClient(&redisv9.Options{Addr: "127.0.0.1:1"})
	redispkg.SetClient(cli)
	t.Cleanup(func() { _ = cli.Close() })

	var handled int32
	r := newIdempotencyRouter(&handled, http.StatusCreated)

	w := postWithKey(r, "key-1")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, int32(1), handled)
}
