package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/config"
)

func newCacheFixture(t *testing.T) (echo.MiddlewareFunc, *miniredis.Miniredis, *echo.Echo) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
	return NewRedisCache(cfg, rdb), mr, echo.New()
}

func cacheGet(e *echo.Echo, h echo.HandlerFunc, userID uint64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/accounts")
	if userID != 0 {
		c.Set(identityKey, &auth.Claims{UserID: userID, Username: "u", GlobalRole: auth.RoleUser})
	}
	_ = h(c)
	return rec
}

func TestCacheBypassesUnauthenticatedRequests(t *testing.T) {
	mw, mr, e := newCacheFixture(t)

	calls := 0
	h := mw(func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "private data")
	})

	// Warm the cache as an authenticated caller.
	rec := cacheGet(e, h, 7)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
	stored := len(mr.Keys())
	assert.Equal(t, 1, stored)

	// A caller without a verified identity never touches the cache:
	// the handler chain runs again, nothing is replayed, and nothing
	// new is stored.
	rec = cacheGet(e, h, 0)
	assert.Equal(t, 2, calls)
	assert.NotEqual(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Len(t, mr.Keys(), stored)
}

func TestCacheScopesEntriesPerUser(t *testing.T) {
	mw, _, e := newCacheFixture(t)

	h := mw(func(c echo.Context) error {
		claims := Identity(c)
		return c.String(http.StatusOK, fmt.Sprintf("accounts for user %d", claims.UserID))
	})

	rec := cacheGet(e, h, 1)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "accounts for user 1", rec.Body.String())

	rec = cacheGet(e, h, 1)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "accounts for user 1", rec.Body.String())

	// A different user must not receive user 1's cached response.
	rec = cacheGet(e, h, 2)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "accounts for user 2", rec.Body.String())
}

func TestCacheNeverReplaysSessionHeaders(t *testing.T) {
	mw, _, e := newCacheFixture(t)

	h := mw(func(c echo.Context) error {
		c.Response().Header().Set(RenewedTokenHeader, "freshly-minted-token")
		return c.String(http.StatusOK, "body")
	})

	rec := cacheGet(e, h, 9)
	assert.Equal(t, "freshly-minted-token", rec.Header().Get(RenewedTokenHeader))

	rec = cacheGet(e, h, 9)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get(RenewedTokenHeader))
}

func TestCacheStoresOnlySuccessfulResponses(t *testing.T) {
	mw, mr, e := newCacheFixture(t)

	h := mw(func(c echo.Context) error {
		return c.String(http.StatusForbidden, "no permission on this account")
	})

	rec := cacheGet(e, h, 3)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, mr.Keys())
}
