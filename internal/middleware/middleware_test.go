package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/utils"
)

const secret = "test-secret"

func newEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/api", JWTAuth(secret), AdminOrReadOnly())
	handler := func(c echo.Context) error {
		uid, _ := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"user_id": uid, "role": Role(c)})
	}
	g.GET("/thing", handler)
	g.POST("/thing", handler)
	return e
}

func bearer(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestAuthAndRoles(t *testing.T) {
	e := newEcho()
	tests := []struct {
		name   string
		method string
		auth   string
		want   int
	}{
		{"no token", http.MethodGet, "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "Bearer nope", http.StatusUnauthorized},
		{"user read", http.MethodGet, bearer(t, 1, model.RoleUser), http.StatusOK},
		{"user write", http.MethodPost, bearer(t, 1, model.RoleUser), http.StatusForbidden},
		{"admin write", http.MethodPost, bearer(t, 2, model.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/thing", nil)
			if tt.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUserIDConversions(t *testing.T) {
	e := echo.New()
	for _, v := range []any{uint64(7), 7, int64(7), float64(7), "7"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(CtxUserID, v)
		uid, ok := UserID(c)
		assert.True(t, ok)
		assert.Equal(t, uint64(7), uid)
		assert.Equal(t, "7", identityKey(c))
	}
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := UserID(c)
	assert.False(t, ok)
	assert.Equal(t, "anon", identityKey(c))
}

func TestDisabledCacheAndLimiterPassThrough(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	e := echo.New()
	e.Use(rc.Middleware(), rc.Invalidate(), NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{1, 2})
	assert.False(t, ok)
}

func TestCacheKeyIncludesGeneration(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "p", KeyStrategy: "route_query"}, nil)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/planetarium/show_themes?x=1", nil), httptest.NewRecorder())
	c.SetPath("/api/planetarium/show_themes")

	k0 := rc.cacheKey(c, 0)
	k1 := rc.cacheKey(c, 1)
	assert.NotEqual(t, k0, k1)
	assert.Contains(t, k0, "p:0:")
	assert.Contains(t, k1, "p:1:")
}
