package middleware

// identity.go holds helpers that read the authenticated identity that
// JWTAuth stored in the echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
	switch t := c.Get(CtxUserID).(type) {
	case uint64:
		return t, t != 0
	case int:
		return uint64(t), t > 0
	case int64:
		return uint64(t), t > 0
	case float64:
		return uint64(t), t > 0
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, n != 0
		}
	}
	return 0, false
}

// Role returns the authenticated role or "".
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// identityKey is the user component of rate limit keys; "anon" when no
// user is authenticated.
func identityKey(c echo.Context) string {
	if uid, ok := UserID(c); ok {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
