package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "ADMIN", 5)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), tok.Exp, 5*time.Second)

	uid, role, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "ADMIN", role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("secret", 1, "USER", 5)
	require.NoError(t, err)
	expired, err := NewAccessToken("secret", 1, "USER", -1)
	require.NoError(t, err)

	tests := map[string]string{
		"wrong key": "other",
		"garbage":   "secret",
		"expired":   "secret",
	}
	raw := map[string]string{
		"wrong key": tok.Token,
		"garbage":   "not-a-jwt",
		"expired":   expired.Token,
	}
	for name, secret := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseAccessToken(secret, raw[name])
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshTokenHash(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))

	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
	assert.True(t, NeedsRehash("not a hash", bcrypt.MinCost))

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestQRCodePNG(t *testing.T) {
	payload := TicketQRPayload(1, 2, 3, 4, 5, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, "PLANETARIUM|R1|T2|S3|ROW4|SEAT5|2024-05-01T18:00:00Z", payload)

	png, err := QRCodePNG(payload, 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}
