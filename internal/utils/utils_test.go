package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "admin", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	id, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Role: "admin"}, id)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"expired":        sign(jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no exp":         sign(jwt.MapClaims{"sub": "1"}),
		"numeric sub":    sign(jwt.MapClaims{"sub": 1, "exp": exp}),
		"non-number sub": sign(jwt.MapClaims{"sub": "abc", "exp": exp}),
		"garbage":        "not.a.jwt",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken("k", raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("pa55word", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "pa55word"))
	assert.False(t, VerifyPassword(h, "wrong"))
}

func TestPasswordEdgeCases(t *testing.T) {
	assert.False(t, VerifyPassword("", ""))
	assert.False(t, VerifyPassword("", "anything"))

	h, err := HashPassword("pa55word", 0)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "pa55word"))
}
