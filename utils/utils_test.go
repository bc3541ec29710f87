package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "simple", raw: "a, b, c", want: []string{"a", "b", "c"}},
		{name: "extra whitespace", raw: "  a ,b   ,   c  ", want: []string{"a", "b", "c"}},
		{name: "trailing commas", raw: "a, b, c,,", want: []string{"a", "b", "c"}},
		{name: "empty", raw: "", want: []string{}},
		{name: "only separators", raw: " , ,", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.raw))
		})
	}
}

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	expired := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	live := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	noExp := signed(t, jwt.RegisteredClaims{Subject: "user-1"})

	assert.True(t, TokenExpired(expired, now))
	assert.False(t, TokenExpired(live, now))
	assert.False(t, TokenExpired(noExp, now))
	assert.False(t, TokenExpired("opaque-token", now))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 418, "teapot")

	assert.Equal(t, 418, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"teapot"}`, rec.Body.String())
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Iced Latte", "latte"))
	assert.False(t, ContainsFold("Espresso", "latte"))
	assert.True(t, ContainsFold("anything", ""))
}
