package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidate(t *testing.T) {
	t.Run("normalizes email and display name", func(t *testing.T) {
		req := registerRequest{
			Email:       "  Ada@Example.COM ",
			Password:    "correct-horse",
			DisplayName: " Ada ",
		}
		require.Empty(t, req.validate())
		assert.Equal(t, "ada@example.com", req.Email)
		assert.Equal(t, "Ada", req.DisplayName)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := map[string]registerRequest{
			"not an email":   {Email: "nope", Password: "correct-horse", DisplayName: "Ada"},
			"short password": {Email: "ada@example.com", Password: "short", DisplayName: "Ada"},
			"blank name":     {Email: "ada@example.com", Password: "correct-horse", DisplayName: "  "},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				assert.NotEmpty(t, req.validate())
			})
		}
	})
}

func TestLoginRequestValidate(t *testing.T) {
	req := loginRequest{Email: " Ada@Example.com ", Password: "pw"}
	require.Empty(t, req.validate())
	assert.Equal(t, "ada@example.com", req.Email, "login matches the stored lowercase email")

	empty := loginRequest{}
	assert.NotEmpty(t, empty.validate())
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/boards", nil)
	_, ok := bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Basic abc123")
	_, ok = bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Bearer token-value")
	token, ok := bearerToken(r)
	require.True(t, ok)
	assert.Equal(t, "token-value", token)

	// Scheme matching is case-insensitive per RFC 7235.
	r.Header.Set("Authorization", "bearer token-value")
	token, ok = bearerToken(r)
	require.True(t, ok)
	assert.Equal(t, "token-value", token)
}
