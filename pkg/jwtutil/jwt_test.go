package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	g := NewGenerator([]byte("secret"), "paylink", time.Hour)
	token, jti, err := g.Generate("buyer-1", "test@example.com", "", "investor")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := NewVerifier([]byte("secret"), "paylink").ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", claims.Subject)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "investor", claims.Role)
	assert.Equal(t, jti, claims.ID)
}

func TestVerify_Rejects(t *testing.T) {
	g := NewGenerator([]byte("secret"), "paylink", time.Hour)
	token, _, err := g.Generate("buyer-1", "", "CUST-1", "investor")
	require.NoError(t, err)

	_, err = NewVerifier([]byte("other"), "paylink").ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewVerifier([]byte("secret"), "someone-else").ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewVerifier([]byte("secret"), "paylink").ParseAndValidate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	g := NewGenerator([]byte("secret"), "paylink", time.Minute)
	g.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := g.Generate("buyer-1", "a@b.co", "", "investor")
	require.NoError(t, err)

	_, err = NewVerifier([]byte("secret"), "paylink").ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, _, err := NewGenerator(nil, "paylink", time.Hour).Generate("x", "", "", "")
	assert.Error(t, err)
}
