package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenIsUnique(t *testing.T) {
	issuer := NewTokenIssuer("test_secret", time.Hour)

	first, err := issuer.GenerateToken(1, "patient")
	require.NoError(t, err)
	second, err := issuer.GenerateToken(1, "patient")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := issuer.ValidateToken(first)
	require.NoError(t, err)
	assert.Equal(t, float64(1), claims["user_id"])
	assert.Equal(t, "patient", claims["role"])
	assert.NotEmpty(t, claims["jti"])
	assert.NotNil(t, claims["iat"])
	assert.InDelta(t, time.Hour.Seconds(), issuer.TokenExpiry(claims).Seconds(), 5)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Hour).GenerateToken(1, "doctor")
	require.NoError(t, err)
	_, err = NewTokenIssuer("two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}
