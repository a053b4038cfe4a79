package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	require.NoError(t, err)

	token, err := s.GenerateToken("op-1", "Ops", []string{PrivStockMove})
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, "Ops", claims.Name)
	assert.True(t, claims.HasPrivilege(PrivStockMove))
	assert.False(t, claims.HasPrivilege(PrivProductDelete))
}

func TestValidateRejectsBadTokens(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewSigner("other", time.Hour)
	require.NoError(t, err)

	foreign, err := other.GenerateToken("op", "Ops", nil)
	require.NoError(t, err)
	_, err = s.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	s, err := NewSigner("secret", time.Minute)
	require.NoError(t, err)
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }
	token, err := s.GenerateToken("op", "Ops", nil)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}
