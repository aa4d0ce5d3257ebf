package service

import (
	"testing"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_AdminTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "s3cret", JWTExpiry: time.Hour}, nil)

	tok, err := svc.GenerateAdminToken(3, []string{PermPublishGroups})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAdmin, claims.TokenType)
	assert.Equal(t, 3, claims.ProfileID)
	assert.Equal(t, []string{PermPublishGroups}, claims.Permissions)
	assert.Equal(t, "3", claims.Subject)
}

func TestAuthService_RejectsForeignSecretAndExpired(t *testing.T) {
	issuer := NewAuthService(&config.Config{JWTSecret: "a", JWTExpiry: time.Hour}, nil)
	verifier := NewAuthService(&config.Config{JWTSecret: "b", JWTExpiry: time.Hour}, nil)

	tok, err := issuer.GenerateAdminToken(1, nil)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(tok)
	assert.Error(t, err)

	expired := NewAuthService(&config.Config{JWTSecret: "a", JWTExpiry: -time.Minute}, nil)
	tok, err = expired.GenerateAdminToken(1, nil)
	require.NoError(t, err)
	_, err = expired.ValidateToken(tok)
	assert.Error(t, err)
}
