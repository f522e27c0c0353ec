package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	svc := NewService(nil, "goldtrade", []byte("test-secret"), time.Hour)

	token, err := svc.SignToken("u-1")
	require.NoError(t, err)

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestParseTokenRejections(t *testing.T) {
	t.Parallel()

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		svc := NewService(nil, "goldtrade", []byte("test-secret"), -time.Minute)
		token, err := svc.SignToken("u-1")
		require.NoError(t, err)
		_, err = svc.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		signer := NewService(nil, "goldtrade", []byte("secret-a"), time.Hour)
		verifier := NewService(nil, "goldtrade", []byte("secret-b"), time.Hour)
		token, err := signer.SignToken("u-1")
		require.NoError(t, err)
		_, err = verifier.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		signer := NewService(nil, "someone-else", []byte("test-secret"), time.Hour)
		verifier := NewService(nil, "goldtrade", []byte("test-secret"), time.Hour)
		token, err := signer.SignToken("u-1")
		require.NoError(t, err)
		_, err = verifier.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		svc := NewService(nil, "goldtrade", []byte("test-secret"), time.Hour)
		_, err := svc.ParseToken("not.a.token")
		assert.Error(t, err)
	})
}
