package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMintAndVerify(t *testing.T) {
	secret := "test-secret-0123456789"
	raw, err := Mint(secret, "agent:nutritionist", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	tok, err := NewVerifier(secret).Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "agent:nutritionist", tok.Subject())

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "agent:nutritionist", claims["sub"])
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	secret := "test-secret-0123456789"
	v := NewVerifier(secret)

	_, err := v.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// wrong secret
	raw, err := Mint("other-secret-987654321", "agent", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	// expired
	raw, err = Mint(secret, "agent", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintRequiresSecret(t *testing.T) {
	_, err := Mint("", "agent", time.Minute)
	require.Error(t, err)
}
