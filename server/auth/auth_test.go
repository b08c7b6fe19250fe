package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateAccessToken("ayako", 42, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "ayako", claims.Name)
	assert.Equal(t, Issuer, claims.Issuer)

	userID, err := UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, int32(42), userID)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("ayako", 1, time.Now().Add(time.Hour), []byte("right"))
	require.NoError(t, err)

	_, err = ParseAccessToken(token, []byte("wrong"))
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := GenerateAccessToken("ayako", 1, time.Now().Add(-time.Hour), []byte("secret"))
	require.NoError(t, err)

	_, err = ParseAccessToken(token, []byte("secret"))
	assert.Error(t, err)
}
