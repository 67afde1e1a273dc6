package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront"}

func TestMintAndParseRoundTrip(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), time.Hour, IdentityPayload{
		UserID:      "user-1",
		DisplayName: "Ada",
		Email:       "ada@example.com",
		AvatarURL:   "https://cdn.example.com/ada.png",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testJWT, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "Ada", claims.DisplayName)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "https://cdn.example.com/ada.png", claims.AvatarURL)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), time.Hour, IdentityPayload{UserID: "user-1"})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWT, token)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecretAndIssuer(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), time.Hour, IdentityPayload{UserID: "user-1"})
	require.NoError(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: "storefront"}, token)
	assert.Error(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "elsewhere"}, token)
	assert.Error(t, err)
}

func TestMintValidatesInputs(t *testing.T) {
	_, err := MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), time.Hour, IdentityPayload{UserID: "u"})
	assert.Error(t, err)
	_, err = MintAccessToken(testJWT, time.Now(), 0, IdentityPayload{UserID: "u"})
	assert.Error(t, err)
	_, err = MintAccessToken(testJWT, time.Now(), time.Hour, IdentityPayload{})
	assert.Error(t, err)
}
