package auth

import "github.com/golang-jwt/jwt/v5"

// IdentityPayload captures the profile carried in an access token.
type IdentityPayload struct {
	UserID      string
	DisplayName string
	Email       string
	AvatarURL   string
}

// AccessTokenClaims represents the typed JWT presented by storefront clients.
type AccessTokenClaims struct {
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *AccessTokenClaims) UserID() string {
	return c.Subject
}
