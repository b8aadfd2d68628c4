package core

import "github.com/golang-jwt/jwt/v4"

// IdentityClaims 身分提供者簽發的 token，sub 即 externalId
type IdentityClaims struct {
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}
