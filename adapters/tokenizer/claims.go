package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the identity's wallet and role.
// The subject is the identity ID.
type SessionClaims struct {
	jwt.RegisteredClaims
	Address string `json:"addr"`
	Role    string `json:"role"`
}
