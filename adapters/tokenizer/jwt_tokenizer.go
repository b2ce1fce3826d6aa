package tokenizer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const AudienceSession = "session:access"

// DefaultSessionTTL is the lifetime of a session grant
const DefaultSessionTTL = time.Hour

// Config holds the session token settings
type Config struct {
	Issuer string
	TTL    time.Duration
}

// JWTTokenizer implements the SessionIssuer interface with ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	issuer  string
	ttl     time.Duration
	clock   ports.Clock
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, cfg Config, clock ports.Clock) *JWTTokenizer {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &JWTTokenizer{
		signKey: signKey,
		issuer:  cfg.Issuer,
		ttl:     ttl,
		clock:   clock,
	}
}

// IssueSession signs a session grant for a resolved identity
func (j *JWTTokenizer) IssueSession(ctx context.Context, identity core.Identity) (core.SessionGrant, error) {
	now := j.clock.Now().UTC().Truncate(time.Second)
	grant := core.SessionGrant{
		ID:         uuid.New().String(),
		IdentityID: identity.ID,
		Address:    identity.WalletAddress,
		Role:       identity.Role,
		IssuedAt:   now,
		ExpiresAt:  now.Add(j.ttl),
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   grant.IdentityID,
			ID:        grant.ID,
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(grant.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
		Address: grant.Address,
		Role:    string(grant.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return core.SessionGrant{}, fmt.Errorf("failed to sign session token: %w: %w", core.ErrTokenIssuance, err)
	}
	grant.Token = signedToken

	return grant, nil
}

// ParseSession validates a session token and returns the grant it encodes
func (j *JWTTokenizer) ParseSession(ctx context.Context, tokenStr string) (core.SessionGrant, error) {
	opts := []jwt.ParserOption{
		jwt.WithAudience(AudienceSession),
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithTimeFunc(j.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, opts...)
	if err != nil {
		return core.SessionGrant{}, fmt.Errorf("failed to parse session token: %w: %w", core.ErrInvalidSession, err)
	}

	// Validate token
	if !token.Valid {
		return core.SessionGrant{}, core.ErrInvalidSession
	}

	// Extract claims
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return core.SessionGrant{}, core.ErrInvalidSession
	}

	grant := core.SessionGrant{
		ID:         claims.ID,
		IdentityID: claims.Subject,
		Address:    claims.Address,
		Role:       core.Role(claims.Role),
		ExpiresAt:  claims.ExpiresAt.Time.UTC(),
		Token:      tokenStr,
	}
	if claims.IssuedAt != nil {
		grant.IssuedAt = claims.IssuedAt.Time.UTC()
	}

	return grant, nil
}

// GenerateSigningKey creates an ephemeral P-256 key for ES256 session tokens
func GenerateSigningKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// LoadSigningKey reads a PEM-encoded EC private key
func LoadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return key, nil
}

var _ ports.SessionIssuer = (*JWTTokenizer)(nil)
