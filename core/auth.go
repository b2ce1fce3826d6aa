package core

import "time"

// DefaultChallengeTTL is how long an issued challenge stays consumable
const DefaultChallengeTTL = 5 * time.Minute

// NonceRecord represents an outstanding authentication challenge
type NonceRecord struct {
	Address   string    // Normalized wallet address the challenge was issued to
	Nonce     string    // Hex-encoded random nonce to be signed
	CreatedAt time.Time // When the challenge was created, second precision
	ExpiresAt time.Time // CreatedAt plus the challenge TTL
	Used      bool      // Set exactly once, on successful consumption
}

// ValidAt reports whether the record can still be consumed at now
func (r NonceRecord) ValidAt(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}

// Role is the authorization state assigned to an identity
type Role string

const (
	// RoleUser is the baseline role every new identity receives
	RoleUser Role = "user"

	// RoleAdmin is an elevated role; it is never assigned by the auth flow
	RoleAdmin Role = "admin"
)

// DefaultRole is assigned to identities created on first login
const DefaultRole = RoleUser

// Identity represents an authenticated principal keyed by wallet address
type Identity struct {
	ID            string    // Opaque stable identifier
	WalletAddress string    // Normalized primary wallet address, unique
	CreatedAt     time.Time // When the identity was provisioned
	Role          Role      // Default authorization role
}

// SessionGrant is the material handed to a client after a successful login
type SessionGrant struct {
	ID         string    // Unique grant identifier
	IdentityID string    // Identity the grant was issued for
	Address    string    // Wallet address of the identity
	Role       Role      // Role at the time of issuance
	IssuedAt   time.Time // When the grant was issued
	ExpiresAt  time.Time // When the grant stops being accepted
	Token      string    // Encoded form handed to the client
}
