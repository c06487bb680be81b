package auth

import "time"

// AuthMethod indicates how authentication was performed.
type AuthMethod string

// AuthMethodBearer marks identities proven by a bearer token.
const AuthMethodBearer AuthMethod = "bearer"

// Identity represents an authenticated subject.
type Identity struct {
	// Subject is the unique identifier carried in the token.
	Subject string

	// Roles are the roles the policy assigns to Subject at authentication
	// time. Authorization re-reads the live policy, so these are
	// informational.
	Roles []string

	// TokenID is the token's jti.
	TokenID string

	// Method indicates how authentication was performed.
	Method AuthMethod

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time
}
