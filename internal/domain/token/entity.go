package token

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// DefaultResetTokenTTL is how long a password reset token stays usable.
const DefaultResetTokenTTL = 24 * time.Hour

type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims is the verified content of a signed token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Kind      Kind
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// OutstandingToken records every refresh token that has been issued.
type OutstandingToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	JTI       string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// BlacklistedToken marks an outstanding refresh token as revoked.
type BlacklistedToken struct {
	ID            uuid.UUID
	TokenID       uuid.UUID
	BlacklistedAt time.Time
}

// PasswordResetToken is an opaque single-use token bound to one user.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

// ExpiresAt is the instant after which the token can no longer be consumed.
func (t *PasswordResetToken) ExpiresAt(ttl time.Duration) time.Time {
	return t.CreatedAt.Add(ttl)
}

// IsExpired reports whether the token has outlived ttl at now.
func (t *PasswordResetToken) IsExpired(now time.Time, ttl time.Duration) bool {
	return !now.Before(t.ExpiresAt(ttl))
}

// IsValid reports whether the token is unused and not yet expired.
func (t *PasswordResetToken) IsValid(now time.Time, ttl time.Duration) bool {
	return !t.Used && !t.IsExpired(now, ttl)
}
