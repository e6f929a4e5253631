package token

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository persists the outstanding and blacklisted refresh token sets.
type SessionRepository interface {
	CreateOutstanding(ctx context.Context, token *OutstandingToken) error
	GetOutstanding(ctx context.Context, jti string) (*OutstandingToken, error)
	// ListActive returns the user's refresh tokens that are neither expired
	// nor blacklisted at now, newest first.
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]*OutstandingToken, error)
	// Blacklist records token as outstanding if needed and blacklists it.
	// Blacklisting an already blacklisted token is a no-op.
	Blacklist(ctx context.Context, token *OutstandingToken) error
	// BlacklistAllForUser blacklists every outstanding token of userID that
	// is not blacklisted yet and returns how many rows were added.
	BlacklistAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ResetTokenRepository persists password reset tokens.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	// GetUnused returns the token only when it has not been consumed.
	GetUnused(ctx context.Context, token string) (*PasswordResetToken, error)
	// Consume marks the token used and stores the new password hash for its
	// owner in one transaction. It fails with ErrInvalidResetToken when the
	// token was consumed concurrently or was not created after createdAfter.
	Consume(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string, createdAfter time.Time) error
	DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error)
}
