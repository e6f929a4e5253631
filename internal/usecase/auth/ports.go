package auth

import (
	"account-service/internal/domain/token"

	"github.com/google/uuid"
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer signs and verifies bearer tokens. Revocation is tracked by
// token.SessionRepository.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (*token.Pair, *token.Claims, error)
	IssueAccess(userID uuid.UUID, email string) (string, *token.Claims, error)
	Verify(raw string, kind token.Kind) (*token.Claims, error)
}
