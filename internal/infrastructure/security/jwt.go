package security

import (
	"fmt"
	"time"

	"account-service/internal/config"
	"account-service/internal/domain/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
)

// JWTIssuer signs and verifies HS256 access and refresh tokens.
type JWTIssuer struct {
	opts utils.JWTOptions
}

func NewJWTIssuer(cfg config.JWTConfig) *JWTIssuer {
	return &JWTIssuer{opts: utils.JWTOptions{
		Secret:     []byte(cfg.Secret),
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *JWTIssuer) WithClock(now func() time.Time) *JWTIssuer {
	opts := i.opts
	opts.Now = now
	return &JWTIssuer{opts: opts}
}

// Issue returns a fresh pair together with the refresh token's claims.
func (i *JWTIssuer) Issue(userID uuid.UUID, email string) (*token.Pair, *token.Claims, error) {
	pair, err := utils.GenerateTokenPair(i.opts, userID, email)
	if err != nil {
		return nil, nil, err
	}

	return &token.Pair{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, toClaims(pair.RefreshClaims), nil
}

// IssueAccess signs a standalone access token.
func (i *JWTIssuer) IssueAccess(userID uuid.UUID, email string) (string, *token.Claims, error) {
	raw, claims, err := utils.GenerateToken(i.opts, userID, email, utils.TokenTypeAccess, i.opts.AccessTTL)
	if err != nil {
		return "", nil, err
	}
	return raw, toClaims(claims), nil
}

// Verify checks the signature, expiry and kind of raw.
func (i *JWTIssuer) Verify(raw string, kind token.Kind) (*token.Claims, error) {
	claims, err := utils.ValidateToken(raw, i.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", token.ErrTokenInvalid, err)
	}
	if token.Kind(claims.TokenType) != kind {
		return nil, token.ErrTokenWrongType
	}
	return toClaims(claims), nil
}

func toClaims(c *utils.TokenClaims) *token.Claims {
	out := &token.Claims{
		UserID: c.UserID,
		Email:  c.Email,
		Kind:   token.Kind(c.TokenType),
		JTI:    c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
