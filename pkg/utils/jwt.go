package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidTokenClaims = errors.New("invalid token claims")

type TokenClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTOptions struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func (o JWTOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessClaims     *TokenClaims
	RefreshClaims    *TokenClaims
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// GenerateToken signs a single HS256 token carrying a fresh jti.
func GenerateToken(opts JWTOptions, userID uuid.UUID, email, tokenType string, ttl time.Duration) (string, *TokenClaims, error) {
	now := opts.now()
	claims := &TokenClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(opts.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims, nil
}

func GenerateTokenPair(opts JWTOptions, userID uuid.UUID, email string) (*TokenPair, error) {
	access, accessClaims, err := GenerateToken(opts, userID, email, TokenTypeAccess, opts.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, refreshClaims, err := GenerateToken(opts, userID, email, TokenTypeRefresh, opts.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessClaims:     accessClaims,
		RefreshClaims:    refreshClaims,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// ValidateToken checks signature, algorithm, issuer and expiry.
func ValidateToken(tokenString string, opts JWTOptions) (*TokenClaims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(opts.now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid || claims.ID == "" || claims.UserID == uuid.Nil {
		return nil, ErrInvalidTokenClaims
	}

	return claims, nil
}
