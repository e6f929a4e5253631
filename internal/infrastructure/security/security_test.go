package security

import (
	"testing"
	"time"

	"account-service/internal/config"
	"account-service/internal/domain/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testIssuer() *JWTIssuer {
	return NewJWTIssuer(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "account-service",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secur3!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Secur3!pass", hash)
	assert.True(t, h.Verify(hash, "Secur3!pass"))
	assert.False(t, h.Verify(hash, "wrong"))
}

func TestJWTIssuer_IssueAndVerify(t *testing.T) {
	issuer := testIssuer()
	userID := uuid.New()

	pair, refresh, err := issuer.Issue(userID, "a@x.io")
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, token.KindRefresh, refresh.Kind)
	assert.NotEmpty(t, refresh.JTI)

	access, err := issuer.Verify(pair.AccessToken, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, access.UserID)
	assert.NotEqual(t, refresh.JTI, access.JTI)

	got, err := issuer.Verify(pair.RefreshToken, token.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, refresh.JTI, got.JTI)
	assert.WithinDuration(t, pair.RefreshExpiresAt, got.ExpiresAt, time.Second)
}

func TestJWTIssuer_WrongKind(t *testing.T) {
	issuer := testIssuer()
	pair, _, err := issuer.Issue(uuid.New(), "a@x.io")
	require.NoError(t, err)

	_, err = issuer.Verify(pair.AccessToken, token.KindRefresh)
	assert.ErrorIs(t, err, token.ErrTokenWrongType)

	_, err = issuer.Verify(pair.RefreshToken, token.KindAccess)
	assert.ErrorIs(t, err, token.ErrTokenWrongType)
}

func TestJWTIssuer_Rejects(t *testing.T) {
	issuer := testIssuer()
	pair, _, err := issuer.Issue(uuid.New(), "a@x.io")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := issuer.WithClock(func() time.Time { return time.Now().Add(25 * time.Hour) })
		_, err := later.Verify(pair.RefreshToken, token.KindRefresh)
		assert.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewJWTIssuer(config.JWTConfig{Secret: "other", Issuer: "account-service", AccessTTL: time.Minute, RefreshTTL: time.Hour})
		_, err := other.Verify(pair.AccessToken, token.KindAccess)
		assert.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-jwt", token.KindAccess)
		assert.ErrorIs(t, err, token.ErrTokenInvalid)
	})
}
