package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"account-service/internal/domain/token"
	"account-service/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_Conflicts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Users().Create(ctx, &user.User{Username: "alice", Email: "a@x.io"}))

	err := s.Users().Create(ctx, &user.User{Username: "alice2", Email: "a@x.io"})
	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)

	err = s.Users().Create(ctx, &user.User{Username: "alice"})
	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)

	require.NoError(t, s.Users().Create(ctx, &user.User{Username: "bob"}))
	require.NoError(t, s.Users().Create(ctx, &user.User{Username: "carol"}))
}

func TestReset_ConsumeOnlyOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := &user.User{Username: "alice"}
	require.NoError(t, s.Users().Create(ctx, u))

	rt := &token.PasswordResetToken{UserID: u.ID, Token: "tok"}
	require.NoError(t, s.ResetTokens().Create(ctx, rt))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ResetTokens().Consume(ctx, rt.ID, u.ID, "hash", time.Now().Add(-time.Hour)) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	_, err := s.ResetTokens().GetUnused(ctx, "tok")
	assert.ErrorIs(t, err, token.ErrInvalidResetToken)
}

func TestSessions_BlacklistAllConcurrent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Sessions().CreateOutstanding(ctx, &token.OutstandingToken{
			UserID: userID, JTI: uuid.NewString(), ExpiresAt: time.Now().Add(time.Hour),
		}))
	}

	var total int64
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.Sessions().BlacklistAllForUser(ctx, userID)
			assert.NoError(t, err)
			atomic.AddInt64(&total, n)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), total)
	active, err := s.Sessions().ListActive(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, active)
}
