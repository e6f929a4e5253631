package passwordreset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"account-service/internal/config"
	"account-service/internal/domain/notification"
	"account-service/internal/domain/notification/mock"
	"account-service/internal/domain/token"
	domainUser "account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/memory"
	"account-service/internal/infrastructure/security"
	"account-service/internal/usecase/auth"
	appErrors "account-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const newPassword = "N3w!Password"

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	store   *memory.Store
	auth    *auth.Service
	service *Service
	mailer  *mock.MockMailer
	clock   *clock
	alice   *domainUser.User
}

func newFixture(t *testing.T, revoke bool) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store := memory.NewStore()
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	issuer := security.NewJWTIssuer(config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	authSvc := auth.NewService(store.Users(), store.Sessions(), hasher, issuer, nil, auth.Options{})

	mailer := mock.NewMockMailer(ctrl)
	svc := NewService(store.Users(), store.ResetTokens(), store.Sessions(), authSvc, hasher, mailer, nil, Options{
		TokenTTL:       24 * time.Hour,
		FrontendURL:    "http://localhost:3000",
		RevokeSessions: revoke,
		Now:            clk.Now,
	})

	resp, err := authSvc.Register(context.Background(), domainUser.IdentifierEmail, &auth.RegisterRequest{
		Email:    "alice@example.com",
		Password: "Secret123!",
	})
	require.NoError(t, err)
	alice, err := store.Users().GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)

	return &fixture{store: store, auth: authSvc, service: svc, mailer: mailer, clock: clk, alice: alice}
}

// requestToken runs RequestReset for alice and returns the raw token from the
// mailed link.
func (f *fixture) requestToken(t *testing.T) string {
	t.Helper()
	var sent notification.Message
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.Message) error {
		sent = msg
		return nil
	})

	require.NoError(t, f.service.RequestReset(context.Background(), &ResetRequest{Email: "alice@example.com"}))
	require.Equal(t, "alice@example.com", sent.To)

	idx := strings.Index(sent.Body, "http://localhost:3000/reset-password/")
	require.GreaterOrEqual(t, idx, 0)
	raw := sent.Body[idx+len("http://localhost:3000/reset-password/"):]
	require.Len(t, raw, 64)
	return raw
}

func confirm(raw string) *ConfirmRequest {
	return &ConfirmRequest{Token: raw, NewPassword: newPassword, ConfirmPassword: newPassword}
}

func TestRequestReset_UnregisteredLooksTheSame(t *testing.T) {
	f := newFixture(t, false)

	err := f.service.RequestReset(context.Background(), &ResetRequest{Email: "nobody@example.com"})
	assert.NoError(t, err)

	f.requestToken(t)
}

func TestRequestReset_SwallowsMailFailure(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	assert.NoError(t, f.service.RequestReset(context.Background(), &ResetRequest{Email: "alice@example.com"}))
}

func TestRequestReset_SwallowsGeneratorFailure(t *testing.T) {
	f := newFixture(t, false)
	f.service.generateToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	assert.NoError(t, f.service.RequestReset(context.Background(), &ResetRequest{Email: "alice@example.com"}))
}

func TestRequestReset_RejectsMalformedEmail(t *testing.T) {
	f := newFixture(t, false)

	err := f.service.RequestReset(context.Background(), &ResetRequest{Email: "nope"})
	fields, ok := appErrors.FieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
}

func TestConfirmReset_ValidityWindow(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"just before expiry", 23*time.Hour + 59*time.Minute, nil},
		{"just after expiry", 24*time.Hour + time.Minute, token.ErrExpiredResetToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			raw := f.requestToken(t)

			f.clock.now = f.clock.now.Add(tt.elapsed)
			pair, err := f.service.ConfirmReset(context.Background(), confirm(raw))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
			assert.NotEmpty(t, pair.RefreshToken)

			_, err = f.auth.Authenticate(context.Background(), "alice@example.com", newPassword)
			assert.NoError(t, err)
		})
	}
}

func TestConfirmReset_SingleUse(t *testing.T) {
	f := newFixture(t, false)
	raw := f.requestToken(t)

	_, err := f.service.ConfirmReset(context.Background(), confirm(raw))
	require.NoError(t, err)

	_, err = f.service.ConfirmReset(context.Background(), confirm(raw))
	assert.ErrorIs(t, err, token.ErrInvalidResetToken)
}

func TestConfirmReset_Validation(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.ConfirmReset(context.Background(), confirm("does-not-exist"))
	assert.ErrorIs(t, err, token.ErrInvalidResetToken)

	_, err = f.service.ConfirmReset(context.Background(), &ConfirmRequest{Token: "x", NewPassword: newPassword, ConfirmPassword: "other"})
	fields, ok := appErrors.FieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "confirm_password")

	_, err = f.service.ConfirmReset(context.Background(), &ConfirmRequest{Token: "x", NewPassword: "abc", ConfirmPassword: "abc"})
	fields, ok = appErrors.FieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "new_password")

	long := "Aa1!" + strings.Repeat("x", 69)
	_, err = f.service.ConfirmReset(context.Background(), &ConfirmRequest{Token: f.requestToken(t), NewPassword: long, ConfirmPassword: long})
	fields, ok = appErrors.FieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "new_password")
}

func TestConfirmReset_RevokesSessionsWhenConfigured(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	login, err := f.auth.Login(ctx, &auth.LoginRequest{Email: "alice@example.com", Password: "Secret123!"})
	require.NoError(t, err)

	raw := f.requestToken(t)
	pair, err := f.service.ConfirmReset(ctx, confirm(raw))
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, &auth.RefreshRequest{Refresh: login.Refresh})
	assert.ErrorIs(t, err, token.ErrTokenBlacklisted)

	_, err = f.auth.Refresh(ctx, &auth.RefreshRequest{Refresh: pair.RefreshToken})
	assert.NoError(t, err)
}

func TestCleanup(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	stale := f.requestToken(t)
	f.clock.now = f.clock.now.Add(25 * time.Hour)
	fresh := f.requestToken(t)

	f.service.Cleanup(ctx)

	_, err := f.store.ResetTokens().GetUnused(ctx, stale)
	assert.ErrorIs(t, err, token.ErrInvalidResetToken)
	_, err = f.store.ResetTokens().GetUnused(ctx, fresh)
	assert.NoError(t, err)
}

func TestStartCleanupJob_StopsOnCancel(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.service.StartCleanupJob(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup job did not stop")
	}
}

func TestResetLink(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, "http://localhost:3000/reset-password/abc", f.service.ResetLink("abc"))
}
