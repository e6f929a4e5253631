package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/domain/notification"
	"account-service/internal/domain/token"
	domainUser "account-service/internal/domain/user"
	"account-service/internal/logger"
	appErrors "account-service/pkg/errors"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManager issues and revokes the sessions of an account.
type SessionManager interface {
	IssueTokenPair(ctx context.Context, u *domainUser.User) (*token.Pair, error)
	RevokeSessions(ctx context.Context, userID uuid.UUID) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Options struct {
	TokenTTL       time.Duration
	FrontendURL    string
	RevokeSessions bool
	Now            func() time.Time
}

// Service is the password reset token store
type Service struct {
	userRepo    domainUser.Repository
	resetRepo   token.ResetTokenRepository
	sessionRepo token.SessionRepository
	sessions    SessionManager
	hasher      PasswordHasher
	mailer      notification.Mailer
	events      notification.EventPublisher
	opts        Options

	generateToken func() (string, error)
}

func NewService(
	userRepo domainUser.Repository,
	resetRepo token.ResetTokenRepository,
	sessionRepo token.SessionRepository,
	sessions SessionManager,
	hasher PasswordHasher,
	mailer notification.Mailer,
	events notification.EventPublisher,
	opts Options,
) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = token.DefaultResetTokenTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if events == nil {
		events = notification.NopPublisher{}
	}
	return &Service{
		userRepo:      userRepo,
		resetRepo:     resetRepo,
		sessionRepo:   sessionRepo,
		sessions:      sessions,
		hasher:        hasher,
		mailer:        mailer,
		events:        events,
		opts:          opts,
		generateToken: utils.GenerateResetToken,
	}
}

// RequestReset mails a reset link when email belongs to an account. Every
// failure after input validation is logged and swallowed so that the caller
// cannot tell registered addresses apart.
func (s *Service) RequestReset(ctx context.Context, req *ResetRequest) error {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Info("Password reset requested for non-existent email",
				zap.String("event", "password_reset_requested_non_existent_email"),
			)
		} else {
			logger.Error("Password reset lookup failed", zap.Error(err))
		}
		return nil
	}

	raw, err := s.generateToken()
	if err != nil {
		logger.Error("Failed to generate password reset token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	resetToken := &token.PasswordResetToken{
		UserID:    user.ID,
		Token:     raw,
		CreatedAt: s.opts.Now(),
	}
	if err := s.resetRepo.Create(ctx, resetToken); err != nil {
		logger.Error("Failed to store password reset token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	msg := notification.Message{
		To:      user.Email,
		Subject: "Password Reset Request",
		Body:    fmt.Sprintf("To reset your password, follow this link: %s", s.ResetLink(raw)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.String("token_id", resetToken.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("Password reset token generated",
		zap.String("user_id", user.ID.String()),
		zap.String("token_id", resetToken.ID.String()),
		zap.Time("expires_at", resetToken.ExpiresAt(s.opts.TokenTTL)),
		zap.String("event", "password_reset_token_generated"),
	)
	s.publish(ctx, notification.EventResetRequested, user.ID)

	return nil
}

// ResetLink is the frontend URL that carries raw.
func (s *Service) ResetLink(raw string) string {
	return s.opts.FrontendURL + "/reset-password/" + raw
}

// ConfirmReset sets a new password with an unused, unexpired token and signs
// the user in.
func (s *Service) ConfirmReset(ctx context.Context, req *ConfirmRequest) (*token.Pair, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if problems := utils.ValidatePassword(req.NewPassword); len(problems) > 0 {
		return nil, appErrors.NewFieldError("new_password", problems...)
	}

	resetToken, err := s.resetRepo.GetUnused(ctx, req.Token)
	if err != nil {
		if errors.Is(err, token.ErrInvalidResetToken) {
			logger.Warn("Password reset attempt with invalid token",
				zap.String("event", "password_reset_failed_invalid_token"),
			)
		}
		return nil, err
	}

	now := s.opts.Now()
	if resetToken.IsExpired(now, s.opts.TokenTTL) {
		logger.Warn("Password reset attempt with expired token",
			zap.String("token_id", resetToken.ID.String()),
			zap.String("event", "password_reset_failed_expired_token"),
		)
		return nil, token.ErrExpiredResetToken
	}

	hashedPassword, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	createdAfter := now.Add(-s.opts.TokenTTL)
	if err := s.resetRepo.Consume(ctx, resetToken.ID, resetToken.UserID, hashedPassword, createdAfter); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, resetToken.UserID)
	if err != nil {
		return nil, err
	}

	if s.opts.RevokeSessions {
		if _, err := s.sessions.RevokeSessions(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	pair, err := s.sessions.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("Password reset successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("token_id", resetToken.ID.String()),
		zap.String("event", "password_reset_success"),
	)
	s.publish(ctx, notification.EventPasswordReset, user.ID)

	return pair, nil
}

func (s *Service) publish(ctx context.Context, eventType notification.EventType, userID uuid.UUID) {
	event := notification.Event{Type: eventType, UserID: userID, OccurredAt: s.opts.Now()}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish account event",
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}
