package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

// Options toggles session behaviour that deployments disagree on.
type Options struct {
	RotateRefreshTokens            bool
	RevokeSessionsOnPasswordChange bool
	Now                            func() time.Time
}

// Service is the credential and session manager
type Service struct {
	userRepo    domainUser.Repository
	sessionRepo token.SessionRepository
	hasher      PasswordHasher
	issuer      TokenIssuer
	events      notification.EventPublisher
	opts        Options
}

// NewService creates a new auth service
func NewService(
	userRepo domainUser.Repository,
	sessionRepo token.SessionRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	events notification.EventPublisher,
	opts Options,
) *Service {
	if events == nil {
		events = notification.NopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		issuer:      issuer,
		events:      events,
		opts:        opts,
	}
}

// IssueTokenPair signs a fresh pair for u and records the refresh token as
// outstanding.
func (s *Service) IssueTokenPair(ctx context.Context, u *domainUser.User) (*token.Pair, error) {
	pair, refresh, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	outstanding := &token.OutstandingToken{
		UserID:    u.ID,
		JTI:       refresh.JTI,
		Token:     pair.RefreshToken,
		CreatedAt: refresh.IssuedAt,
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.sessionRepo.CreateOutstanding(ctx, outstanding); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return pair, nil
}

// Authenticate resolves an account by email and checks its password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domainUser.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return s.verifyCredentials(ctx, s.userRepo.GetByEmail, email, password)
}

func (s *Service) verifyCredentials(
	ctx context.Context,
	lookup func(context.Context, string) (*domainUser.User, error),
	identifier, password string,
) (*domainUser.User, error) {
	user, err := lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with unknown identifier",
				zap.String("event", "login_failed_user_not_found"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHashed, password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		logger.Warn("Login attempt for inactive user",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_inactive_user"),
		)
		return nil, appErrors.ErrAccountDisabled
	}

	return user, nil
}

func (s *Service) Register(ctx context.Context, kind domainUser.IdentifierKind, req *RegisterRequest) (*AuthResponse, error) {
	strategy, err := StrategyFor(kind)
	if err != nil {
		return nil, err
	}

	strategy.normalize(req)
	if err := strategy.validate(req); err != nil {
		return nil, err
	}
	if problems := utils.ValidatePassword(req.Password); len(problems) > 0 {
		return nil, appErrors.NewFieldError("password", problems...)
	}

	if err := strategy.checkAvailable(ctx, s.userRepo, req); err != nil {
		logger.Warn("Registration attempt with existing identifier",
			zap.String("kind", string(kind)),
			zap.String("event", "registration_failed_duplicate"),
			zap.Error(err),
		)
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := strategy.build(req)
	user.PasswordHashed = hashedPassword
	user.FirstName = utils.SanitizeString(req.FirstName)
	user.LastName = utils.SanitizeString(req.LastName)
	user.IsActive = true

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("event", "user_registered"),
	)
	s.publish(ctx, notification.EventUserRegistered, user.ID, map[string]string{"kind": string(kind)})

	return &AuthResponse{
		User:         ToUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	req.PhoneNumber = utils.SanitizePhone(req.PhoneNumber)
	req.Username = utils.SanitizeString(req.Username)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	var (
		user *domainUser.User
		err  error
	)
	switch {
	case req.Email != "":
		user, err = s.verifyCredentials(ctx, s.userRepo.GetByEmail, req.Email, req.Password)
	case req.Username != "":
		user, err = s.verifyCredentials(ctx, s.userRepo.GetByUsername, req.Username, req.Password)
	default:
		user, err = s.verifyCredentials(ctx, s.userRepo.GetByPhone, req.PhoneNumber, req.Password)
	}
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Error("Failed to update last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "login_success"),
	)
	s.publish(ctx, notification.EventUserLoggedIn, user.ID, nil)

	return &LoginResponse{
		Access:  pair.AccessToken,
		Refresh: pair.RefreshToken,
		User:    ToUserResponse(user),
	}, nil
}

// Refresh mints a new access token from a live refresh token. With rotation
// enabled the presented refresh token is blacklisted and replaced.
func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	claims, err := s.issuer.Verify(req.Refresh, token.KindRefresh)
	if err != nil {
		logger.Warn("Token refresh attempt with invalid token",
			zap.String("event", "token_refresh_failed_invalid_token"),
			zap.Error(err),
		)
		return nil, err
	}

	blacklisted, err := s.sessionRepo.IsBlacklisted(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		logger.Warn("Token refresh attempt with blacklisted token",
			zap.String("user_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_blacklisted"),
		)
		return nil, token.ErrTokenBlacklisted
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, token.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, appErrors.ErrAccountDisabled
	}

	if !s.opts.RotateRefreshTokens {
		access, _, err := s.issuer.IssueAccess(user.ID, user.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to generate access token: %w", err)
		}
		return &RefreshResponse{Access: access}, nil
	}

	if err := s.sessionRepo.Blacklist(ctx, outstandingFromClaims(claims, req.Refresh)); err != nil {
		return nil, fmt.Errorf("failed to blacklist rotated token: %w", err)
	}
	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Debug("Refresh token rotated",
		zap.String("user_id", user.ID.String()),
		zap.String("old_jti", claims.JTI),
		zap.String("event", "token_refresh_rotated"),
	)

	return &RefreshResponse{Access: pair.AccessToken, Refresh: pair.RefreshToken}, nil
}

// Verify accepts any live token of either kind.
func (s *Service) Verify(ctx context.Context, req *VerifyRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	if _, err := s.issuer.Verify(req.Token, token.KindAccess); !errors.Is(err, token.ErrTokenWrongType) {
		return err
	}

	claims, err := s.issuer.Verify(req.Token, token.KindRefresh)
	if err != nil {
		return err
	}
	blacklisted, err := s.sessionRepo.IsBlacklisted(ctx, claims.JTI)
	if err != nil {
		return err
	}
	if blacklisted {
		return token.ErrTokenBlacklisted
	}
	return nil
}

// Logout blacklists one refresh token of userID. Repeating it is a no-op.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, req *LogoutRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	claims, err := s.issuer.Verify(req.RefreshToken, token.KindRefresh)
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		logger.Warn("Logout attempt with another user's token",
			zap.String("user_id", userID.String()),
			zap.String("event", "logout_failed_user_mismatch"),
		)
		return token.ErrTokenInvalid
	}

	if err := s.sessionRepo.Blacklist(ctx, outstandingFromClaims(claims, req.RefreshToken)); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	logger.Info("Refresh token blacklisted",
		zap.String("user_id", userID.String()),
		zap.String("jti", claims.JTI),
		zap.String("event", "token_revoked"),
	)
	s.publish(ctx, notification.EventSessionRevoked, userID, map[string]string{"jti": claims.JTI})

	return nil
}

// LogoutAll blacklists every outstanding refresh token of userID.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.sessionRepo.BlacklistAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke all tokens for user: %w", err)
	}

	logger.Info("All refresh tokens revoked for user",
		zap.String("user_id", userID.String()),
		zap.Int64("revoked", count),
		zap.String("event", "all_tokens_revoked"),
	)
	s.publish(ctx, notification.EventSessionsRevoked, userID, map[string]string{"count": strconv.FormatInt(count, 10)})

	return count, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) (*token.Pair, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if problems := utils.ValidatePassword(req.NewPassword); len(problems) > 0 {
		return nil, appErrors.NewFieldError("new_password", problems...)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHashed, req.OldPassword) {
		logger.Warn("Password change attempt with invalid old password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_change_failed_invalid_old_password"),
		)
		return nil, appErrors.NewFieldError("old_password", "Wrong password.")
	}

	hashedPassword, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return nil, err
	}

	if s.opts.RevokeSessionsOnPasswordChange {
		if _, err := s.RevokeSessions(ctx, userID); err != nil {
			return nil, err
		}
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("Password changed successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "password_change_success"),
	)
	s.publish(ctx, notification.EventPasswordChanged, user.ID, nil)

	return pair, nil
}

// RevokeSessions blacklists the user's sessions when a credential changed.
func (s *Service) RevokeSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.sessionRepo.BlacklistAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	logger.Info("Sessions revoked after credential change",
		zap.String("user_id", userID.String()),
		zap.Int64("revoked", count),
	)
	return count, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	if req.PhoneNumber != nil {
		phone := utils.SanitizePhone(*req.PhoneNumber)
		req.PhoneNumber = &phone
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = utils.SanitizeString(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = utils.SanitizeString(*req.LastName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Address != nil {
		address := utils.SanitizeText(*req.Address)
		user.Address = &address
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return ToUserResponse(user), nil
}

// ListSessions returns the user's refresh tokens that can still be used.
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]*SessionResponse, error) {
	sessions, err := s.sessionRepo.ListActive(ctx, userID, s.opts.Now())
	if err != nil {
		return nil, err
	}

	out := make([]*SessionResponse, 0, len(sessions))
	for _, t := range sessions {
		out = append(out, toSessionResponse(t))
	}
	return out, nil
}

// VerifyAccess validates a bearer access token for the auth middleware.
func (s *Service) VerifyAccess(raw string) (*token.Claims, error) {
	return s.issuer.Verify(raw, token.KindAccess)
}

func (s *Service) publish(ctx context.Context, eventType notification.EventType, userID uuid.UUID, metadata map[string]string) {
	event := notification.Event{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: s.opts.Now(),
		Metadata:   metadata,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish account event",
			zap.String("type", string(eventType)),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func outstandingFromClaims(claims *token.Claims, raw string) *token.OutstandingToken {
	return &token.OutstandingToken{
		UserID:    claims.UserID,
		JTI:       claims.JTI,
		Token:     raw,
		CreatedAt: claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}
}
