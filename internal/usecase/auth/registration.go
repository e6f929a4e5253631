package auth

import (
	"context"
	"errors"
	"fmt"

	domainUser "account-service/internal/domain/user"
	"account-service/pkg/utils"
)

type emailRegistration struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type phoneRegistration struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Password    string `json:"password" validate:"required"`
}

type usernameRegistration struct {
	Username string `json:"username" validate:"required,username,max=150"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// RegistrationStrategy is one way of creating an account, keyed by the
// identifier the user signs in with.
type RegistrationStrategy struct {
	Kind domainUser.IdentifierKind
	// Field is the request field that carries the identifier.
	Field string

	normalize func(req *RegisterRequest)
	validate  func(req *RegisterRequest) error
	build     func(req *RegisterRequest) *domainUser.User
	lookup    func(ctx context.Context, repo domainUser.Repository, req *RegisterRequest) (*domainUser.User, error)
}

var strategies = map[domainUser.IdentifierKind]RegistrationStrategy{
	domainUser.IdentifierEmail: {
		Kind:  domainUser.IdentifierEmail,
		Field: "email",
		normalize: func(req *RegisterRequest) {
			req.Email = utils.NormalizeEmail(req.Email)
		},
		validate: func(req *RegisterRequest) error {
			return utils.ValidateStruct(&emailRegistration{Email: req.Email, Password: req.Password})
		},
		build: func(req *RegisterRequest) *domainUser.User {
			return &domainUser.User{Username: req.Email, Email: req.Email}
		},
		lookup: func(ctx context.Context, repo domainUser.Repository, req *RegisterRequest) (*domainUser.User, error) {
			return repo.GetByEmail(ctx, req.Email)
		},
	},
	domainUser.IdentifierPhone: {
		Kind:  domainUser.IdentifierPhone,
		Field: "phone_number",
		normalize: func(req *RegisterRequest) {
			req.PhoneNumber = utils.SanitizePhone(req.PhoneNumber)
		},
		validate: func(req *RegisterRequest) error {
			return utils.ValidateStruct(&phoneRegistration{PhoneNumber: req.PhoneNumber, Password: req.Password})
		},
		build: func(req *RegisterRequest) *domainUser.User {
			phone := req.PhoneNumber
			return &domainUser.User{Username: phone, PhoneNumber: &phone}
		},
		lookup: func(ctx context.Context, repo domainUser.Repository, req *RegisterRequest) (*domainUser.User, error) {
			return repo.GetByPhone(ctx, req.PhoneNumber)
		},
	},
	domainUser.IdentifierUsername: {
		Kind:  domainUser.IdentifierUsername,
		Field: "username",
		normalize: func(req *RegisterRequest) {
			req.Username = utils.SanitizeString(req.Username)
			req.Email = utils.NormalizeEmail(req.Email)
		},
		validate: func(req *RegisterRequest) error {
			return utils.ValidateStruct(&usernameRegistration{Username: req.Username, Email: req.Email, Password: req.Password})
		},
		build: func(req *RegisterRequest) *domainUser.User {
			return &domainUser.User{Username: req.Username, Email: req.Email}
		},
		lookup: func(ctx context.Context, repo domainUser.Repository, req *RegisterRequest) (*domainUser.User, error) {
			u, err := repo.GetByUsername(ctx, req.Username)
			if err == nil || !errors.Is(err, domainUser.ErrUserNotFound) || req.Email == "" {
				return u, err
			}
			if _, err = repo.GetByEmail(ctx, req.Email); err == nil {
				return nil, &domainUser.ConflictError{Field: "email"}
			}
			return nil, err
		},
	},
}

// StrategyFor returns the registration variant for kind.
func StrategyFor(kind domainUser.IdentifierKind) (RegistrationStrategy, error) {
	s, ok := strategies[kind]
	if !ok {
		return RegistrationStrategy{}, fmt.Errorf("unsupported registration kind %q", kind)
	}
	return s, nil
}

// checkAvailable fails with a ConflictError when the identifier is taken.
func (rs RegistrationStrategy) checkAvailable(ctx context.Context, repo domainUser.Repository, req *RegisterRequest) error {
	existing, err := rs.lookup(ctx, repo, req)
	switch {
	case err == nil && existing != nil:
		return &domainUser.ConflictError{Field: rs.Field}
	case err == nil, errors.Is(err, domainUser.ErrUserNotFound):
		return nil
	case errors.Is(err, domainUser.ErrUserAlreadyExists):
		return err
	default:
		return fmt.Errorf("failed to check existing user: %w", err)
	}
}
