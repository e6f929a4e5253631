package auth

import (
	"time"

	"account-service/internal/domain/token"
	domainUser "account-service/internal/domain/user"

	"github.com/google/uuid"
)

// RegisterRequest carries every field any registration variant accepts; the
// strategy for the identifier kind decides which are required.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type LoginRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	Username    string `json:"username" validate:"required_without_all=Email PhoneNumber"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
	Password    string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PhoneNumber *string    `json:"phone_number"`
	Address     *string    `json:"address"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AuthResponse is returned by the registration endpoints.
type AuthResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
}

// LoginResponse keeps the access/refresh naming of the token obtain endpoint.
type LoginResponse struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    *UserResponse `json:"user"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// PasswordChangedResponse is returned after a password change or reset.
type PasswordChangedResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	JTI       string    `json:"jti"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func ToUserResponse(u *domainUser.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

func NewPasswordChangedResponse(pair *token.Pair) *PasswordChangedResponse {
	return &PasswordChangedResponse{
		Message:      "Password changed successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

func toSessionResponse(t *token.OutstandingToken) *SessionResponse {
	return &SessionResponse{
		ID:        t.ID,
		JTI:       t.JTI,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}
