package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username       string     `gorm:"column:username;type:varchar(150);not null;uniqueIndex:uq_users_username"`
	Email          string     `gorm:"column:email;type:varchar(254);not null"`
	PhoneNumber    *string    `gorm:"column:phone_number;type:varchar(20)"`
	PasswordHashed string     `gorm:"column:password_hashed;type:varchar(255);not null"`
	FirstName      string     `gorm:"column:first_name;type:varchar(150);not null"`
	LastName       string     `gorm:"column:last_name;type:varchar(150);not null"`
	Address        *string    `gorm:"column:address;type:text"`
	IsActive       bool       `gorm:"column:is_active;not null"`
	IsStaff        bool       `gorm:"column:is_staff;not null"`
	LastLogin      *time.Time `gorm:"column:last_login"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// OutstandingTokenModel is every refresh token ever issued.
type OutstandingTokenModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	JTI       string    `gorm:"column:jti;type:varchar(255);not null;uniqueIndex:uq_outstanding_tokens_jti"`
	Token     string    `gorm:"column:token;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}

func (OutstandingTokenModel) TableName() string {
	return "outstanding_tokens"
}

// BlacklistedTokenModel points at a revoked outstanding token.
type BlacklistedTokenModel struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TokenID       uuid.UUID `gorm:"column:token_id;type:uuid;not null;uniqueIndex:uq_blacklisted_tokens_token_id"`
	BlacklistedAt time.Time `gorm:"column:blacklisted_at;not null"`
}

func (BlacklistedTokenModel) TableName() string {
	return "blacklisted_tokens"
}

// PasswordResetTokenModel represents the database model for PasswordResetToken
type PasswordResetTokenModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	Token     string     `gorm:"column:token;type:varchar(100);not null;uniqueIndex:uq_password_reset_tokens_token"`
	Used      bool       `gorm:"column:used;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

func (PasswordResetTokenModel) TableName() string {
	return "password_reset_tokens"
}
