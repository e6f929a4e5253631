package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentifierKind names the credential a user registered and logs in with.
type IdentifierKind string

const (
	IdentifierEmail    IdentifierKind = "email"
	IdentifierPhone    IdentifierKind = "phone"
	IdentifierUsername IdentifierKind = "username"
)

func (k IdentifierKind) Valid() bool {
	switch k {
	case IdentifierEmail, IdentifierPhone, IdentifierUsername:
		return true
	}
	return false
}

// User represents an account in the domain
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	PhoneNumber    *string
	PasswordHashed string
	FirstName      string
	LastName       string
	Address        *string
	IsActive       bool
	IsStaff        bool
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
