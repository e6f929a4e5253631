package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// UserRepository implements user.Repository on top of gorm
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	dbModel := toUserModel(u)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if field, ok := duplicateField(err); ok {
			return &user.ConflictError{Field: field}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return r.first(ctx, "id = ?", userID)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if email == "" {
		return nil, user.ErrUserNotFound
	}
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	return r.first(ctx, "phone_number = ?", phone)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"first_name":   u.FirstName,
			"last_name":    u.LastName,
			"phone_number": u.PhoneNumber,
			"address":      u.Address,
			"updated_at":   u.UpdatedAt,
		})

	if result.Error != nil {
		if field, ok := duplicateField(result.Error); ok {
			return &user.ConflictError{Field: field}
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hashed": passwordHash,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Update("last_login", at)

	if result.Error != nil {
		return fmt.Errorf("failed to update last login: %w", result.Error)
	}
	return nil
}

// duplicateField maps a unique-constraint violation to the request field it
// concerns.
func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}

	switch pgErr.ConstraintName {
	case "uq_users_email":
		return "email", true
	case "uq_users_phone":
		return "phone_number", true
	default:
		return "username", true
	}
}

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		PasswordHashed: u.PasswordHashed,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Address:        u.Address,
		IsActive:       u.IsActive,
		IsStaff:        u.IsStaff,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		PhoneNumber:    m.PhoneNumber,
		PasswordHashed: m.PasswordHashed,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Address:        m.Address,
		IsActive:       m.IsActive,
		IsStaff:        m.IsStaff,
		LastLogin:      m.LastLogin,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
