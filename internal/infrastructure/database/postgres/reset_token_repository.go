package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/domain/token"
	"account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetTokenRepository implements token.ResetTokenRepository interface
type ResetTokenRepository struct {
	db *DB
}

// NewResetTokenRepository creates a new password reset token repository
func NewResetTokenRepository(db *DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

const consumeResetTokenSQL = `UPDATE password_reset_tokens SET used = TRUE, used_at = ?
WHERE id = ? AND used = FALSE AND created_at > ?`

const setPasswordSQL = `UPDATE users SET password_hashed = ?, updated_at = ? WHERE id = ?`

func (r *ResetTokenRepository) Create(ctx context.Context, t *token.PasswordResetToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	if err := r.db.DB.WithContext(ctx).Create(toResetTokenModel(t)).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) GetUnused(ctx context.Context, raw string) (*token.PasswordResetToken, error) {
	var dbModel models.PasswordResetTokenModel
	err := r.db.DB.WithContext(ctx).
		Where("token = ? AND used = ?", raw, false).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, token.ErrInvalidResetToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return toResetTokenEntity(&dbModel), nil
}

// Consume flips the used flag with a conditional update so that two
// concurrent confirmations cannot both succeed.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string, createdAfter time.Time) error {
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Exec(consumeResetTokenSQL, now, tokenID, createdAfter)
		if result.Error != nil {
			return fmt.Errorf("failed to consume reset token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return token.ErrInvalidResetToken
		}

		result = tx.Exec(setPasswordSQL, passwordHash, now, userID)
		if result.Error != nil {
			return fmt.Errorf("failed to update password: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}

// DeleteStale removes tokens that can no longer be consumed.
func (r *ResetTokenRepository) DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("used = ? OR created_at < ?", true, createdBefore).
		Delete(&models.PasswordResetTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete stale reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toResetTokenModel(t *token.PasswordResetToken) *models.PasswordResetTokenModel {
	return &models.PasswordResetTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		Used:      t.Used,
		UsedAt:    t.UsedAt,
		CreatedAt: t.CreatedAt,
	}
}

func toResetTokenEntity(m *models.PasswordResetTokenModel) *token.PasswordResetToken {
	return &token.PasswordResetToken{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		Used:      m.Used,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}
}
