package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/domain/token"
	"account-service/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository implements token.SessionRepository interface
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new refresh token session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const upsertOutstandingSQL = `INSERT INTO outstanding_tokens (id, user_id, jti, token, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (jti) DO NOTHING`

const blacklistSQL = `INSERT INTO blacklisted_tokens (id, token_id, blacklisted_at)
SELECT ?, o.id, ? FROM outstanding_tokens o WHERE o.jti = ?
ON CONFLICT (token_id) DO NOTHING`

const blacklistAllSQL = `INSERT INTO blacklisted_tokens (id, token_id, blacklisted_at)
SELECT gen_random_uuid(), o.id, ? FROM outstanding_tokens o WHERE o.user_id = ?
ON CONFLICT (token_id) DO NOTHING`

const isBlacklistedSQL = `SELECT EXISTS (
SELECT 1 FROM blacklisted_tokens b JOIN outstanding_tokens o ON o.id = b.token_id WHERE o.jti = ?)`

func (r *SessionRepository) CreateOutstanding(ctx context.Context, t *token.OutstandingToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	if err := r.db.DB.WithContext(ctx).Create(toOutstandingModel(t)).Error; err != nil {
		return fmt.Errorf("failed to create outstanding token: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetOutstanding(ctx context.Context, jti string) (*token.OutstandingToken, error) {
	var dbModel models.OutstandingTokenModel
	err := r.db.DB.WithContext(ctx).Where("jti = ?", jti).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, token.ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outstanding token: %w", err)
	}

	return toOutstandingEntity(&dbModel), nil
}

func (r *SessionRepository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]*token.OutstandingToken, error) {
	var dbModels []models.OutstandingTokenModel
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Where("NOT EXISTS (SELECT 1 FROM blacklisted_tokens b WHERE b.token_id = outstanding_tokens.id)").
		Order("created_at DESC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*token.OutstandingToken, 0, len(dbModels))
	for i := range dbModels {
		sessions = append(sessions, toOutstandingEntity(&dbModels[i]))
	}
	return sessions, nil
}

// Blacklist is idempotent: the outstanding row is created when the token was
// issued before it was tracked, and a second blacklist of the same token adds
// nothing.
func (r *SessionRepository) Blacklist(ctx context.Context, t *token.OutstandingToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(upsertOutstandingSQL,
			t.ID, t.UserID, t.JTI, t.Token, t.CreatedAt, t.ExpiresAt,
		).Error; err != nil {
			return fmt.Errorf("failed to record outstanding token: %w", err)
		}

		if err := tx.Exec(blacklistSQL, uuid.New(), time.Now(), t.JTI).Error; err != nil {
			return fmt.Errorf("failed to blacklist token: %w", err)
		}
		return nil
	})
}

func (r *SessionRepository) BlacklistAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.DB.WithContext(ctx).Exec(blacklistAllSQL, time.Now(), userID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to blacklist user tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *SessionRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var exists bool
	if err := r.db.DB.WithContext(ctx).Raw(isBlacklistedSQL, jti).Scan(&exists).Error; err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}

// DeleteExpired removes outstanding tokens past their expiry. Their blacklist
// rows go with them through the foreign key cascade.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.OutstandingTokenModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toOutstandingModel(t *token.OutstandingToken) *models.OutstandingTokenModel {
	return &models.OutstandingTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		JTI:       t.JTI,
		Token:     t.Token,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

func toOutstandingEntity(m *models.OutstandingTokenModel) *token.OutstandingToken {
	return &token.OutstandingToken{
		ID:        m.ID,
		UserID:    m.UserID,
		JTI:       m.JTI,
		Token:     m.Token,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}
