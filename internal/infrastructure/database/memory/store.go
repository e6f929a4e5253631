// Package memory is a mutex-guarded in-process implementation of the account
// repositories. It mirrors the conditional writes of the Postgres store and
// backs the use-case and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"account-service/internal/domain/token"
	"account-service/internal/domain/user"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]user.User
	outstanding map[string]token.OutstandingToken
	blacklist   map[uuid.UUID]token.BlacklistedToken
	resets      map[string]token.PasswordResetToken
}

func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]user.User),
		outstanding: make(map[string]token.OutstandingToken),
		blacklist:   make(map[uuid.UUID]token.BlacklistedToken),
		resets:      make(map[string]token.PasswordResetToken),
	}
}

// Users returns the store as a user.Repository.
func (s *Store) Users() user.Repository { return userRepo{s} }

// Sessions returns the store as a token.SessionRepository.
func (s *Store) Sessions() token.SessionRepository { return sessionRepo{s} }

// ResetTokens returns the store as a token.ResetTokenRepository.
func (s *Store) ResetTokens() token.ResetTokenRepository { return resetRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if field := r.s.conflictLocked(u); field != "" {
		return &user.ConflictError{Field: field}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (s *Store) conflictLocked(u *user.User) string {
	for id, existing := range s.users {
		if id == u.ID {
			continue
		}
		switch {
		case existing.Username == u.Username:
			return "username"
		case u.Email != "" && existing.Email == u.Email:
			return "email"
		case u.PhoneNumber != nil && existing.PhoneNumber != nil && *existing.PhoneNumber == *u.PhoneNumber:
			return "phone_number"
		}
	}
	return ""
}

func (r userRepo) find(match func(*user.User) bool) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(&u) {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if email == "" {
		return nil, user.ErrUserNotFound
	}
	return r.find(func(u *user.User) bool { return u.Email == email })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.Username == username })
}

func (r userRepo) GetByPhone(_ context.Context, phone string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone })
}

func (r userRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	if field := r.s.conflictLocked(u); field != "" {
		return &user.ConflictError{Field: field}
	}
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.PhoneNumber = u.PhoneNumber
	existing.Address = u.Address
	existing.UpdatedAt = time.Now()
	u.UpdatedAt = existing.UpdatedAt
	r.s.users[u.ID] = existing
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.setPasswordLocked(id, hash)
}

func (s *Store) setPasswordLocked(id uuid.UUID, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHashed = hash
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (r userRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		u.LastLogin = &at
		r.s.users[id] = u
	}
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) CreateOutstanding(_ context.Context, t *token.OutstandingToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.outstanding[t.JTI] = *t
	return nil
}

func (r sessionRepo) GetOutstanding(_ context.Context, jti string) (*token.OutstandingToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.outstanding[jti]
	if !ok {
		return nil, token.ErrTokenInvalid
	}
	return &t, nil
}

func (r sessionRepo) ListActive(_ context.Context, userID uuid.UUID, now time.Time) ([]*token.OutstandingToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*token.OutstandingToken
	for _, t := range r.s.outstanding {
		if t.UserID != userID || !t.ExpiresAt.After(now) {
			continue
		}
		if _, revoked := r.s.blacklist[t.ID]; revoked {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r sessionRepo) Blacklist(_ context.Context, t *token.OutstandingToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.outstanding[t.JTI]
	if !ok {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		existing = *t
		r.s.outstanding[t.JTI] = existing
	}
	r.s.blacklistLocked(existing.ID)
	return nil
}

func (s *Store) blacklistLocked(tokenID uuid.UUID) bool {
	if _, done := s.blacklist[tokenID]; done {
		return false
	}
	s.blacklist[tokenID] = token.BlacklistedToken{ID: uuid.New(), TokenID: tokenID, BlacklistedAt: time.Now()}
	return true
}

func (r sessionRepo) BlacklistAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, t := range r.s.outstanding {
		if t.UserID == userID && r.s.blacklistLocked(t.ID) {
			n++
		}
	}
	return n, nil
}

func (r sessionRepo) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.outstanding[jti]
	if !ok {
		return false, nil
	}
	_, revoked := r.s.blacklist[t.ID]
	return revoked, nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for jti, t := range r.s.outstanding {
		if t.ExpiresAt.Before(before) {
			delete(r.s.outstanding, jti)
			delete(r.s.blacklist, t.ID)
			n++
		}
	}
	return n, nil
}

type resetRepo struct{ s *Store }

func (r resetRepo) Create(_ context.Context, t *token.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.s.resets[t.Token] = *t
	return nil
}

func (r resetRepo) GetUnused(_ context.Context, raw string) (*token.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.resets[raw]
	if !ok || t.Used {
		return nil, token.ErrInvalidResetToken
	}
	return &t, nil
}

func (r resetRepo) Consume(_ context.Context, tokenID, userID uuid.UUID, hash string, createdAfter time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for raw, t := range r.s.resets {
		if t.ID != tokenID {
			continue
		}
		if t.Used || !t.CreatedAt.After(createdAfter) {
			return token.ErrInvalidResetToken
		}
		if err := r.s.setPasswordLocked(userID, hash); err != nil {
			return err
		}
		now := time.Now()
		t.Used, t.UsedAt = true, &now
		r.s.resets[raw] = t
		return nil
	}
	return token.ErrInvalidResetToken
}

func (r resetRepo) DeleteStale(_ context.Context, createdBefore time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for raw, t := range r.s.resets {
		if t.Used || t.CreatedAt.Before(createdBefore) {
			delete(r.s.resets, raw)
			n++
		}
	}
	return n, nil
}

// SetActive flips the active flag of an account.
func (s *Store) SetActive(id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsActive = active
	s.users[id] = u
	return nil
}
