package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository device session data access
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	Create(session *domain.Session) error
	FindByID(id uuid.UUID) (*domain.Session, error)
	FindActiveByUser(userID uuid.UUID) ([]*domain.Session, error)
	CountActiveByUser(userID uuid.UUID) (int64, error)
	Touch(id uuid.UUID, at time.Time) error
	Close(id uuid.UUID, reason domain.DisconnectReason, at time.Time) error
	FindStale(lastActivityBefore time.Time) ([]*domain.Session, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	return &sessionRepository{db: tx}
}

func (r *sessionRepository) Create(session *domain.Session) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindByID(id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActiveByUser(userID uuid.UUID) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.Where("user_id = ? AND disconnected_at IS NULL", userID).
		Order("connected_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) CountActiveByUser(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND disconnected_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *sessionRepository) Touch(id uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.Session{}).
		Where("id = ? AND disconnected_at IS NULL", id).
		Update("last_activity_at", at).Error
}

// Close is a no-op for an already-closed session so repeated logout
// calls stay idempotent.
func (r *sessionRepository) Close(id uuid.UUID, reason domain.DisconnectReason, at time.Time) error {
	return r.db.Model(&domain.Session{}).
		Where("id = ? AND disconnected_at IS NULL", id).
		Updates(map[string]interface{}{
			"disconnected_at":   at,
			"disconnect_reason": reason,
		}).Error
}

func (r *sessionRepository) FindStale(lastActivityBefore time.Time) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.Where("disconnected_at IS NULL AND last_activity_at < ?", lastActivityBefore).
		Find(&sessions).Error
	return sessions, err
}
