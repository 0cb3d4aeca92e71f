package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// NotificationLogRepository dispatch audit trail data access. Rows only
// advance status or attach error detail, never anything else.
type NotificationLogRepository interface {
	WithTx(tx *gorm.DB) NotificationLogRepository
	Create(log *domain.NotificationLog) error
	FindByID(id uuid.UUID) (*domain.NotificationLog, error)
	MarkSent(id uuid.UUID, at time.Time) error
	MarkDelivered(id uuid.UUID, at time.Time) error
	MarkRead(id uuid.UUID, at time.Time) error
	MarkFailed(id uuid.UUID, errorDetails string) error
	Requeue(id uuid.UUID) error
	FindStuckQueued(olderThan time.Time, limit int) ([]*domain.NotificationLog, error)
	ListByRecipient(recipientID uuid.UUID, page, limit int) ([]*domain.NotificationLog, int64, error)
}

type notificationLogRepository struct {
	db *gorm.DB
}

// NewNotificationLogRepository creates a NotificationLogRepository
func NewNotificationLogRepository(db *gorm.DB) NotificationLogRepository {
	return &notificationLogRepository{db: db}
}

func (r *notificationLogRepository) WithTx(tx *gorm.DB) NotificationLogRepository {
	return &notificationLogRepository{db: tx}
}

func (r *notificationLogRepository) Create(log *domain.NotificationLog) error {
	return r.db.Create(log).Error
}

func (r *notificationLogRepository) FindByID(id uuid.UUID) (*domain.NotificationLog, error) {
	var log domain.NotificationLog
	err := r.db.Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (r *notificationLogRepository) MarkSent(id uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.NotificationLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  domain.NotificationSent,
			"sent_at": at,
		}).Error
}

func (r *notificationLogRepository) MarkDelivered(id uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.NotificationLog{}).
		Where("id = ? AND status = ?", id, domain.NotificationSent).
		Updates(map[string]interface{}{
			"status":       domain.NotificationDelivered,
			"delivered_at": at,
		}).Error
}

func (r *notificationLogRepository) MarkRead(id uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.NotificationLog{}).
		Where("id = ?", id).
		Update("read_at", at).Error
}

func (r *notificationLogRepository) MarkFailed(id uuid.UUID, errorDetails string) error {
	return r.db.Model(&domain.NotificationLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        domain.NotificationFailed,
			"error_details": errorDetails,
		}).Error
}

// Requeue returns a failed row to queued ahead of a sweep retry
func (r *notificationLogRepository) Requeue(id uuid.UUID) error {
	return r.db.Model(&domain.NotificationLog{}).
		Where("id = ?", id).
		Update("status", domain.NotificationQueued).Error
}

// FindStuckQueued returns queued rows older than the threshold, the
// crash-recovery input for the reconciliation sweep
func (r *notificationLogRepository) FindStuckQueued(olderThan time.Time, limit int) ([]*domain.NotificationLog, error) {
	var logs []*domain.NotificationLog
	err := r.db.Where("status = ? AND created_at < ?", domain.NotificationQueued, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *notificationLogRepository) ListByRecipient(recipientID uuid.UUID, page, limit int) ([]*domain.NotificationLog, int64, error) {
	q := r.db.Model(&domain.NotificationLog{}).Where("recipient_id = ?", recipientID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var logs []*domain.NotificationLog
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	return logs, total, err
}
