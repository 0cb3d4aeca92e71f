package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// MessageRepository message ledger data access
type MessageRepository interface {
	WithTx(tx *gorm.DB) MessageRepository
	Create(message *domain.Message) error
	FindByID(id uuid.UUID) (*domain.Message, error)
	FindByIDForUpdate(id uuid.UUID) (*domain.Message, error)
	FindByClientTempID(conversationID, senderID uuid.UUID, clientTempID string) (*domain.Message, error)
	UpdateStatus(id uuid.UUID, status domain.DeliveryStatus, deliveredAt, readAt *time.Time) error
	UpdatePayload(id uuid.UUID, payload domain.MessagePayload) error
	SoftDelete(id uuid.UUID, at time.Time) error
	LatestVisibleTime(conversationID uuid.UUID) (*time.Time, error)
	ListRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error)
	SaveVersion(version *domain.MessageVersion) error
	ListVersions(messageID uuid.UUID) ([]*domain.MessageVersion, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) WithTx(tx *gorm.DB) MessageRepository {
	return &messageRepository{db: tx}
}

func (r *messageRepository) Create(message *domain.Message) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindByID(id uuid.UUID) (*domain.Message, error) {
	return r.findOne(r.db.Where("id = ?", id))
}

// FindByIDForUpdate locks the row for a status advancement
func (r *messageRepository) FindByIDForUpdate(id uuid.UUID) (*domain.Message, error) {
	return r.findOne(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *messageRepository) FindByClientTempID(conversationID, senderID uuid.UUID, clientTempID string) (*domain.Message, error) {
	return r.findOne(r.db.Where(
		"conversation_id = ? AND sender_id = ? AND client_temp_id = ?",
		conversationID, senderID, clientTempID))
}

func (r *messageRepository) findOne(q *gorm.DB) (*domain.Message, error) {
	var message domain.Message
	err := q.First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) UpdateStatus(id uuid.UUID, status domain.DeliveryStatus, deliveredAt, readAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if deliveredAt != nil {
		updates["delivered_at"] = deliveredAt
	}
	if readAt != nil {
		updates["read_at"] = readAt
	}
	return r.db.Model(&domain.Message{}).Where("id = ?", id).Updates(updates).Error
}

func (r *messageRepository) UpdatePayload(id uuid.UUID, payload domain.MessagePayload) error {
	return r.db.Model(&domain.Message{}).Where("id = ?", id).Update("payload", payload).Error
}

func (r *messageRepository) SoftDelete(id uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": at}).Error
}

// LatestVisibleTime returns the creation time of the newest non-deleted
// message, or nil when none remain. Feeds the last_message_at recompute.
func (r *messageRepository) LatestVisibleTime(conversationID uuid.UUID) (*time.Time, error) {
	var message domain.Message
	err := r.db.Scopes(domain.Visible).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := message.CreatedAt
	return &t, nil
}

func (r *messageRepository) ListRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var messages []*domain.Message
	err := r.db.Scopes(domain.Visible).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// SaveVersion appends one edit snapshot; versions are never mutated
func (r *messageRepository) SaveVersion(version *domain.MessageVersion) error {
	return r.db.Create(version).Error
}

func (r *messageRepository) ListVersions(messageID uuid.UUID) ([]*domain.MessageVersion, error) {
	var versions []*domain.MessageVersion
	err := r.db.Where("message_id = ?", messageID).
		Order("edited_at ASC").
		Find(&versions).Error
	return versions, err
}
