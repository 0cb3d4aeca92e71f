package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// ParticipantRepository conversation membership data access
type ParticipantRepository interface {
	WithTx(tx *gorm.DB) ParticipantRepository
	Create(participant *domain.ConversationParticipant) error
	Find(conversationID, userID uuid.UUID) (*domain.ConversationParticipant, error)
	FindForUpdate(conversationID, userID uuid.UUID) (*domain.ConversationParticipant, error)
	ListByConversation(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error)
	ListActiveByConversation(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error)
	IncrementUnreadExcept(conversationID, senderID uuid.UUID) error
	ResetUnread(conversationID, userID uuid.UUID, readAt time.Time) error
	UpdateSettings(conversationID, userID uuid.UUID, settings domain.ParticipantSettings) error
	SetLeft(conversationID, userID uuid.UUID, at time.Time) error
	Rejoin(conversationID, userID uuid.UUID, at time.Time) error
}

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a ParticipantRepository
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) WithTx(tx *gorm.DB) ParticipantRepository {
	return &participantRepository{db: tx}
}

func (r *participantRepository) Create(participant *domain.ConversationParticipant) error {
	return r.db.Create(participant).Error
}

func (r *participantRepository) Find(conversationID, userID uuid.UUID) (*domain.ConversationParticipant, error) {
	return r.findOne(r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID))
}

// FindForUpdate locks the membership row; only meaningful inside a transaction
func (r *participantRepository) FindForUpdate(conversationID, userID uuid.UUID) (*domain.ConversationParticipant, error) {
	return r.findOne(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID))
}

func (r *participantRepository) findOne(q *gorm.DB) (*domain.ConversationParticipant, error) {
	var participant domain.ConversationParticipant
	err := q.First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepository) ListByConversation(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error) {
	var participants []*domain.ConversationParticipant
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

func (r *participantRepository) ListActiveByConversation(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error) {
	var participants []*domain.ConversationParticipant
	err := r.db.Where("conversation_id = ? AND left_at IS NULL", conversationID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

// IncrementUnreadExcept bumps unread by one for every active member
// other than the sender in a single UPDATE, so concurrent appends
// cannot lose increments.
func (r *participantRepository) IncrementUnreadExcept(conversationID, senderID uuid.UUID) error {
	return r.db.Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id <> ? AND left_at IS NULL", conversationID, senderID).
		Update("unread_count", gorm.Expr("unread_count + 1")).Error
}

func (r *participantRepository) ResetUnread(conversationID, userID uuid.UUID, readAt time.Time) error {
	return r.db.Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]interface{}{
			"unread_count": 0,
			"last_read_at": readAt,
		}).Error
}

func (r *participantRepository) UpdateSettings(conversationID, userID uuid.UUID, settings domain.ParticipantSettings) error {
	updates := map[string]interface{}{}
	if settings.Muted != nil {
		updates["muted"] = *settings.Muted
	}
	if settings.Pinned != nil {
		updates["pinned"] = *settings.Pinned
	}
	if settings.NotificationEnabled != nil {
		updates["notification_enabled"] = *settings.NotificationEnabled
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(updates).Error
}

func (r *participantRepository) SetLeft(conversationID, userID uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND left_at IS NULL", conversationID, userID).
		Update("left_at", at).Error
}

// Rejoin clears left_at and resets unread count for a re-added member
func (r *participantRepository) Rejoin(conversationID, userID uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]interface{}{
			"left_at":      nil,
			"joined_at":    at,
			"unread_count": 0,
		}).Error
}
