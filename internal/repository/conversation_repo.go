package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// ConversationFilter narrows ListByParticipant results
type ConversationFilter struct {
	Type   domain.ConversationType
	Status domain.ConversationStatus
	JobID  *uuid.UUID
	Page   int
	Limit  int
}

// ConversationRepository conversation data access
type ConversationRepository interface {
	WithTx(tx *gorm.DB) ConversationRepository
	Create(conversation *domain.Conversation) error
	FindByID(id uuid.UUID) (*domain.Conversation, error)
	FindByIDForUpdate(id uuid.UUID) (*domain.Conversation, error)
	FindByDirectKey(key string) (*domain.Conversation, error)
	SetStatus(id uuid.UUID, status domain.ConversationStatus, closedAt *time.Time) error
	SetLastMessageAt(id uuid.UUID, at *time.Time) error
	SoftDelete(id uuid.UUID, at time.Time) error
	ListByParticipant(userID uuid.UUID, filter ConversationFilter) ([]*domain.Conversation, int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) WithTx(tx *gorm.DB) ConversationRepository {
	return &conversationRepository{db: tx}
}

func (r *conversationRepository) Create(conversation *domain.Conversation) error {
	return r.db.Create(conversation).Error
}

func (r *conversationRepository) FindByID(id uuid.UUID) (*domain.Conversation, error) {
	return r.findOne(r.db.Scopes(domain.Visible).Where("id = ?", id))
}

// FindByIDForUpdate locks the row; only meaningful inside a transaction
func (r *conversationRepository) FindByIDForUpdate(id uuid.UUID) (*domain.Conversation, error) {
	return r.findOne(r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(domain.Visible).
		Where("id = ?", id))
}

func (r *conversationRepository) FindByDirectKey(key string) (*domain.Conversation, error) {
	return r.findOne(r.db.Scopes(domain.Visible).Where("direct_key = ?", key))
}

func (r *conversationRepository) findOne(q *gorm.DB) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := q.First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) SetStatus(id uuid.UUID, status domain.ConversationStatus, closedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if closedAt != nil {
		updates["closed_at"] = closedAt
	}
	return r.db.Model(&domain.Conversation{}).Where("id = ?", id).Updates(updates).Error
}

func (r *conversationRepository) SetLastMessageAt(id uuid.UUID, at *time.Time) error {
	return r.db.Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

func (r *conversationRepository) SoftDelete(id uuid.UUID, at time.Time) error {
	return r.db.Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": at}).Error
}

// ListByParticipant returns visible conversations where the user is an
// active participant, newest activity first
func (r *conversationRepository) ListByParticipant(userID uuid.UUID, filter ConversationFilter) ([]*domain.Conversation, int64, error) {
	q := r.db.Model(&domain.Conversation{}).
		Scopes(domain.Visible).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ? AND cp.left_at IS NULL", userID)

	if filter.Type != "" {
		q = q.Where("conversations.type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("conversations.status = ?", filter.Status)
	}
	if filter.JobID != nil {
		q = q.Where("conversations.job_id = ?", *filter.JobID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var conversations []*domain.Conversation
	err := q.Order("conversations.last_message_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&conversations).Error
	return conversations, total, err
}
