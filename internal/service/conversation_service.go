package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/repository"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
	"github.com/google/uuid"
)

// CreateJobChatInput describes a job-scoped conversation to open
type CreateJobChatInput struct {
	JobID        uuid.UUID
	JobTitle     string
	Participants []uuid.UUID
}

// ConversationService conversation roster and lifecycle rules
type ConversationService interface {
	FindOrCreateDirect(userA, userB uuid.UUID) (*domain.Conversation, error)
	CreateJobChat(input CreateJobChatInput) (*domain.Conversation, error)
	Get(conversationID uuid.UUID) (*domain.Conversation, error)
	AddParticipant(conversationID, userID uuid.UUID) error
	RemoveParticipant(conversationID, userID uuid.UUID) error
	UpdateSettings(conversationID, userID uuid.UUID, settings domain.ParticipantSettings) error
	Close(conversationID uuid.UUID) error
	Archive(conversationID uuid.UUID) error
	SoftDelete(conversationID uuid.UUID) error
	ListByParticipant(userID uuid.UUID, filter repository.ConversationFilter) ([]*domain.Conversation, int64, error)
	Participants(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error)
}

type conversationService struct {
	tx            TxRunner
	conversations repository.ConversationRepository
	participants  repository.ParticipantRepository
	users         repository.UserRepository
}

// NewConversationService creates a ConversationService
func NewConversationService(
	tx TxRunner,
	conversations repository.ConversationRepository,
	participants repository.ParticipantRepository,
	users repository.UserRepository,
) ConversationService {
	return &conversationService{
		tx:            tx,
		conversations: conversations,
		participants:  participants,
		users:         users,
	}
}

// FindOrCreateDirect returns the unique active direct conversation for
// the unordered pair, creating it plus both participant rows when none
// exists. The unique index on the normalized pair key makes concurrent
// calls collapse to one row; a lost race is resolved by re-querying.
func (s *conversationService) FindOrCreateDirect(userA, userB uuid.UUID) (*domain.Conversation, error) {
	if userA == userB {
		return nil, common.ValidationError("direct conversation requires two distinct participants")
	}
	for _, id := range []uuid.UUID{userA, userB} {
		user, err := s.users.FindByID(id)
		if err != nil {
			return nil, common.InternalError(err)
		}
		if user == nil {
			return nil, common.NotFoundError("user")
		}
	}

	key := domain.DirectPairKey(userA, userB)
	existing, err := s.conversations.FindByDirectKey(key)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		Type:      domain.ConversationDirect,
		DirectKey: &key,
		Status:    domain.ConversationActive,
	}
	err = s.tx.Transaction(func(tx *gorm.DB) error {
		if err := s.conversations.WithTx(tx).Create(conversation); err != nil {
			return err
		}
		participants := s.participants.WithTx(tx)
		for _, id := range []uuid.UUID{userA, userB} {
			p := &domain.ConversationParticipant{
				ConversationID:      conversation.ID,
				UserID:              id,
				NotificationEnabled: true,
				JoinedAt:            now,
			}
			if err := participants.Create(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if repository.IsDuplicateEntry(err) {
			winner, qerr := s.conversations.FindByDirectKey(key)
			if qerr != nil {
				return nil, common.InternalError(qerr)
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, common.InternalError(err)
	}

	pkglogger.GetLogger().Info().
		Str("conversation_id", conversation.ID.String()).
		Msg("direct conversation created")
	return conversation, nil
}

// CreateJobChat opens a job-scoped conversation with an initial roster
func (s *conversationService) CreateJobChat(input CreateJobChatInput) (*domain.Conversation, error) {
	if input.JobID == uuid.Nil {
		return nil, common.ValidationError("job chat requires a job reference")
	}
	if len(input.Participants) == 0 {
		return nil, common.ValidationError("job chat requires at least one participant")
	}
	seen := make(map[uuid.UUID]bool, len(input.Participants))
	for _, id := range input.Participants {
		if seen[id] {
			return nil, common.ValidationError("duplicate participant %s", id)
		}
		seen[id] = true
		user, err := s.users.FindByID(id)
		if err != nil {
			return nil, common.InternalError(err)
		}
		if user == nil {
			return nil, common.NotFoundError("user")
		}
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		Type:     domain.ConversationJobChat,
		JobID:    &input.JobID,
		JobTitle: input.JobTitle,
		Status:   domain.ConversationActive,
	}
	err := s.tx.Transaction(func(tx *gorm.DB) error {
		if err := s.conversations.WithTx(tx).Create(conversation); err != nil {
			return err
		}
		participants := s.participants.WithTx(tx)
		for _, id := range input.Participants {
			p := &domain.ConversationParticipant{
				ConversationID:      conversation.ID,
				UserID:              id,
				NotificationEnabled: true,
				JoinedAt:            now,
			}
			if err := participants.Create(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, common.InternalError(err)
	}
	return conversation, nil
}

func (s *conversationService) Get(conversationID uuid.UUID) (*domain.Conversation, error) {
	conversation, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if conversation == nil {
		return nil, common.NotFoundError("conversation")
	}
	return conversation, nil
}

// AddParticipant adds a user to the roster; re-adding a left member
// clears leftAt and resets their unread count to zero
func (s *conversationService) AddParticipant(conversationID, userID uuid.UUID) error {
	conversation, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	if conversation.Type == domain.ConversationDirect {
		return common.ValidationError("direct conversations have a fixed pair of participants")
	}
	user, err := s.users.FindByID(userID)
	if err != nil {
		return common.InternalError(err)
	}
	if user == nil {
		return common.NotFoundError("user")
	}

	existing, err := s.participants.Find(conversationID, userID)
	if err != nil {
		return common.InternalError(err)
	}
	now := time.Now().UTC()
	if existing != nil {
		if existing.ActiveMember() {
			return nil
		}
		if err := s.participants.Rejoin(conversationID, userID, now); err != nil {
			return common.InternalError(err)
		}
		return nil
	}

	p := &domain.ConversationParticipant{
		ConversationID:      conversationID,
		UserID:              userID,
		NotificationEnabled: true,
		JoinedAt:            now,
	}
	if err := s.participants.Create(p); err != nil {
		if repository.IsDuplicateEntry(err) {
			// Concurrent add; the membership exists, which is the goal.
			return nil
		}
		return common.InternalError(err)
	}
	return nil
}

// RemoveParticipant sets leftAt; a left member stops accumulating
// unread counts and is excluded from fan-out
func (s *conversationService) RemoveParticipant(conversationID, userID uuid.UUID) error {
	existing, err := s.participants.Find(conversationID, userID)
	if err != nil {
		return common.InternalError(err)
	}
	if existing == nil {
		return common.NotFoundError("participant")
	}
	if !existing.ActiveMember() {
		return nil
	}
	if err := s.participants.SetLeft(conversationID, userID, time.Now().UTC()); err != nil {
		return common.InternalError(err)
	}
	return nil
}

func (s *conversationService) UpdateSettings(conversationID, userID uuid.UUID, settings domain.ParticipantSettings) error {
	existing, err := s.participants.Find(conversationID, userID)
	if err != nil {
		return common.InternalError(err)
	}
	if existing == nil {
		return common.NotFoundError("participant")
	}
	if err := s.participants.UpdateSettings(conversationID, userID, settings); err != nil {
		return common.InternalError(err)
	}
	return nil
}

// Close sets status closed and closedAt; closing an already-closed
// conversation is a no-op
func (s *conversationService) Close(conversationID uuid.UUID) error {
	conversation, err := s.Get(conversationID)
	if err != nil {
		return err
	}
	if conversation.Status == domain.ConversationClosed {
		return nil
	}
	now := time.Now().UTC()
	if err := s.conversations.SetStatus(conversationID, domain.ConversationClosed, &now); err != nil {
		return common.InternalError(err)
	}
	return nil
}

func (s *conversationService) Archive(conversationID uuid.UUID) error {
	if _, err := s.Get(conversationID); err != nil {
		return err
	}
	if err := s.conversations.SetStatus(conversationID, domain.ConversationArchived, nil); err != nil {
		return common.InternalError(err)
	}
	return nil
}

func (s *conversationService) SoftDelete(conversationID uuid.UUID) error {
	if _, err := s.Get(conversationID); err != nil {
		return err
	}
	if err := s.conversations.SoftDelete(conversationID, time.Now().UTC()); err != nil {
		return common.InternalError(err)
	}
	return nil
}

func (s *conversationService) ListByParticipant(userID uuid.UUID, filter repository.ConversationFilter) ([]*domain.Conversation, int64, error) {
	conversations, total, err := s.conversations.ListByParticipant(userID, filter)
	if err != nil {
		return nil, 0, common.InternalError(err)
	}
	return conversations, total, nil
}

func (s *conversationService) Participants(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error) {
	if _, err := s.Get(conversationID); err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByConversation(conversationID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	return participants, nil
}
