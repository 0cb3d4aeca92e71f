package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/event"
	"github.com/joblink/chat-backend/internal/repository"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
	"github.com/google/uuid"
)

// AppendInput describes a message to append to a conversation
type AppendInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Type           domain.MessageType
	Payload        domain.MessagePayload
	ClientTempID   *string
}

// MessageService the message ledger: append, delivery tracking, edits,
// tombstones. Emits message.created on the bus after each accepted append.
type MessageService interface {
	Append(input AppendInput) (*domain.Message, error)
	MarkDelivered(messageID uuid.UUID) error
	MarkRead(messageID, readerID uuid.UUID) error
	Edit(messageID uuid.UUID, newPayload domain.MessagePayload) (*domain.Message, error)
	SoftDelete(messageID uuid.UUID) error
	ListRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error)
	Versions(messageID uuid.UUID) ([]*domain.MessageVersion, error)
}

type messageService struct {
	tx            TxRunner
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	participants  repository.ParticipantRepository
	bus           *event.Bus
}

// NewMessageService creates a MessageService
func NewMessageService(
	tx TxRunner,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	participants repository.ParticipantRepository,
	bus *event.Bus,
) MessageService {
	return &messageService{
		tx:            tx,
		messages:      messages,
		conversations: conversations,
		participants:  participants,
		bus:           bus,
	}
}

// Append validates sender membership, deduplicates on clientTempID,
// persists the message as sent, recomputes the conversation's
// lastMessageAt, and increments unread for every other active member.
func (s *messageService) Append(input AppendInput) (*domain.Message, error) {
	if !input.Type.Valid() {
		return nil, common.ValidationError("unknown message type %q", input.Type)
	}
	if err := input.Payload.Validate(input.Type); err != nil {
		return nil, common.ValidationError("%v", err)
	}

	conversation, err := s.conversations.FindByID(input.ConversationID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if conversation == nil {
		return nil, common.NotFoundError("conversation")
	}
	if conversation.Status != domain.ConversationActive {
		return nil, common.ValidationError("conversation is %s", conversation.Status)
	}

	participant, err := s.participants.Find(input.ConversationID, input.SenderID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if participant == nil || !participant.ActiveMember() {
		return nil, common.ErrNotParticipant
	}

	if input.ClientTempID != nil && *input.ClientTempID != "" {
		existing, err := s.messages.FindByClientTempID(input.ConversationID, input.SenderID, *input.ClientTempID)
		if err != nil {
			return nil, common.InternalError(err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	message := &domain.Message{
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Type:           input.Type,
		Payload:        input.Payload,
		Status:         domain.StatusSent,
		ClientTempID:   input.ClientTempID,
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		messages := s.messages.WithTx(tx)
		if err := messages.Create(message); err != nil {
			return err
		}
		// Recompute, not increment: the cache must equal the newest
		// visible message time even after interleaved deletes.
		latest, err := messages.LatestVisibleTime(input.ConversationID)
		if err != nil {
			return err
		}
		if err := s.conversations.WithTx(tx).SetLastMessageAt(input.ConversationID, latest); err != nil {
			return err
		}
		return s.participants.WithTx(tx).IncrementUnreadExcept(input.ConversationID, input.SenderID)
	})
	if err != nil {
		if repository.IsDuplicateEntry(err) && input.ClientTempID != nil {
			// Retried send lost the insert race; the first attempt's row wins.
			existing, qerr := s.messages.FindByClientTempID(input.ConversationID, input.SenderID, *input.ClientTempID)
			if qerr != nil {
				return nil, common.InternalError(qerr)
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, common.InternalError(err)
	}

	if s.bus != nil {
		s.bus.Publish("message-ledger", event.TopicMessageCreated, map[string]interface{}{
			"conversation_id": input.ConversationID.String(),
			"sender_id":       input.SenderID.String(),
			"message_id":      message.ID.String(),
			"message_type":    string(input.Type),
		})
	}
	return message, nil
}

// MarkDelivered advances sent to delivered. Already delivered or read
// is an idempotent no-op; there is no earlier state to guard, but an
// unknown status is rejected rather than trusted.
func (s *messageService) MarkDelivered(messageID uuid.UUID) error {
	return s.tx.Transaction(func(tx *gorm.DB) error {
		messages := s.messages.WithTx(tx)
		message, err := messages.FindByIDForUpdate(messageID)
		if err != nil {
			return common.InternalError(err)
		}
		if message == nil || message.Deleted {
			return common.NotFoundError("message")
		}
		switch message.Status {
		case domain.StatusDelivered, domain.StatusRead:
			return nil
		case domain.StatusSent:
			now := time.Now().UTC()
			return messages.UpdateStatus(messageID, domain.StatusDelivered, &now, nil)
		default:
			return common.TransitionError(string(message.Status), string(domain.StatusDelivered))
		}
	})
}

// MarkRead advances the message to read and, in the same transaction,
// zeroes the reader's unread count and stamps lastReadAt. The reader
// must never observe a non-zero unread count for a conversation whose
// latest message they have read.
func (s *messageService) MarkRead(messageID, readerID uuid.UUID) error {
	return s.tx.Transaction(func(tx *gorm.DB) error {
		messages := s.messages.WithTx(tx)
		message, err := messages.FindByIDForUpdate(messageID)
		if err != nil {
			return common.InternalError(err)
		}
		if message == nil || message.Deleted {
			return common.NotFoundError("message")
		}

		participant, err := s.participants.WithTx(tx).Find(message.ConversationID, readerID)
		if err != nil {
			return common.InternalError(err)
		}
		if participant == nil {
			return common.ErrNotParticipant
		}

		now := time.Now().UTC()
		if message.Status.CanAdvance(domain.StatusRead) {
			if err := messages.UpdateStatus(messageID, domain.StatusRead, nil, &now); err != nil {
				return common.InternalError(err)
			}
		}
		if err := s.participants.WithTx(tx).ResetUnread(message.ConversationID, readerID, now); err != nil {
			return common.InternalError(err)
		}
		return nil
	})
}

// Edit snapshots the prior payload into a version row, then overwrites
// the live payload
func (s *messageService) Edit(messageID uuid.UUID, newPayload domain.MessagePayload) (*domain.Message, error) {
	message, err := s.messages.FindByID(messageID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if message == nil || message.Deleted {
		return nil, common.NotFoundError("message")
	}
	if err := newPayload.Validate(message.Type); err != nil {
		return nil, common.ValidationError("%v", err)
	}

	now := time.Now().UTC()
	err = s.tx.Transaction(func(tx *gorm.DB) error {
		messages := s.messages.WithTx(tx)
		if err := messages.SaveVersion(&domain.MessageVersion{
			MessageID: messageID,
			Payload:   message.Payload,
			EditedAt:  now,
		}); err != nil {
			return err
		}
		return messages.UpdatePayload(messageID, newPayload)
	})
	if err != nil {
		return nil, common.InternalError(err)
	}
	message.Payload = newPayload
	return message, nil
}

// SoftDelete sets the tombstone and recomputes the conversation's
// lastMessageAt from the remaining visible messages
func (s *messageService) SoftDelete(messageID uuid.UUID) error {
	message, err := s.messages.FindByID(messageID)
	if err != nil {
		return common.InternalError(err)
	}
	if message == nil {
		return common.NotFoundError("message")
	}
	if message.Deleted {
		return nil
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		messages := s.messages.WithTx(tx)
		if err := messages.SoftDelete(messageID, time.Now().UTC()); err != nil {
			return err
		}
		// The deleted message need not have been the latest, so this is
		// a full recompute rather than a decrement.
		latest, err := messages.LatestVisibleTime(message.ConversationID)
		if err != nil {
			return err
		}
		return s.conversations.WithTx(tx).SetLastMessageAt(message.ConversationID, latest)
	})
	if err != nil {
		return common.InternalError(err)
	}

	pkglogger.GetLogger().Info().
		Str("message_id", messageID.String()).
		Str("conversation_id", message.ConversationID.String()).
		Msg("message soft-deleted")
	return nil
}

func (s *messageService) ListRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	conversation, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if conversation == nil {
		return nil, common.NotFoundError("conversation")
	}
	messages, err := s.messages.ListRecent(conversationID, limit)
	if err != nil {
		return nil, common.InternalError(err)
	}
	return messages, nil
}

// Versions returns the edit history for a message, oldest first. The
// identifier of a soft-deleted message stays stable, so its history
// remains reachable for audit.
func (s *messageService) Versions(messageID uuid.UUID) ([]*domain.MessageVersion, error) {
	message, err := s.messages.FindByID(messageID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	if message == nil {
		return nil, common.NotFoundError("message")
	}
	versions, err := s.messages.ListVersions(messageID)
	if err != nil {
		return nil, common.InternalError(err)
	}
	return versions, nil
}
