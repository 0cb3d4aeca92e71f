package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// Responder is the opaque language-model collaborator: it turns a query
// plus conversation history into a reply and its source references.
type Responder interface {
	Generate(ctx context.Context, query string, history []string) (text string, sources []string, err error)
}

// AssistantService posts generated replies into a conversation through
// the message ledger, so every ledger invariant (unread counts,
// lastMessageAt, fan-out) holds for assistant messages too.
type AssistantService interface {
	Reply(ctx context.Context, conversationID, assistantUserID uuid.UUID, query string) (*domain.Message, error)
}

type assistantService struct {
	responder Responder
	messages  MessageService
	timeout   time.Duration
	history   int
}

// NewAssistantService creates an AssistantService. The responder call
// is bounded by the given timeout.
func NewAssistantService(responder Responder, messages MessageService, timeout time.Duration) AssistantService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &assistantService{
		responder: responder,
		messages:  messages,
		timeout:   timeout,
		history:   20,
	}
}

func (s *assistantService) Reply(ctx context.Context, conversationID, assistantUserID uuid.UUID, query string) (*domain.Message, error) {
	if strings.TrimSpace(query) == "" {
		return nil, common.ValidationError("query must not be empty")
	}
	if s.responder == nil {
		return nil, common.ValidationError("assistant responder is not configured")
	}

	recent, err := s.messages.ListRecent(conversationID, s.history)
	if err != nil {
		return nil, err
	}
	// ListRecent is newest-first; the responder wants chronological order.
	history := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Payload.Text != "" {
			history = append(history, recent[i].Payload.Text)
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, sources, err := s.responder.Generate(genCtx, query, history)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.TimeoutError("response generation", err)
		}
		return nil, common.InternalError(err)
	}

	if len(sources) > 0 {
		text = fmt.Sprintf("%s\n\nSources: %s", text, strings.Join(sources, ", "))
	}

	return s.messages.Append(AppendInput{
		ConversationID: conversationID,
		SenderID:       assistantUserID,
		Type:           domain.MessageSystem,
		Payload:        domain.MessagePayload{Text: text},
	})
}
