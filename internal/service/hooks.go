package service

import (
	"context"
	"unicode/utf8"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/event"
	"github.com/joblink/chat-backend/internal/repository"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
	"github.com/google/uuid"
)

// DispatchHooks bridges domain events on the bus into the dispatch
// pipeline: it computes the intended recipients and the template
// payload context, then hands off per app.
type DispatchHooks struct {
	participants repository.ParticipantRepository
	messages     repository.MessageRepository
	users        repository.UserRepository
	dispatch     DispatchService
	appIDs       []string
}

// NewDispatchHooks creates the hook set for the given applications
func NewDispatchHooks(
	participants repository.ParticipantRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	dispatch DispatchService,
	appIDs []string,
) *DispatchHooks {
	return &DispatchHooks{
		participants: participants,
		messages:     messages,
		users:        users,
		dispatch:     dispatch,
		appIDs:       appIDs,
	}
}

// Subscribe registers the hooks on the bus
func (h *DispatchHooks) Subscribe(bus *event.Bus) {
	bus.Subscribe("dispatch-pipeline", event.TopicMessageCreated, h.OnMessageCreated)
	bus.Subscribe("dispatch-pipeline", event.TopicJobStatusChanged, h.OnJobStatusChanged)
}

// OnMessageCreated fans a new message out to every active participant
// other than the sender who has conversation notifications on and the
// conversation unmuted. Per-user event preferences are applied later by
// the dispatcher itself.
func (h *DispatchHooks) OnMessageCreated(evt event.Event) {
	conversationID, ok1 := payloadUUID(evt, "conversation_id")
	senderID, ok2 := payloadUUID(evt, "sender_id")
	messageID, ok3 := payloadUUID(evt, "message_id")
	if !ok1 || !ok2 || !ok3 {
		pkglogger.Error("message.created event with malformed payload: %v", evt.Payload)
		return
	}

	participants, err := h.participants.ListActiveByConversation(conversationID)
	if err != nil {
		pkglogger.Error("recipient lookup failed for conversation %s: %v", conversationID, err)
		return
	}
	recipients := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		if p.UserID == senderID || p.Muted || !p.NotificationEnabled {
			continue
		}
		recipients = append(recipients, p.UserID)
	}
	if len(recipients) == 0 {
		return
	}

	payload := map[string]string{
		"conversation_id": conversationID.String(),
		"message_id":      messageID.String(),
	}
	if sender, err := h.users.FindByID(senderID); err == nil && sender != nil {
		payload["sender_name"] = sender.Name
	}
	if message, err := h.messages.FindByID(messageID); err == nil && message != nil {
		payload["preview"] = preview(message.Payload, 80)
	}

	for _, appID := range h.appIDs {
		if err := h.dispatch.Dispatch(context.Background(), "new_message", appID, payload, recipients); err != nil {
			pkglogger.Error("dispatch of new_message for app %s failed: %v", appID, err)
		}
	}
}

// OnJobStatusChanged dispatches a job status update to the recipients
// named by the producer
func (h *DispatchHooks) OnJobStatusChanged(evt event.Event) {
	payload := map[string]string{}
	for key, value := range evt.Payload {
		if s, ok := value.(string); ok {
			payload[key] = s
		}
	}

	rawRecipients, _ := evt.Payload["recipients"].([]string)
	recipients := make([]uuid.UUID, 0, len(rawRecipients))
	for _, raw := range rawRecipients {
		if id, err := uuid.Parse(raw); err == nil {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}

	for _, appID := range h.appIDs {
		if err := h.dispatch.Dispatch(context.Background(), "job_status_changed", appID, payload, recipients); err != nil {
			pkglogger.Error("dispatch of job_status_changed for app %s failed: %v", appID, err)
		}
	}
}

func payloadUUID(evt event.Event, key string) (uuid.UUID, bool) {
	raw, ok := evt.Payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func preview(payload domain.MessagePayload, max int) string {
	text := payload.Text
	if text == "" && payload.Attachment != nil {
		text = payload.Attachment.Name
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	// Truncate on a rune boundary so multibyte text stays valid UTF-8.
	return string([]rune(text)[:max]) + "…"
}
