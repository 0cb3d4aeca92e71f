package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// MockMessageService is a mock implementation of MessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Append(input AppendInput) (*domain.Message, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageService) MarkDelivered(messageID uuid.UUID) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *MockMessageService) MarkRead(messageID, readerID uuid.UUID) error {
	args := m.Called(messageID, readerID)
	return args.Error(0)
}

func (m *MockMessageService) Edit(messageID uuid.UUID, newPayload domain.MessagePayload) (*domain.Message, error) {
	args := m.Called(messageID, newPayload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageService) SoftDelete(messageID uuid.UUID) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *MockMessageService) ListRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	args := m.Called(conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageService) Versions(messageID uuid.UUID) ([]*domain.MessageVersion, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MessageVersion), args.Error(1)
}

type fakeResponder struct {
	text    string
	sources []string
	err     error

	gotQuery   string
	gotHistory []string
}

func (f *fakeResponder) Generate(_ context.Context, query string, history []string) (string, []string, error) {
	f.gotQuery = query
	f.gotHistory = history
	return f.text, f.sources, f.err
}

func textMessage(text string) *domain.Message {
	msg := &domain.Message{Type: domain.MessageText, Payload: domain.MessagePayload{Text: text}}
	msg.ID = uuid.New()
	return msg
}

func TestAssistantReply_PostsSystemMessage(t *testing.T) {
	conversationID := uuid.New()
	assistantID := uuid.New()

	responder := &fakeResponder{text: "The plumber arrives at 9."}
	messages := new(MockMessageService)

	// Newest-first, as the ledger lists them.
	messages.On("ListRecent", conversationID, 20).Return([]*domain.Message{
		textMessage("when does the plumber arrive?"),
		textMessage("booking confirmed"),
	}, nil)

	posted := textMessage("The plumber arrives at 9.")
	posted.Type = domain.MessageSystem
	messages.On("Append", mock.MatchedBy(func(input AppendInput) bool {
		return input.Type == domain.MessageSystem &&
			input.SenderID == assistantID &&
			input.Payload.Text == "The plumber arrives at 9."
	})).Return(posted, nil)

	svc := NewAssistantService(responder, messages, time.Second)
	message, err := svc.Reply(context.Background(), conversationID, assistantID, "when?")

	assert.NoError(t, err)
	assert.Equal(t, domain.MessageSystem, message.Type)
	// History must be chronological, oldest first.
	assert.Equal(t, []string{"booking confirmed", "when does the plumber arrive?"}, responder.gotHistory)
	messages.AssertExpectations(t)
}

func TestAssistantReply_AppendsSources(t *testing.T) {
	conversationID := uuid.New()
	assistantID := uuid.New()

	responder := &fakeResponder{text: "Cancellation is free within 24h.", sources: []string{"terms.pdf", "faq#12"}}
	messages := new(MockMessageService)

	messages.On("ListRecent", conversationID, 20).Return(nil, nil)

	var sent string
	messages.On("Append", mock.AnythingOfType("AppendInput")).
		Run(func(args mock.Arguments) {
			sent = args.Get(0).(AppendInput).Payload.Text
		}).Return(textMessage("x"), nil)

	svc := NewAssistantService(responder, messages, time.Second)
	_, err := svc.Reply(context.Background(), conversationID, assistantID, "cancellation policy?")

	assert.NoError(t, err)
	assert.Contains(t, sent, "Sources: terms.pdf, faq#12")
}

func TestAssistantReply_EmptyQuery(t *testing.T) {
	svc := NewAssistantService(&fakeResponder{}, new(MockMessageService), time.Second)

	_, err := svc.Reply(context.Background(), uuid.New(), uuid.New(), "   ")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAssistantReply_GenerationTimeout(t *testing.T) {
	conversationID := uuid.New()
	messages := new(MockMessageService)
	messages.On("ListRecent", conversationID, 20).Return(nil, nil)

	responder := &fakeResponder{err: context.DeadlineExceeded}

	svc := NewAssistantService(responder, messages, time.Second)
	_, err := svc.Reply(context.Background(), conversationID, uuid.New(), "hello?")

	assert.ErrorIs(t, err, common.ErrTimeout)
	messages.AssertNotCalled(t, "Append", mock.Anything)
}
