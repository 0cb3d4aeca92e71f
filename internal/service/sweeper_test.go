package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

func TestSweep_ClosesStaleSessions(t *testing.T) {
	sessions := new(MockSessionRepository)
	identity := new(MockIdentityService)
	logs := new(MockNotificationLogRepository)
	dispatch := new(MockDispatchService)

	stale := &domain.Session{UserID: uuid.New(), LastActivityAt: time.Now().Add(-time.Hour)}
	stale.ID = uuid.New()

	sessions.On("FindStale", mock.AnythingOfType("time.Time")).Return([]*domain.Session{stale}, nil)
	identity.On("CloseSession", mock.Anything, stale.ID, domain.DisconnectStale).Return(nil)
	logs.On("FindStuckQueued", mock.AnythingOfType("time.Time"), 100).Return(nil, nil)

	sweeper := NewSweeper(SweeperConfig{
		SessionStaleAge: 30 * time.Minute,
		QueuedRetryAge:  5 * time.Minute,
	}, sessions, identity, logs, dispatch)
	sweeper.Sweep(context.Background())

	identity.AssertExpectations(t)
}

func TestSweep_RetriesStuckNotifications(t *testing.T) {
	sessions := new(MockSessionRepository)
	identity := new(MockIdentityService)
	logs := new(MockNotificationLogRepository)
	dispatch := new(MockDispatchService)

	stuck := &domain.NotificationLog{
		RecipientID: uuid.New(),
		EventKey:    "new_message",
		Channel:     domain.ChannelPush,
		Status:      domain.NotificationQueued,
	}
	stuck.ID = uuid.New()

	sessions.On("FindStale", mock.AnythingOfType("time.Time")).Return(nil, nil)
	logs.On("FindStuckQueued", mock.AnythingOfType("time.Time"), 50).Return([]*domain.NotificationLog{stuck}, nil)
	dispatch.On("RetryQueued", mock.Anything, stuck).Return(nil)

	sweeper := NewSweeper(SweeperConfig{
		SessionStaleAge: 30 * time.Minute,
		QueuedRetryAge:  5 * time.Minute,
		RetryBatchSize:  50,
	}, sessions, identity, logs, dispatch)
	sweeper.Sweep(context.Background())

	dispatch.AssertExpectations(t)
}

func TestSweep_NothingToDo(t *testing.T) {
	sessions := new(MockSessionRepository)
	identity := new(MockIdentityService)
	logs := new(MockNotificationLogRepository)
	dispatch := new(MockDispatchService)

	sessions.On("FindStale", mock.AnythingOfType("time.Time")).Return(nil, nil)
	logs.On("FindStuckQueued", mock.AnythingOfType("time.Time"), 100).Return(nil, nil)

	sweeper := NewSweeper(SweeperConfig{
		SessionStaleAge: 30 * time.Minute,
		QueuedRetryAge:  5 * time.Minute,
	}, sessions, identity, logs, dispatch)
	sweeper.Sweep(context.Background())

	identity.AssertNotCalled(t, "CloseSession", mock.Anything, mock.Anything, mock.Anything)
	dispatch.AssertNotCalled(t, "RetryQueued", mock.Anything, mock.Anything)
}
