package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/repository"
	"github.com/google/uuid"
)

// fakeTxRunner invokes the closure with a nil tx so mock repositories
// can return themselves from WithTx
type fakeTxRunner struct{}

func (fakeTxRunner) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	return fc(nil)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) WithTx(_ *gorm.DB) repository.UserRepository { return m }

func (m *MockUserRepository) Create(user *domain.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByExternalID(externalID string) (*domain.User, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SetPresence(id uuid.UUID, online bool, lastSeen time.Time) error {
	args := m.Called(id, online, lastSeen)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) WithTx(_ *gorm.DB) repository.SessionRepository { return m }

func (m *MockSessionRepository) Create(session *domain.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(id uuid.UUID) (*domain.Session, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) FindActiveByUser(userID uuid.UUID) ([]*domain.Session, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) CountActiveByUser(userID uuid.UUID) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) Touch(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockSessionRepository) Close(id uuid.UUID, reason domain.DisconnectReason, at time.Time) error {
	args := m.Called(id, reason, at)
	return args.Error(0)
}

func (m *MockSessionRepository) FindStale(lastActivityBefore time.Time) ([]*domain.Session, error) {
	args := m.Called(lastActivityBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

// MockDeviceTokenRepository is a mock implementation of DeviceTokenRepository
type MockDeviceTokenRepository struct {
	mock.Mock
}

func (m *MockDeviceTokenRepository) WithTx(_ *gorm.DB) repository.DeviceTokenRepository { return m }

func (m *MockDeviceTokenRepository) Create(token *domain.DeviceToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockDeviceTokenRepository) FindByToken(token string) (*domain.DeviceToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceToken), args.Error(1)
}

func (m *MockDeviceTokenRepository) FindActiveByUser(userID uuid.UUID) ([]*domain.DeviceToken, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeviceToken), args.Error(1)
}

func (m *MockDeviceTokenRepository) SetActive(id uuid.UUID, active bool) error {
	args := m.Called(id, active)
	return args.Error(0)
}

func (m *MockDeviceTokenRepository) Reassign(id uuid.UUID, userID uuid.UUID, platform domain.DevicePlatform) error {
	args := m.Called(id, userID, platform)
	return args.Error(0)
}

func (m *MockDeviceTokenRepository) AppendHistory(entry *domain.TokenHistory) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockDeviceTokenRepository) HistoryByToken(tokenID uuid.UUID) ([]*domain.TokenHistory, error) {
	args := m.Called(tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TokenHistory), args.Error(1)
}

// MockConversationRepository is a mock implementation of ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) WithTx(_ *gorm.DB) repository.ConversationRepository {
	return m
}

func (m *MockConversationRepository) Create(conversation *domain.Conversation) error {
	args := m.Called(conversation)
	return args.Error(0)
}

func (m *MockConversationRepository) FindByID(id uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) FindByIDForUpdate(id uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) FindByDirectKey(key string) (*domain.Conversation, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) SetStatus(id uuid.UUID, status domain.ConversationStatus, closedAt *time.Time) error {
	args := m.Called(id, status, closedAt)
	return args.Error(0)
}

func (m *MockConversationRepository) SetLastMessageAt(id uuid.UUID, at *time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockConversationRepository) SoftDelete(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockConversationRepository) ListByParticipant(userID uuid.UUID, filter repository.ConversationFilter) ([]*domain.Conversation, int64, error) {
	args := m.Called(userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Conversation), args.Get(1).(int64), args.Error(2)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) WithTx(_ *gorm.DB) repository.ParticipantRepository { return m }

func (m *MockParticipantRepository) Create(participant *domain.ConversationParticipant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) Find(conversationID, userID uuid.UUID) (*domain.ConversationParticipant, error) {
	args := m.Called(conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversationParticipant), args.Error(1)
}

func (m *MockParticipantRepository) FindForUpdate(conversationID, userID uuid.UUID) (*domain.ConversationParticipant, error) {
	args := m.Called(conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversationParticipant), args.Error(1)
}

func (m *MockParticipantRepository) ListByConversation(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error) {
	args := m.Called(conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ConversationParticipant), args.Error(1)
}

func (m *MockParticipantRepository) ListActiveByConversation(conversationID uuid.UUID) ([]*domain.ConversationParticipant, error) {
	args := m.Called(conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ConversationParticipant), args.Error(1)
}

func (m *MockParticipantRepository) IncrementUnreadExcept(conversationID, senderID uuid.UUID) error {
	args := m.Called(conversationID, senderID)
	return args.Error(0)
}

func (m *MockParticipantRepository) ResetUnread(conversationID, userID uuid.UUID, readAt time.Time) error {
	args := m.Called(conversationID, userID, readAt)
	return args.Error(0)
}

func (m *MockParticipantRepository) UpdateSettings(conversationID, userID uuid.UUID, settings domain.ParticipantSettings) error {
	args := m.Called(conversationID, userID, settings)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetLeft(conversationID, userID uuid.UUID, at time.Time) error {
	args := m.Called(conversationID, userID, at)
	return args.Error(0)
}

func (m *MockParticipantRepository) Rejoin(conversationID, userID uuid.UUID, at time.Time) error {
	args := m.Called(conversationID, userID, at)
	return args.Error(0)
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) WithTx(_ *gorm.DB) repository.MessageRepository { return m }

func (m *MockMessageRepository) Create(message *domain.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageRepository) FindByID(id uuid.UUID) (*domain.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByIDForUpdate(id uuid.UUID) (*domain.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByClientTempID(conversationID, senderID uuid.UUID, clientTempID string) (*domain.Message, error) {
	args := m.Called(conversationID, senderID, clientTempID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateStatus(id uuid.UUID, status domain.DeliveryStatus, deliveredAt, readAt *time.Time) error {
	args := m.Called(id, status, deliveredAt, readAt)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdatePayload(id uuid.UUID, payload domain.MessagePayload) error {
	args := m.Called(id, payload)
	return args.Error(0)
}

func (m *MockMessageRepository) SoftDelete(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockMessageRepository) LatestVisibleTime(conversationID uuid.UUID) (*time.Time, error) {
	args := m.Called(conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockMessageRepository) ListRecent(conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	args := m.Called(conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) SaveVersion(version *domain.MessageVersion) error {
	args := m.Called(version)
	return args.Error(0)
}

func (m *MockMessageRepository) ListVersions(messageID uuid.UUID) ([]*domain.MessageVersion, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MessageVersion), args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) WithTx(_ *gorm.DB) repository.CatalogRepository { return m }

func (m *MockCatalogRepository) CreateEvent(event *domain.NotificationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindEventByKey(key string) (*domain.NotificationEvent, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationEvent), args.Error(1)
}

func (m *MockCatalogRepository) CreateTemplate(template *domain.NotificationTemplate) error {
	args := m.Called(template)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindTemplate(eventKey, appID string) (*domain.NotificationTemplate, error) {
	args := m.Called(eventKey, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationTemplate), args.Error(1)
}

func (m *MockCatalogRepository) FindPreference(userID uuid.UUID, eventKey, appID string) (*domain.NotificationPreference, error) {
	args := m.Called(userID, eventKey, appID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationPreference), args.Error(1)
}

func (m *MockCatalogRepository) UpsertPreference(pref *domain.NotificationPreference) error {
	args := m.Called(pref)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListPreferencesByUser(userID uuid.UUID) ([]*domain.NotificationPreference, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NotificationPreference), args.Error(1)
}

// MockNotificationLogRepository is a mock implementation of NotificationLogRepository
type MockNotificationLogRepository struct {
	mock.Mock
}

func (m *MockNotificationLogRepository) WithTx(_ *gorm.DB) repository.NotificationLogRepository {
	return m
}

func (m *MockNotificationLogRepository) Create(log *domain.NotificationLog) error {
	args := m.Called(log)
	return args.Error(0)
}

func (m *MockNotificationLogRepository) FindByID(id uuid.UUID) (*domain.NotificationLog, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationLog), args.Error(1)
}

func (m *MockNotificationLogRepository) MarkSent(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockNotificationLogRepository) MarkDelivered(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockNotificationLogRepository) MarkRead(id uuid.UUID, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

func (m *MockNotificationLogRepository) MarkFailed(id uuid.UUID, errorDetails string) error {
	args := m.Called(id, errorDetails)
	return args.Error(0)
}

func (m *MockNotificationLogRepository) Requeue(id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockNotificationLogRepository) FindStuckQueued(olderThan time.Time, limit int) ([]*domain.NotificationLog, error) {
	args := m.Called(olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NotificationLog), args.Error(1)
}

func (m *MockNotificationLogRepository) ListByRecipient(recipientID uuid.UUID, page, limit int) ([]*domain.NotificationLog, int64, error) {
	args := m.Called(recipientID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.NotificationLog), args.Get(1).(int64), args.Error(2)
}

// MockTransport is a mock implementation of Transport
type MockTransport struct {
	mock.Mock
	channel domain.Channel
}

func (m *MockTransport) Channel() domain.Channel { return m.channel }

func (m *MockTransport) Send(ctx context.Context, log *domain.NotificationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// MockIdentityService is a mock implementation of IdentityService
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) FindOrCreateFromExternalIdentity(externalID string, claims ExternalClaims) (*domain.User, error) {
	args := m.Called(externalID, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockIdentityService) RecordSession(ctx context.Context, userID uuid.UUID, deviceInfo string) (*domain.Session, error) {
	args := m.Called(ctx, userID, deviceInfo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockIdentityService) TouchSession(sessionID uuid.UUID) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockIdentityService) CloseSession(ctx context.Context, sessionID uuid.UUID, reason domain.DisconnectReason) error {
	args := m.Called(ctx, sessionID, reason)
	return args.Error(0)
}

func (m *MockIdentityService) RegisterDeviceToken(userID uuid.UUID, token string, platform domain.DevicePlatform) (*domain.DeviceToken, error) {
	args := m.Called(userID, token, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceToken), args.Error(1)
}

func (m *MockIdentityService) RevokeDeviceToken(userID uuid.UUID, token string) error {
	args := m.Called(userID, token)
	return args.Error(0)
}

func (m *MockIdentityService) RecordTokenFailure(token string, detail string) error {
	args := m.Called(token, detail)
	return args.Error(0)
}

func (m *MockIdentityService) TokenHistory(tokenID uuid.UUID) ([]*domain.TokenHistory, error) {
	args := m.Called(tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TokenHistory), args.Error(1)
}

// MockDispatchService is a mock implementation of DispatchService
type MockDispatchService struct {
	mock.Mock
}

func (m *MockDispatchService) Dispatch(ctx context.Context, eventKey, appID string, payload map[string]string, recipients []uuid.UUID) error {
	args := m.Called(ctx, eventKey, appID, payload, recipients)
	return args.Error(0)
}

func (m *MockDispatchService) RetryQueued(ctx context.Context, log *domain.NotificationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// MockPresence is a mock implementation of Presence
type MockPresence struct {
	mock.Mock
}

func (m *MockPresence) SetOnline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPresence) SetOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
