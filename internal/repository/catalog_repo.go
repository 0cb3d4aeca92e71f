package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// CatalogRepository notification events, templates, and preferences
type CatalogRepository interface {
	WithTx(tx *gorm.DB) CatalogRepository
	CreateEvent(event *domain.NotificationEvent) error
	FindEventByKey(key string) (*domain.NotificationEvent, error)
	CreateTemplate(template *domain.NotificationTemplate) error
	FindTemplate(eventKey, appID string) (*domain.NotificationTemplate, error)
	FindPreference(userID uuid.UUID, eventKey, appID string) (*domain.NotificationPreference, error)
	UpsertPreference(pref *domain.NotificationPreference) error
	ListPreferencesByUser(userID uuid.UUID) ([]*domain.NotificationPreference, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a CatalogRepository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) WithTx(tx *gorm.DB) CatalogRepository {
	return &catalogRepository{db: tx}
}

func (r *catalogRepository) CreateEvent(event *domain.NotificationEvent) error {
	return r.db.Create(event).Error
}

func (r *catalogRepository) FindEventByKey(key string) (*domain.NotificationEvent, error) {
	var event domain.NotificationEvent
	err := r.db.Where("`key` = ?", key).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *catalogRepository) CreateTemplate(template *domain.NotificationTemplate) error {
	return r.db.Create(template).Error
}

func (r *catalogRepository) FindTemplate(eventKey, appID string) (*domain.NotificationTemplate, error) {
	var template domain.NotificationTemplate
	err := r.db.Where("event_key = ? AND app_id = ?", eventKey, appID).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (r *catalogRepository) FindPreference(userID uuid.UUID, eventKey, appID string) (*domain.NotificationPreference, error) {
	var pref domain.NotificationPreference
	err := r.db.Where("user_id = ? AND event_key = ? AND app_id = ?", userID, eventKey, appID).
		First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pref, nil
}

// UpsertPreference inserts or updates on the (user, event, app) unique key
func (r *catalogRepository) UpsertPreference(pref *domain.NotificationPreference) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_key"}, {Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "channels", "updated_at"}),
	}).Create(pref).Error
}

func (r *catalogRepository) ListPreferencesByUser(userID uuid.UUID) ([]*domain.NotificationPreference, error) {
	var prefs []*domain.NotificationPreference
	err := r.db.Where("user_id = ?", userID).
		Order("event_key ASC, app_id ASC").
		Find(&prefs).Error
	return prefs, err
}
