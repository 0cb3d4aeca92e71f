package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// DeviceTokenRepository push token data access plus its append-only
// history trail
type DeviceTokenRepository interface {
	WithTx(tx *gorm.DB) DeviceTokenRepository
	Create(token *domain.DeviceToken) error
	FindByToken(token string) (*domain.DeviceToken, error)
	FindActiveByUser(userID uuid.UUID) ([]*domain.DeviceToken, error)
	SetActive(id uuid.UUID, active bool) error
	Reassign(id uuid.UUID, userID uuid.UUID, platform domain.DevicePlatform) error
	AppendHistory(entry *domain.TokenHistory) error
	HistoryByToken(tokenID uuid.UUID) ([]*domain.TokenHistory, error)
}

type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a DeviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) WithTx(tx *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: tx}
}

func (r *deviceTokenRepository) Create(token *domain.DeviceToken) error {
	return r.db.Create(token).Error
}

func (r *deviceTokenRepository) FindByToken(token string) (*domain.DeviceToken, error) {
	var t domain.DeviceToken
	err := r.db.Where("token = ?", token).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *deviceTokenRepository) FindActiveByUser(userID uuid.UUID) ([]*domain.DeviceToken, error) {
	var tokens []*domain.DeviceToken
	err := r.db.Where("user_id = ? AND active = ?", userID, true).Find(&tokens).Error
	return tokens, err
}

func (r *deviceTokenRepository) SetActive(id uuid.UUID, active bool) error {
	return r.db.Model(&domain.DeviceToken{}).
		Where("id = ?", id).
		Update("active", active).Error
}

// Reassign moves a token row to a new owner and reactivates it. Token
// strings are unique, so a device changing hands must update the
// existing row rather than insert a second one.
func (r *deviceTokenRepository) Reassign(id uuid.UUID, userID uuid.UUID, platform domain.DevicePlatform) error {
	return r.db.Model(&domain.DeviceToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"user_id":  userID,
			"platform": platform,
			"active":   true,
		}).Error
}

// AppendHistory inserts one audit row; history rows are never updated
func (r *deviceTokenRepository) AppendHistory(entry *domain.TokenHistory) error {
	return r.db.Create(entry).Error
}

func (r *deviceTokenRepository) HistoryByToken(tokenID uuid.UUID) ([]*domain.TokenHistory, error) {
	var history []*domain.TokenHistory
	err := r.db.Where("token_id = ?", tokenID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}
