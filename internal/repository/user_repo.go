package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/domain"
	"github.com/google/uuid"
)

// UserRepository identity record data access
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *domain.User) error
	FindByID(id uuid.UUID) (*domain.User, error)
	FindByExternalID(externalID string) (*domain.User, error)
	SetPresence(id uuid.UUID, online bool, lastSeen time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByExternalID(externalID string) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetPresence(id uuid.UUID, online bool, lastSeen time.Time) error {
	return r.db.Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_online": online, "last_seen_at": lastSeen}).Error
}
