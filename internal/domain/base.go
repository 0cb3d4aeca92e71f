package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the shared aggregate base: uuid primary key plus timestamps.
type Model struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a uuid when the caller did not set one
func (m *Model) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Tombstone is the explicit soft-delete marker shared by conversations
// and messages. All read paths filter through the Visible scope instead
// of repeating the check ad hoc.
type Tombstone struct {
	Deleted   bool       `gorm:"not null;default:false;index" json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// MarkDeleted sets the tombstone
func (t *Tombstone) MarkDeleted(at time.Time) {
	t.Deleted = true
	t.DeletedAt = &at
}

// Visible is the single soft-delete filter used by every read path
func Visible(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", false)
}
