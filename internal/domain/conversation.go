package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationType distinguishes job-scoped threads from direct messages
type ConversationType string

const (
	ConversationJobChat ConversationType = "job_chat"
	ConversationDirect  ConversationType = "direct_message"
)

// Valid reports whether the type is known
func (t ConversationType) Valid() bool {
	return t == ConversationJobChat || t == ConversationDirect
}

// ConversationStatus lifecycle of a conversation
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationClosed   ConversationStatus = "closed"
	ConversationArchived ConversationStatus = "archived"
)

// Conversation groups a message thread between a fixed set of participants.
// Participant join rows are the single source of truth for membership;
// there is no denormalized participant array.
type Conversation struct {
	Model
	Tombstone
	Type     ConversationType   `gorm:"type:varchar(16);not null" json:"type"`
	JobID    *uuid.UUID         `gorm:"type:char(36);index" json:"job_id,omitempty"`
	JobTitle string             `gorm:"type:varchar(255)" json:"job_title,omitempty"`
	// DirectKey is the normalized participant-pair key, set only for
	// direct conversations. Its unique index is what makes concurrent
	// FindOrCreateDirect calls collapse to one row.
	DirectKey *string            `gorm:"type:varchar(80);uniqueIndex" json:"-"`
	Status    ConversationStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	ClosedAt  *time.Time         `json:"closed_at,omitempty"`
	// LastMessageAt is a derived cache of the newest non-deleted message
	// time. It is always recomputed, never incremented.
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

// DirectPairKey builds the order-independent key for a direct pair
func DirectPairKey(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%s:%s", lo, hi)
}

// ConversationParticipant is a user's membership and personal settings
// within one conversation. Unique per (conversation, user).
type ConversationParticipant struct {
	Model
	ConversationID      uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:ux_conversation_user,priority:1" json:"conversation_id"`
	UserID              uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:ux_conversation_user,priority:2;index" json:"user_id"`
	UnreadCount         int        `gorm:"not null;default:0" json:"unread_count"`
	Muted               bool       `gorm:"not null;default:false" json:"muted"`
	Pinned              bool       `gorm:"not null;default:false" json:"pinned"`
	NotificationEnabled bool       `gorm:"not null;default:true" json:"notification_enabled"`
	JoinedAt            time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt              *time.Time `json:"left_at,omitempty"`
	LastReadAt          *time.Time `json:"last_read_at,omitempty"`
}

func (ConversationParticipant) TableName() string { return "conversation_participants" }

// ActiveMember reports whether the participant still accumulates unread
// counts and receives fan-out
func (p *ConversationParticipant) ActiveMember() bool { return p.LeftAt == nil }

// ParticipantSettings carries a partial settings update; nil fields are
// left unchanged.
type ParticipantSettings struct {
	Muted               *bool `json:"muted,omitempty"`
	Pinned              *bool `json:"pinned,omitempty"`
	NotificationEnabled *bool `json:"notification_enabled,omitempty"`
}
