package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType closed set of message kinds
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageEmoji  MessageType = "emoji"
	MessageAudio  MessageType = "audio"
	MessageSystem MessageType = "system"
)

// Valid reports whether the message type is known
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageEmoji, MessageAudio, MessageSystem:
		return true
	}
	return false
}

// DeliveryStatus progresses sent -> delivered -> read and never moves
// backward. Read is terminal.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

func (s DeliveryStatus) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// Valid reports whether the status is known
func (s DeliveryStatus) Valid() bool { return s.rank() >= 0 }

// CanAdvance reports whether moving to the target status is a forward
// transition. Equal statuses are not an advance (idempotent repeat).
func (s DeliveryStatus) CanAdvance(to DeliveryStatus) bool {
	return s.Valid() && to.Valid() && to.rank() > s.rank()
}

// AttachmentRef is a stable blob-store reference carried in a payload
type AttachmentRef struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// MessagePayload is the closed payload variant: text content, an
// optional attachment reference, and an optional reply-to pointer.
// Stored as a JSON column; Validate enforces the variant that each
// message type allows.
type MessagePayload struct {
	Text       string         `json:"text,omitempty"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
	ReplyToID  *uuid.UUID     `json:"reply_to_id,omitempty"`
}

// Validate checks the payload against the message type
func (p MessagePayload) Validate(t MessageType) error {
	switch t {
	case MessageText, MessageEmoji, MessageSystem:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%s message requires text", t)
		}
		if p.Attachment != nil {
			return fmt.Errorf("%s message cannot carry an attachment", t)
		}
	case MessageImage, MessageFile, MessageAudio:
		if p.Attachment == nil || p.Attachment.Key == "" {
			return fmt.Errorf("%s message requires an attachment reference", t)
		}
		if p.Attachment.Name == "" {
			return fmt.Errorf("attachment filename must not be empty")
		}
	default:
		return fmt.Errorf("unknown message type %q", t)
	}
	return nil
}

// Value implements driver.Valuer for the JSON column
func (p MessagePayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for the JSON column
func (p *MessagePayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = MessagePayload{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into MessagePayload", src)
}

// Message belongs to exactly one conversation. ClientTempID is the
// sender-supplied idempotency key; its composite unique index is what
// collapses retried sends to one row.
type Message struct {
	Model
	Tombstone
	ConversationID uuid.UUID      `gorm:"type:char(36);not null;index:ix_conversation_created,priority:1;uniqueIndex:ux_client_temp,priority:1" json:"conversation_id"`
	SenderID       uuid.UUID      `gorm:"type:char(36);not null;uniqueIndex:ux_client_temp,priority:2" json:"sender_id"`
	Type           MessageType    `gorm:"type:varchar(16);not null" json:"type"`
	Payload        MessagePayload `gorm:"type:json;not null" json:"payload"`
	Status         DeliveryStatus `gorm:"type:varchar(16);not null;default:'sent'" json:"status"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	ClientTempID   *string        `gorm:"type:varchar(64);uniqueIndex:ux_client_temp,priority:3" json:"client_temp_id,omitempty"`
}

func (Message) TableName() string { return "messages" }

// MessageVersion immutable snapshot of a payload prior to an edit.
// Append-only; never mutated or deleted once written.
type MessageVersion struct {
	Model
	MessageID uuid.UUID      `gorm:"type:char(36);not null;index" json:"message_id"`
	Payload   MessagePayload `gorm:"type:json;not null" json:"payload"`
	EditedAt  time.Time      `gorm:"not null" json:"edited_at"`
}

func (MessageVersion) TableName() string { return "message_versions" }
