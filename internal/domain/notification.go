package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel closed set of delivery channels
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// Valid reports whether the channel is known
func (c Channel) Valid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// ChannelSet is a set of channels stored as a comma-separated column
type ChannelSet []Channel

// Contains reports set membership
func (s ChannelSet) Contains(c Channel) bool {
	for _, have := range s {
		if have == c {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer
func (s ChannelSet) Value() (driver.Value, error) {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		if !c.Valid() {
			return nil, fmt.Errorf("invalid channel %q", c)
		}
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner
func (s *ChannelSet) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ChannelSet", src)
	}
	*s = ParseChannels(raw)
	return nil
}

// ParseChannels parses a comma-separated channel list, dropping unknown
// entries
func ParseChannels(raw string) ChannelSet {
	var out ChannelSet
	for _, part := range strings.Split(raw, ",") {
		c := Channel(strings.TrimSpace(part))
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// EventPriority default urgency of a catalog event
type EventPriority string

const (
	PriorityLow    EventPriority = "low"
	PriorityNormal EventPriority = "normal"
	PriorityHigh   EventPriority = "high"
)

// Valid reports whether the priority is known
func (p EventPriority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

// NotificationEvent a catalog event identified by a stable key
type NotificationEvent struct {
	Model
	Key      string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Priority EventPriority `gorm:"type:varchar(8);not null;default:'normal'" json:"priority"`
	Active   bool          `gorm:"not null;default:true" json:"active"`
}

func (NotificationEvent) TableName() string { return "notification_events" }

// NotificationTemplate per-application rendering definition for an
// event. At most one template per (event, app).
type NotificationTemplate struct {
	Model
	EventKey        string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_event_app,priority:1" json:"event_key"`
	AppID           string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_event_app,priority:2" json:"app_id"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Body            string     `gorm:"type:text" json:"body"`
	Platforms       string     `gorm:"type:varchar(64)" json:"platforms,omitempty"`
	DefaultEnabled  bool       `gorm:"not null;default:true" json:"default_enabled"`
	DefaultChannels ChannelSet `gorm:"type:varchar(64)" json:"default_channels"`
	Active          bool       `gorm:"not null;default:true" json:"active"`
}

func (NotificationTemplate) TableName() string { return "notification_templates" }

// NotificationPreference per-user override of a template's defaults.
// Absence of a row means the template defaults apply.
type NotificationPreference struct {
	Model
	UserID   uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:ux_user_event_app,priority:1" json:"user_id"`
	EventKey string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_event_app,priority:2" json:"event_key"`
	AppID    string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_event_app,priority:3" json:"app_id"`
	Enabled  bool       `gorm:"not null;default:true" json:"enabled"`
	Channels ChannelSet `gorm:"type:varchar(64)" json:"channels"`
}

func (NotificationPreference) TableName() string { return "notification_preferences" }

// ResolvedPreference is the effective (enabled, channels) after
// overlaying a preference row on template defaults
type ResolvedPreference struct {
	Enabled  bool       `json:"enabled"`
	Channels ChannelSet `json:"channels"`
}

// NotificationStatus lifecycle of a dispatch attempt
type NotificationStatus string

const (
	NotificationQueued    NotificationStatus = "queued"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

// NotificationLog one row per (recipient, channel) dispatch attempt.
// Append-only: rows only ever advance status or attach error detail.
type NotificationLog struct {
	Model
	RecipientID  uuid.UUID          `gorm:"type:char(36);not null;index" json:"recipient_id"`
	EventKey     string             `gorm:"type:varchar(64);not null;index" json:"event_key"`
	AppID        string             `gorm:"type:varchar(64);not null" json:"app_id"`
	Channel      Channel            `gorm:"type:varchar(8);not null" json:"channel"`
	Title        string             `gorm:"type:varchar(255)" json:"title"`
	Body         string             `gorm:"type:text" json:"body"`
	Status       NotificationStatus `gorm:"type:varchar(16);not null;default:'queued';index" json:"status"`
	ErrorDetails string             `gorm:"type:text" json:"error_details,omitempty"`
	SentAt       *time.Time         `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time         `json:"delivered_at,omitempty"`
	ReadAt       *time.Time         `json:"read_at,omitempty"`
}

func (NotificationLog) TableName() string { return "notification_logs" }
