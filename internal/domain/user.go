package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the closed role set. Unknown values coerce to RoleCustomer
// at the boundary and are logged, never stored as-is.
type UserRole string

const (
	RoleCustomer      UserRole = "customer"
	RoleProvider      UserRole = "provider"
	RoleAdministrator UserRole = "administrator"
)

// Valid reports whether the role is in the closed set
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleAdministrator:
		return true
	}
	return false
}

// NormalizeRole coerces an untrusted role claim to the closed set.
// The second return is false when the claim was unknown and the
// default was applied; callers must log that case.
func NormalizeRole(claim string) (UserRole, bool) {
	r := UserRole(claim)
	if r.Valid() {
		return r, true
	}
	return RoleCustomer, false
}

// User identity record keyed by an immutable external identifier
type User struct {
	Model
	ExternalID string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_id"`
	Name       string     `gorm:"type:varchar(128)" json:"name"`
	Role       UserRole   `gorm:"type:varchar(16);not null" json:"role"`
	IsOnline   bool       `gorm:"not null;default:false" json:"is_online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

func (User) TableName() string { return "users" }

// DisconnectReason explains why a session closed
type DisconnectReason string

const (
	DisconnectLogout DisconnectReason = "logout"
	DisconnectStale  DisconnectReason = "stale"
)

// Session one row per connected device
type Session struct {
	Model
	UserID           uuid.UUID        `gorm:"type:char(36);not null;index" json:"user_id"`
	DeviceInfo       string           `gorm:"type:varchar(255)" json:"device_info"`
	ConnectedAt      time.Time        `gorm:"not null" json:"connected_at"`
	LastActivityAt   time.Time        `gorm:"not null;index" json:"last_activity_at"`
	DisconnectedAt   *time.Time       `json:"disconnected_at,omitempty"`
	DisconnectReason DisconnectReason `gorm:"type:varchar(16)" json:"disconnect_reason,omitempty"`
}

func (Session) TableName() string { return "sessions" }

// Active reports whether the session has not been closed
func (s *Session) Active() bool { return s.DisconnectedAt == nil }

// DevicePlatform closed platform set for push tokens
type DevicePlatform string

const (
	PlatformIOS     DevicePlatform = "ios"
	PlatformAndroid DevicePlatform = "android"
	PlatformWeb     DevicePlatform = "web"
)

// Valid reports whether the platform is known
func (p DevicePlatform) Valid() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

// DeviceToken a push token registered by one of a user's devices
type DeviceToken struct {
	Model
	UserID   uuid.UUID      `gorm:"type:char(36);not null;index" json:"user_id"`
	Token    string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	Platform DevicePlatform `gorm:"type:varchar(16);not null" json:"platform"`
	Active   bool           `gorm:"not null;default:true" json:"active"`
}

func (DeviceToken) TableName() string { return "device_tokens" }

// TokenAction audit action recorded per token event
type TokenAction string

const (
	TokenRegistered TokenAction = "REGISTERED"
	TokenRenewed    TokenAction = "RENEWED"
	TokenRevoked    TokenAction = "REVOKED"
	TokenFailed     TokenAction = "FAILED"
)

// TokenHistory append-only audit trail per device token. Rows are never
// mutated after insert.
type TokenHistory struct {
	Model
	TokenID uuid.UUID   `gorm:"type:char(36);not null;index" json:"token_id"`
	UserID  uuid.UUID   `gorm:"type:char(36);not null;index" json:"user_id"`
	Action  TokenAction `gorm:"type:varchar(16);not null" json:"action"`
	Detail  string      `gorm:"type:varchar(255)" json:"detail,omitempty"`
}

func (TokenHistory) TableName() string { return "token_history" }
