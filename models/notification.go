package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeSystem      = "system"
	NotificationTypeJob         = "job"
	NotificationTypeInvite      = "invite"
	NotificationTypeApplication = "application"
	NotificationTypeProject     = "project"
)

// Notification is one per-user in-app notification. AccountType is copied
// from the user at creation time so audience filtering never needs a join.
type Notification struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	AccountType string `gorm:"not null;index" json:"account_type"`

	Title   string                 `json:"title,omitempty"`
	Message string                 `gorm:"not null" json:"message"`
	Type    string                 `gorm:"default:'system';index" json:"type"`
	Link    string                 `json:"link,omitempty"` // e.g. /app/invites/123
	Meta    map[string]interface{} `gorm:"serializer:json" json:"meta,omitempty"`

	IsRead    bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	EmailSent bool       `gorm:"default:false" json:"email_sent"`
}
