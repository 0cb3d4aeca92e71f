package migration

import (
	"gorm.io/gorm"

	"github.com/joblink/chat-backend/internal/domain"
	pkglogger "github.com/joblink/chat-backend/pkg/logger"
)

// Run applies the schema for every aggregate. AutoMigrate also creates
// the unique indexes the consistency model relies on: the direct-pair
// key, (conversation, user) membership, the clientTempId dedup key,
// (event, app) templates, and (user, event, app) preferences.
func Run(db *gorm.DB) error {
	models := []interface{}{
		&domain.User{},
		&domain.Session{},
		&domain.DeviceToken{},
		&domain.TokenHistory{},
		&domain.Conversation{},
		&domain.ConversationParticipant{},
		&domain.Message{},
		&domain.MessageVersion{},
		&domain.NotificationEvent{},
		&domain.NotificationTemplate{},
		&domain.NotificationPreference{},
		&domain.NotificationLog{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	pkglogger.Info("schema migration complete (%d tables)", len(models))
	return nil
}

// SeedCatalog inserts the built-in notification events and default
// templates when they are missing. Idempotent.
func SeedCatalog(db *gorm.DB) error {
	events := []domain.NotificationEvent{
		{Key: "new_message", Priority: domain.PriorityHigh, Active: true},
		{Key: "mention", Priority: domain.PriorityHigh, Active: true},
		{Key: "job_status_changed", Priority: domain.PriorityNormal, Active: true},
	}
	for i := range events {
		var count int64
		if err := db.Model(&domain.NotificationEvent{}).
			Where("`key` = ?", events[i].Key).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&events[i]).Error; err != nil {
				return err
			}
		}
	}

	templates := []domain.NotificationTemplate{
		{
			EventKey:        "new_message",
			AppID:           "mobile",
			Title:           "New message from {sender_name}",
			Body:            "{preview}",
			DefaultEnabled:  true,
			DefaultChannels: domain.ChannelSet{domain.ChannelPush},
			Active:          true,
		},
		{
			EventKey:        "new_message",
			AppID:           "web",
			Title:           "New message from {sender_name}",
			Body:            "{preview}",
			DefaultEnabled:  true,
			DefaultChannels: domain.ChannelSet{domain.ChannelInApp},
			Active:          true,
		},
		{
			EventKey:        "job_status_changed",
			AppID:           "mobile",
			Title:           "Job update: {job_title}",
			Body:            "Status changed to {status}",
			DefaultEnabled:  true,
			DefaultChannels: domain.ChannelSet{domain.ChannelPush, domain.ChannelInApp},
			Active:          true,
		},
	}
	for i := range templates {
		var count int64
		if err := db.Model(&domain.NotificationTemplate{}).
			Where("event_key = ? AND app_id = ?", templates[i].EventKey, templates[i].AppID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&templates[i]).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
