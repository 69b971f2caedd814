package model

import "time"

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"` // provider event id
	Provider    string `gorm:"size:32;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
