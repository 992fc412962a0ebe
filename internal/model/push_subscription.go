package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscriptions belong to a user; the notification worker resolves a
// reservation to its owner's subscriptions.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;size:36;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
