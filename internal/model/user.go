package model

import "time"

// User represents a registered account.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:128;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Location     string    `gorm:"size:256" json:"location"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}
