package model

import "time"

// Reservation is a parking booking. GateOpened transitions false -> true at
// most once, on a confirmed gate open; it never transitions back.
type Reservation struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"index;size:36;not null" json:"userId"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	CarNumber  string    `gorm:"size:32;not null" json:"carNumber"`
	Slot       string    `gorm:"size:64;not null" json:"slot"`
	StartTime  time.Time `gorm:"not null;index" json:"startTime"`
	EndTime    time.Time `gorm:"not null" json:"endTime"`
	Amount     float64   `gorm:"not null" json:"amount"`
	GateOpened bool      `gorm:"not null;default:false" json:"gateOpened"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
