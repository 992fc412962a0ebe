package model

import "time"

// Payment statuses recorded from the gateway callback.
const (
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment is a completed (or failed) card transaction for a booking.
type Payment struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"index;size:36;not null" json:"userId"`
	TransactionID string    `gorm:"size:128;not null" json:"transactionId"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Status        string    `gorm:"size:16;not null" json:"status"`
	Timestamp     time.Time `gorm:"not null;index" json:"timestamp"`
}
