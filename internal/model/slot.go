package model

import "time"

// Slot status values persisted in slot_status. The effective status also
// considers active reservations, see CurrentStatus.
const (
	SlotAvailable = "available"
	SlotReserved  = "reserved"
	SlotOccupied  = "occupied"
)

// Slot represents a physical parking slot.
type Slot struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	SlotName   string    `gorm:"uniqueIndex;size:64;not null" json:"slotName"`
	SlotStatus string    `gorm:"size:32;not null;default:available" json:"slotStatus"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Associations
	Reservations []SlotReservation `gorm:"foreignKey:SlotID;constraint:OnDelete:CASCADE" json:"reservations"`
}

// SlotReservation is a time window during which a slot is held by a user.
type SlotReservation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	SlotID    int64     `gorm:"index;not null" json:"-"`
	UserID    string    `gorm:"size:36;not null" json:"userId"`
	StartTime time.Time `gorm:"not null" json:"startTime"`
	EndTime   time.Time `gorm:"not null" json:"endTime"`
}

// CurrentStatus derives the slot's effective status at the given time.
// An occupied slot stays occupied regardless of reservations.
func (s *Slot) CurrentStatus(now time.Time) string {
	if s.SlotStatus == SlotOccupied {
		return SlotOccupied
	}
	for _, r := range s.Reservations {
		if !r.StartTime.After(now) && !r.EndTime.Before(now) {
			return SlotReserved
		}
	}
	return SlotAvailable
}
