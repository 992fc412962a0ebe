package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-gate-backend/internal/model"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyOpened is returned by MarkGateOpened when the reservation's gate
// flag was already set; the transition happens at most once.
var ErrAlreadyOpened = errors.New("gate already opened")

// Store defines the interface for all database operations.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	// Slots
	CreateSlot(ctx context.Context, slot *model.Slot) error
	SlotByName(ctx context.Context, name string) (*model.Slot, error)
	AllSlots(ctx context.Context) ([]model.Slot, error)
	AvailableSlots(ctx context.Context, start, end time.Time) ([]string, error)
	AddReservationToSlot(ctx context.Context, slotName string, res model.SlotReservation) error
	UpdateSlotStatus(ctx context.Context, slotName, status string) error
	DeleteExpiredSlotReservations(ctx context.Context, now time.Time) (int64, error)

	// Reservations
	CreateReservation(ctx context.Context, res *model.Reservation) error
	Reservation(ctx context.Context, id string) (*model.Reservation, error)
	ReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	MarkGateOpened(ctx context.Context, id string) error

	// Payments
	SavePayment(ctx context.Context, p *model.Payment) error
	PaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error)

	// Push subscriptions
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsByUser(ctx context.Context, userID string) ([]model.PushSubscription, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

/* --- users --- */

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

/* --- slots --- */

func (s *gormStore) CreateSlot(ctx context.Context, slot *model.Slot) error {
	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (s *gormStore) SlotByName(ctx context.Context, name string) (*model.Slot, error) {
	var slot model.Slot
	err := s.db.WithContext(ctx).Preload("Reservations").First(&slot, "slot_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *gormStore) AllSlots(ctx context.Context) ([]model.Slot, error) {
	var slots []model.Slot
	if err := s.db.WithContext(ctx).Preload("Reservations").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// AvailableSlots returns the names of slots with no reservation overlapping
// [start, end). Two windows overlap when one starts before the other ends.
func (s *gormStore) AvailableSlots(ctx context.Context, start, end time.Time) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id NOT IN (?)", s.db.
			Model(&model.SlotReservation{}).
			Select("slot_id").
			Where("start_time < ? AND end_time > ?", end, start)).
		Order("slot_name").
		Pluck("slot_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query available slots: %w", err)
	}
	return names, nil
}

func (s *gormStore) AddReservationToSlot(ctx context.Context, slotName string, res model.SlotReservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot model.Slot
		err := tx.First(&slot, "slot_name = ?", slotName).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		res.SlotID = slot.ID
		return tx.Create(&res).Error
	})
}

func (s *gormStore) UpdateSlotStatus(ctx context.Context, slotName, status string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("slot_name = ?", slotName).
		Update("slot_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteExpiredSlotReservations(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("end_time < ?", now).
		Delete(&model.SlotReservation{})
	return result.RowsAffected, result.Error
}

/* --- reservations --- */

func (s *gormStore) CreateReservation(ctx context.Context, res *model.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(res).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (s *gormStore) Reservation(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	err := s.db.WithContext(ctx).First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *gormStore) ReservationsByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// MarkGateOpened flips GateOpened with a compare-and-set so the transition
// happens at most once even under concurrent confirmations.
func (s *gormStore) MarkGateOpened(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND gate_opened = ?", id, false).
		Update("gate_opened", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark gate opened for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Reservation{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyOpened
	}
	return nil
}

/* --- payments --- */

func (s *gormStore) SavePayment(ctx context.Context, p *model.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *gormStore) PaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

/* --- push subscriptions --- */

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	result := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) SubscriptionsByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
