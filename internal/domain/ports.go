package domain

import (
	"context"
	"time"
)

// Reader is the lock-free read side of a store. Results may be stale.
type Reader interface {
	GuestByID(ctx context.Context, id int64) (Guest, error)
	GuestByEmail(ctx context.Context, email string) (Guest, error)
	RoomByID(ctx context.Context, id int64) (Room, error)
	RoomByNumber(ctx context.Context, number string) (Room, error)
	StaffByID(ctx context.Context, id int64) (StaffRecord, error)
	StaffByEmail(ctx context.Context, email string) (StaffRecord, error)
	ReservationByID(ctx context.Context, id int64) (Reservation, error)
	ReservationByCode(ctx context.Context, code string) (Reservation, error)

	ReservationsByGuest(ctx context.Context, guestID int64) ([]Reservation, error)
	ReservationsByRoom(ctx context.Context, roomID int64) ([]Reservation, error)
	ReservationsByStaff(ctx context.Context, staffID int64) ([]Reservation, error)
	StaffByManager(ctx context.Context, managerID int64) ([]StaffRecord, error)
	RoomsByManager(ctx context.Context, managerID int64) ([]Room, error)
}

// Tx is one atomic entity-graph mutation. Inserts assign identities and
// return UniquenessError on duplicate email/number/code.
type Tx interface {
	Reader

	// LockRoom serializes writers on the room's reservation set.
	LockRoom(ctx context.Context, id int64) (Room, error)
	LockReservation(ctx context.Context, id int64) (Reservation, error)

	InsertGuest(ctx context.Context, g Guest) (Guest, error)
	UpdateGuest(ctx context.Context, g Guest) error
	DeleteGuest(ctx context.Context, id int64) error

	InsertRoom(ctx context.Context, r Room) (Room, error)
	UpdateRoom(ctx context.Context, r Room) error
	DeleteRoom(ctx context.Context, id int64) error

	// InsertStaff and UpdateStaff write the base row and keep the management
	// row in step with s.Management.
	InsertStaff(ctx context.Context, s StaffRecord) (StaffRecord, error)
	UpdateStaff(ctx context.Context, s StaffRecord) error
	DeleteStaff(ctx context.Context, id int64) error

	InsertReservation(ctx context.Context, r Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, r Reservation) error
	DeleteReservation(ctx context.Context, id int64) error

	ClearReservationStaff(ctx context.Context, staffID int64) error
	ClearStaffManager(ctx context.Context, managerID int64) error
	ClearRoomManager(ctx context.Context, managerID int64) error
}

type Store interface {
	Reader
	// WithinTx runs fn atomically; any error discards every write fn made.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Reservation event kinds.
const (
	EventCreated       = "reservation.created"
	EventUpdated       = "reservation.updated"
	EventTransitioned  = "reservation.transitioned"
	EventStaffAssigned = "reservation.staff_assigned"
	EventDeleted       = "reservation.deleted"
)

type ReservationEvent struct {
	Kind          string            `json:"kind"`
	ReservationID int64             `json:"reservation_id"`
	Code          string            `json:"code"`
	GuestID       int64             `json:"guest_id"`
	RoomID        int64             `json:"room_id"`
	From          ReservationStatus `json:"from,omitempty"`
	To            ReservationStatus `json:"to,omitempty"`
	At            time.Time         `json:"at"`
}

// EventPublisher receives committed reservation changes. Delivery is best
// effort; implementations handle their own failures.
type EventPublisher interface {
	ReservationChanged(ctx context.Context, evt ReservationEvent)
}
