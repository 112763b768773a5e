package domain

import "time"

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transition.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// Active statuses hold the room for their dates.
func (s ReservationStatus) Active() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// MaxCodeLength bounds reservation codes (column width).
const MaxCodeLength = 30

type Reservation struct {
	ID              int64             `json:"id"`
	Code            string            `json:"code"`
	CreatedAt       time.Time         `json:"created_at"`
	CheckInDate     time.Time         `json:"check_in_date"`
	CheckOutDate    time.Time         `json:"check_out_date"`
	GuestCount      int               `json:"guest_count"`
	Status          ReservationStatus `json:"status"`
	TotalAmount     *Money            `json:"total_amount,omitempty"`
	GuestID         int64             `json:"guest_id"`
	RoomID          int64             `json:"room_id"`
	AssignedStaffID *int64            `json:"assigned_staff_id,omitempty"`
}

func (r Reservation) Equal(o Reservation) bool { return sameIdentity(r.ID, o.ID) }

func (r Reservation) Stay() Stay { return Stay{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate} }

func (r Reservation) Nights() int { return r.Stay().Nights() }

func (r Reservation) Validate() error {
	if err := required(EntityReservation, "code", r.Code); err != nil {
		return err
	}
	if err := maxLen(EntityReservation, "code", r.Code, MaxCodeLength); err != nil {
		return err
	}
	if r.GuestID == 0 {
		return invalid(EntityReservation, "guest_id", "is required")
	}
	if r.RoomID == 0 {
		return invalid(EntityReservation, "room_id", "is required")
	}
	if err := r.Stay().Validate(); err != nil {
		return err
	}
	if r.GuestCount < 1 {
		return invalid(EntityReservation, "guest_count", "must be at least 1")
	}
	if !r.Status.Valid() {
		return invalid(EntityReservation, "status", "unknown status "+string(r.Status))
	}
	if r.TotalAmount != nil && *r.TotalAmount < 0 {
		return invalid(EntityReservation, "total_amount", "must not be negative")
	}
	return nil
}

func (r Reservation) Normalized() Reservation {
	r.CheckInDate = DateOf(r.CheckInDate)
	r.CheckOutDate = DateOf(r.CheckOutDate)
	return r
}

func (r Reservation) Clone() Reservation {
	r.TotalAmount = cloneMoney(r.TotalAmount)
	r.AssignedStaffID = cloneID(r.AssignedStaffID)
	return r
}

// ReservationBuilder allows partial initialization; status defaults to PENDING.
type ReservationBuilder struct{ r Reservation }

func NewReservation() *ReservationBuilder {
	return &ReservationBuilder{r: Reservation{Status: StatusPending, GuestCount: 1}}
}

func (b *ReservationBuilder) Code(c string) *ReservationBuilder { b.r.Code = c; return b }
func (b *ReservationBuilder) Guest(id int64) *ReservationBuilder {
	b.r.GuestID = id
	return b
}
func (b *ReservationBuilder) Room(id int64) *ReservationBuilder { b.r.RoomID = id; return b }

func (b *ReservationBuilder) Dates(in, out time.Time) *ReservationBuilder {
	b.r.CheckInDate, b.r.CheckOutDate = in, out
	return b
}

func (b *ReservationBuilder) Guests(n int) *ReservationBuilder { b.r.GuestCount = n; return b }

func (b *ReservationBuilder) Status(s ReservationStatus) *ReservationBuilder {
	b.r.Status = s
	return b
}

func (b *ReservationBuilder) Total(m Money) *ReservationBuilder {
	b.r.TotalAmount = &m
	return b
}

func (b *ReservationBuilder) AssignedTo(staffID int64) *ReservationBuilder {
	b.r.AssignedStaffID = &staffID
	return b
}

func (b *ReservationBuilder) Build() Reservation { return b.r.Clone() }
