package domain

import "time"

// Stay is the half-open interval [CheckIn, CheckOut) of calendar days.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func NewStay(in, out time.Time) Stay { return Stay{CheckIn: DateOf(in), CheckOut: DateOf(out)} }

func (s Stay) Validate() error {
	if s.CheckIn.IsZero() {
		return invalid(EntityReservation, "check_in_date", "is required")
	}
	if s.CheckOut.IsZero() {
		return invalid(EntityReservation, "check_out_date", "is required")
	}
	if !s.CheckOut.After(s.CheckIn) {
		return invalid(EntityReservation, "check_out_date", "must be after check-in date")
	}
	return nil
}

// Overlaps: [a,b) and [c,d) intersect iff a < d and c < b.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(s.CheckOut)
}

func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// FindOverlap returns the first active reservation in existing that
// intersects stay, ignoring the reservation with id exclude.
func FindOverlap(existing []Reservation, stay Stay, exclude int64) (Reservation, bool) {
	for _, r := range existing {
		if r.ID == exclude && exclude != 0 {
			continue
		}
		if !r.Status.Active() {
			continue
		}
		if r.Stay().Overlaps(stay) {
			return r, true
		}
	}
	return Reservation{}, false
}

// IsAvailable reports whether stay can be booked against existing.
func IsAvailable(existing []Reservation, stay Stay) bool {
	_, hit := FindOverlap(existing, stay, 0)
	return !hit
}

// CheckOverlap rejects candidate when it is active and collides with another
// active reservation of its room. existing must be the room's reservations.
func CheckOverlap(existing []Reservation, candidate Reservation) error {
	if !candidate.Status.Active() {
		return nil
	}
	if other, hit := FindOverlap(existing, candidate.Stay(), candidate.ID); hit {
		return &OverlapError{
			RoomID:        candidate.RoomID,
			ConflictingID: other.ID,
			CheckIn:       other.CheckInDate,
			CheckOut:      other.CheckOutDate,
		}
	}
	return nil
}

func CheckCapacity(room Room, guestCount int) error {
	if guestCount > room.Capacity {
		return &CapacityError{RoomID: room.ID, Capacity: room.Capacity, GuestCount: guestCount}
	}
	return nil
}

// CheckRoomResize rejects shrinking a room below the party size of any of its
// reservations that still hold the room.
func CheckRoomResize(room Room, existing []Reservation) error {
	for _, r := range existing {
		if r.Status.Terminal() {
			continue
		}
		if err := CheckCapacity(room, r.GuestCount); err != nil {
			return err
		}
	}
	return nil
}
