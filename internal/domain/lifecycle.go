package domain

import "time"

// legal transitions; anything absent here is rejected.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

func CanTransition(from, to ReservationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionOptions tune side effects that belong to collaborators.
type TransitionOptions struct {
	// Today is the calendar day the transition happens on.
	Today time.Time
	// HousekeepingTurnover sends rooms to CLEANING on checkout instead of AVAILABLE.
	HousekeepingTurnover bool
}

// Transitioned is the outcome of a legal transition. Nothing is applied yet.
type Transitioned struct {
	Reservation Reservation
	Room        Room
	RoomChanged bool
}

// Transition validates moving r to status `to` and computes the resulting
// reservation and room. Inputs are never mutated. The overlap rule for
// entering CONFIRMED needs the room's other reservations and is checked by the
// caller with CheckOverlap.
func Transition(r Reservation, room Room, to ReservationStatus, opts TransitionOptions) (Transitioned, error) {
	fail := func(reason string) (Transitioned, error) {
		return Transitioned{}, &InvalidTransitionError{ReservationID: r.ID, From: r.Status, To: to, Reason: reason}
	}
	if !CanTransition(r.Status, to) {
		return fail("")
	}
	if room.ID != r.RoomID {
		return fail("room does not match reservation")
	}

	out := Transitioned{Reservation: r.Clone(), Room: room.Clone()}
	out.Reservation.Status = to

	switch to {
	case StatusConfirmed:
		if r.TotalAmount == nil {
			return fail("total amount is not set")
		}
		if *r.TotalAmount < 0 {
			return fail("total amount is negative")
		}
	case StatusCheckedIn:
		if DateOf(opts.Today).Before(r.CheckInDate) {
			return fail("check-in date " + r.CheckInDate.Format(DateLayout) + " not reached")
		}
		if room.Status != RoomAvailable {
			return fail("room is " + string(room.Status))
		}
		out.Room.Status = RoomOccupied
		out.RoomChanged = true
	case StatusCheckedOut:
		out.Room.Status = RoomAvailable
		if opts.HousekeepingTurnover {
			out.Room.Status = RoomCleaning
		}
		out.RoomChanged = true
	}
	return out, nil
}

// CheckInitialStatus guards creation: reservations start PENDING or, with an
// amount set, directly CONFIRMED.
func CheckInitialStatus(r Reservation) error {
	switch r.Status {
	case StatusPending:
		return nil
	case StatusConfirmed:
		if r.TotalAmount == nil {
			return &InvalidTransitionError{To: r.Status, Reason: "total amount is not set"}
		}
		return nil
	}
	return &InvalidTransitionError{To: r.Status, Reason: "reservations start as PENDING or CONFIRMED"}
}
