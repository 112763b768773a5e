package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransitionTable(t *testing.T) {
	all := []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled}
	legal := map[[2]ReservationStatus]bool{
		{StatusPending, StatusConfirmed}:    true,
		{StatusPending, StatusCancelled}:    true,
		{StatusConfirmed, StatusCheckedIn}:  true,
		{StatusConfirmed, StatusCancelled}:  true,
		{StatusCheckedIn, StatusCheckedOut}: true,
	}
	for _, from := range all {
		for _, to := range all {
			if got, want := CanTransition(from, to), legal[[2]ReservationStatus{from, to}]; got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func bookedRoom() (Reservation, Room) {
	room := Room{ID: 7, Number: "237", Capacity: 2, Type: RoomDouble, Status: RoomAvailable}
	r := NewReservation().Code("X").Guest(1).Room(7).Dates(Date(2024, 6, 1), Date(2024, 6, 5)).Total(100).Build()
	r.ID = 3
	return r, room
}

func TestTransitionCheckInOccupiesRoom(t *testing.T) {
	r, room := bookedRoom()
	r.Status = StatusConfirmed

	out, err := Transition(r, room, StatusCheckedIn, TransitionOptions{Today: time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Reservation.Status != StatusCheckedIn || out.Room.Status != RoomOccupied || !out.RoomChanged {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if r.Status != StatusConfirmed || room.Status != RoomAvailable {
		t.Fatal("inputs were mutated")
	}
}

func TestTransitionCheckInGuards(t *testing.T) {
	r, room := bookedRoom()
	r.Status = StatusConfirmed

	if _, err := Transition(r, room, StatusCheckedIn, TransitionOptions{Today: Date(2024, 5, 31)}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("early check-in: %v", err)
	}
	room.Status = RoomMaintenance
	if _, err := Transition(r, room, StatusCheckedIn, TransitionOptions{Today: Date(2024, 6, 2)}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("room in maintenance: %v", err)
	}
}

func TestTransitionCheckOut(t *testing.T) {
	r, room := bookedRoom()
	r.Status = StatusCheckedIn
	room.Status = RoomOccupied

	out, err := Transition(r, room, StatusCheckedOut, TransitionOptions{})
	if err != nil || out.Room.Status != RoomAvailable {
		t.Fatalf("checkout: %+v, %v", out.Room, err)
	}
	out, err = Transition(r, room, StatusCheckedOut, TransitionOptions{HousekeepingTurnover: true})
	if err != nil || out.Room.Status != RoomCleaning {
		t.Fatalf("checkout with turnover: %+v, %v", out.Room, err)
	}
}

func TestTransitionConfirmNeedsAmount(t *testing.T) {
	r, room := bookedRoom()
	r.TotalAmount = nil
	if _, err := Transition(r, room, StatusConfirmed, TransitionOptions{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	r.TotalAmount = Cents(0)
	if _, err := Transition(r, room, StatusConfirmed, TransitionOptions{}); err != nil {
		t.Fatalf("zero amount should confirm: %v", err)
	}
}

func TestTransitionOutOfTerminal(t *testing.T) {
	r, room := bookedRoom()
	for _, from := range []ReservationStatus{StatusCheckedOut, StatusCancelled} {
		r.Status = from
		for _, to := range []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled} {
			var ite *InvalidTransitionError
			if _, err := Transition(r, room, to, TransitionOptions{Today: Date(2024, 6, 2)}); !errors.As(err, &ite) {
				t.Fatalf("%s -> %s: %v", from, to, err)
			}
		}
	}
}

func TestCheckInitialStatus(t *testing.T) {
	r, _ := bookedRoom()
	r.Status = StatusConfirmed
	if err := CheckInitialStatus(r); err != nil {
		t.Fatalf("confirmed with amount: %v", err)
	}
	r.Status = StatusCheckedIn
	if err := CheckInitialStatus(r); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("checked in at creation: %v", err)
	}
}
