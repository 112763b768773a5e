package app

import (
	"context"

	"overlook_hotel/internal/domain"
)

// lockReservation locks the reservation's room, together with any extra
// rooms, before the reservation row so every writer takes room locks first.
// The returned map holds every locked room.
func (s *BookingService) lockReservation(ctx context.Context, tx domain.Tx, id int64, extra ...int64) (domain.Reservation, map[int64]domain.Room, error) {
	peek, err := tx.ReservationByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, nil, err
	}
	rooms, err := lockRooms(ctx, tx, append([]int64{peek.RoomID}, extra...)...)
	if err != nil {
		return domain.Reservation{}, nil, err
	}
	r, err := tx.LockReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, nil, err
	}
	if r.RoomID != peek.RoomID {
		return domain.Reservation{}, nil, &domain.ConflictError{Entity: domain.EntityReservation, ID: id, Reason: "moved to another room concurrently"}
	}
	return r, rooms, nil
}

func (s *BookingService) removeReservation(ctx context.Context, tx domain.Tx, u *unit, r domain.Reservation) error {
	if err := domain.CheckRemoval(r); err != nil {
		return err
	}
	if err := tx.DeleteReservation(ctx, r.ID); err != nil {
		return err
	}
	u.emit(domain.EventDeleted, r, r.Status, s.now())
	return nil
}

// CreateReservation books a room. Code, status and creation time are filled
// in when empty. Reservations start PENDING, or CONFIRMED when an amount is
// given; a CONFIRMED booking must not overlap another active one.
func (s *BookingService) CreateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	r.ID = 0
	if r.Code == "" {
		r.Code = s.codes()
	}
	if r.Status == "" {
		r.Status = domain.StatusPending
	}
	r.CreatedAt = s.now().UTC()
	r = r.Normalized()
	if err := r.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	if err := domain.CheckInitialStatus(r); err != nil {
		return domain.Reservation{}, err
	}

	var out domain.Reservation
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		if _, err := tx.GuestByID(ctx, r.GuestID); err != nil {
			return err
		}
		room, err := tx.LockRoom(ctx, r.RoomID)
		if err != nil {
			return err
		}
		if r.AssignedStaffID != nil {
			if _, err := tx.StaffByID(ctx, *r.AssignedStaffID); err != nil {
				return err
			}
		}
		if err := domain.CheckCapacity(room, r.GuestCount); err != nil {
			return err
		}
		existing, err := tx.ReservationsByRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		if err := domain.CheckOverlap(existing, r); err != nil {
			return err
		}
		if out, err = tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		u.emit(domain.EventCreated, out, "", r.CreatedAt)
		return nil
	})
	return out, err
}

// UpdateReservation edits dates, party size, room, amount, code or staff.
// Status is owned by Transition and terminal reservations are frozen.
func (s *BookingService) UpdateReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	r = r.Normalized()
	if err := r.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		old, rooms, err := s.lockReservation(ctx, tx, r.ID, r.RoomID)
		if err != nil {
			return err
		}
		if old.Status.Terminal() {
			return &domain.ConflictError{Entity: domain.EntityReservation, ID: r.ID, Reason: "reservation is " + string(old.Status)}
		}
		if r.Status != old.Status {
			return &domain.InvalidTransitionError{ReservationID: r.ID, From: old.Status, To: r.Status, Reason: "status changes go through Transition"}
		}
		if old.Status != domain.StatusPending && r.TotalAmount == nil {
			return &domain.ValidationError{Entity: domain.EntityReservation, Field: "total_amount", Reason: "is required once confirmed"}
		}
		r.CreatedAt = old.CreatedAt

		if r.RoomID != old.RoomID && old.Status == domain.StatusCheckedIn {
			return &domain.ConflictError{Entity: domain.EntityReservation, ID: r.ID, Reason: "cannot change room while checked in"}
		}
		room := rooms[r.RoomID]
		if r.GuestID != old.GuestID {
			if _, err := tx.GuestByID(ctx, r.GuestID); err != nil {
				return err
			}
		}
		if r.AssignedStaffID != nil {
			if _, err := tx.StaffByID(ctx, *r.AssignedStaffID); err != nil {
				return err
			}
		}
		if err := domain.CheckCapacity(room, r.GuestCount); err != nil {
			return err
		}
		existing, err := tx.ReservationsByRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		if err := domain.CheckOverlap(existing, r); err != nil {
			return err
		}
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		u.emit(domain.EventUpdated, r, old.Status, s.now())
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return r, nil
}

// DeleteReservation fails with ConflictError while the guest is checked in.
func (s *BookingService) DeleteReservation(ctx context.Context, id int64) error {
	return s.run(ctx, func(tx domain.Tx, u *unit) error {
		r, _, err := s.lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.removeReservation(ctx, tx, u, r)
	})
}

// Transition moves a reservation through its lifecycle and applies the room
// side effects in the same transaction. On error nothing changes.
func (s *BookingService) Transition(ctx context.Context, id int64, to domain.ReservationStatus) (domain.Reservation, error) {
	var out domain.Reservation
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		r, rooms, err := s.lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		room := rooms[r.RoomID]
		now := s.now()
		res, err := domain.Transition(r, room, to, domain.TransitionOptions{
			Today:                now,
			HousekeepingTurnover: s.turnover,
		})
		if err != nil {
			return err
		}
		if to == domain.StatusConfirmed {
			existing, err := tx.ReservationsByRoom(ctx, room.ID)
			if err != nil {
				return err
			}
			if err := domain.CheckOverlap(existing, res.Reservation); err != nil {
				return err
			}
		}
		if err := tx.UpdateReservation(ctx, res.Reservation); err != nil {
			return err
		}
		if res.RoomChanged {
			if err := tx.UpdateRoom(ctx, res.Room); err != nil {
				return err
			}
			u.touch(roomKey(room.ID))
		}
		out = res.Reservation
		u.emit(domain.EventTransitioned, out, r.Status, now)
		return nil
	})
	return out, err
}

// AssignStaff sets the staff member handling a reservation; staffID 0 clears.
// Managers qualify through their shared staff identity.
func (s *BookingService) AssignStaff(ctx context.Context, reservationID, staffID int64) (domain.Reservation, error) {
	var out domain.Reservation
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		r, _, err := s.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		r.AssignedStaffID = nil
		if staffID != 0 {
			if _, err := tx.StaffByID(ctx, staffID); err != nil {
				return err
			}
			r.AssignedStaffID = &staffID
		}
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		out = r
		u.emit(domain.EventStaffAssigned, r, r.Status, s.now())
		return nil
	})
	return out, err
}
