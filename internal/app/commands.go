package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"overlook_hotel/internal/domain"
)

// BookingService runs every mutation of the entity graph inside one store
// transaction. Cache eviction and event publication happen only after commit.
type BookingService struct {
	store    domain.Store
	cache    domain.Cache
	events   domain.EventPublisher
	now      func() time.Time
	codes    func() string
	turnover bool
}

type Option func(*BookingService)

// WithClock replaces time.Now; the check-in rule compares against its day.
func WithClock(now func() time.Time) Option { return func(s *BookingService) { s.now = now } }

func WithCodeGenerator(gen func() string) Option {
	return func(s *BookingService) { s.codes = gen }
}

// WithHousekeepingTurnover sends rooms to CLEANING on checkout.
func WithHousekeepingTurnover(on bool) Option {
	return func(s *BookingService) { s.turnover = on }
}

// NewBookingService accepts nil cache and events.
func NewBookingService(store domain.Store, cache domain.Cache, events domain.EventPublisher, opts ...Option) *BookingService {
	s := &BookingService{
		store:  store,
		cache:  cache,
		events: events,
		now:    time.Now,
		codes:  NewReservationCode,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewReservationCode returns codes like OVL-3F2A9C1B7D4E5A60.
func NewReservationCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "OVL-" + strings.ToUpper(hex[:16])
}

func guestKey(id int64) string       { return fmt.Sprintf("guest:%d", id) }
func roomKey(id int64) string        { return fmt.Sprintf("room:%d", id) }
func staffKey(id int64) string       { return fmt.Sprintf("staff:%d", id) }
func reservationKey(id int64) string { return fmt.Sprintf("reservation:%d", id) }

// unit collects the side effects of one transaction.
type unit struct {
	keys   []string
	events []domain.ReservationEvent
}

func (u *unit) touch(keys ...string) { u.keys = append(u.keys, keys...) }

func (u *unit) emit(kind string, r domain.Reservation, from domain.ReservationStatus, at time.Time) {
	u.touch(reservationKey(r.ID))
	u.events = append(u.events, domain.ReservationEvent{
		Kind:          kind,
		ReservationID: r.ID,
		Code:          r.Code,
		GuestID:       r.GuestID,
		RoomID:        r.RoomID,
		From:          from,
		To:            r.Status,
		At:            at.UTC(),
	})
}

func (s *BookingService) run(ctx context.Context, fn func(tx domain.Tx, u *unit) error) error {
	u := &unit{}
	if err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		*u = unit{}
		return fn(tx, u)
	}); err != nil {
		return err
	}
	if s.cache != nil && len(u.keys) > 0 {
		_ = s.cache.Del(ctx, u.keys...)
	}
	if s.events != nil {
		for _, evt := range u.events {
			s.events.ReservationChanged(ctx, evt)
		}
	}
	return nil
}

func requireManager(ctx context.Context, tx domain.Tx, id int64) (domain.StaffRecord, error) {
	m, err := tx.StaffByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.StaffRecord{}, domain.NotFound(domain.EntityManager, id)
		}
		return domain.StaffRecord{}, err
	}
	if !m.IsManager() {
		return domain.StaffRecord{}, domain.NotFound(domain.EntityManager, id)
	}
	return m, nil
}

// release applies the ownership rules of owner before the owner row goes
// away. Cascaded reservations are locked before they are checked, and the
// locked rows are the ones deleted.
func (s *BookingService) release(ctx context.Context, tx domain.Tx, u *unit, owner string, id int64) error {
	rules := domain.RulesFor(owner)
	locked := make(map[int][]domain.Reservation, len(rules))
	for i, rule := range rules {
		if rule.OnDelete != domain.Cascade || rule.Dependent != domain.EntityReservation {
			continue
		}
		owned, err := lockOwned(ctx, tx, rule, id)
		if err != nil {
			return err
		}
		if err := rule.CheckCascade(id, owned); err != nil {
			return err
		}
		locked[i] = owned
	}

	for i, rule := range rules {
		switch rule.Dependent {
		case domain.EntityReservation:
			if rule.OnDelete == domain.Nullify {
				owned, err := ownedReservations(ctx, tx, rule, id)
				if err != nil {
					return err
				}
				if err := tx.ClearReservationStaff(ctx, id); err != nil {
					return err
				}
				for _, r := range owned {
					u.touch(reservationKey(r.ID))
				}
				continue
			}
			for _, r := range locked[i] {
				if err := tx.DeleteReservation(ctx, r.ID); err != nil {
					return err
				}
				u.emit(domain.EventDeleted, r, r.Status, s.now())
			}
		case domain.EntityStaff:
			team, err := tx.StaffByManager(ctx, id)
			if err != nil {
				return err
			}
			if err := tx.ClearStaffManager(ctx, id); err != nil {
				return err
			}
			for _, m := range team {
				u.touch(staffKey(m.ID))
			}
		case domain.EntityRoom:
			rooms, err := tx.RoomsByManager(ctx, id)
			if err != nil {
				return err
			}
			if err := tx.ClearRoomManager(ctx, id); err != nil {
				return err
			}
			for _, r := range rooms {
				u.touch(roomKey(r.ID))
			}
		}
	}
	return nil
}

// lockOwned locks the rooms of every reservation id owns under rule, then the
// reservation rows. A reservation only changes under its room lock, so once
// the rooms are held a re-read is current; the loop picks up reservations
// that moved into a room not yet locked.
func lockOwned(ctx context.Context, tx domain.Tx, rule domain.OwnershipRule, id int64) ([]domain.Reservation, error) {
	held := map[int64]bool{}
	for {
		owned, err := ownedReservations(ctx, tx, rule, id)
		if err != nil {
			return nil, err
		}
		var missing []int64
		for _, r := range owned {
			if !held[r.RoomID] {
				held[r.RoomID] = true
				missing = append(missing, r.RoomID)
			}
		}
		if len(missing) > 0 {
			if _, err := lockRooms(ctx, tx, missing...); err != nil {
				return nil, err
			}
			continue
		}

		out := make([]domain.Reservation, 0, len(owned))
		for _, r := range owned {
			locked, err := tx.LockReservation(ctx, r.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, locked)
		}
		return out, nil
	}
}

// lockRooms locks rooms in ascending id order so two writers that need the
// same pair cannot deadlock.
func lockRooms(ctx context.Context, tx domain.Tx, ids ...int64) (map[int64]domain.Room, error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	out := make(map[int64]domain.Room, len(ids))
	for _, id := range ids {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = room
	}
	return out, nil
}

func ownedReservations(ctx context.Context, tx domain.Tx, rule domain.OwnershipRule, id int64) ([]domain.Reservation, error) {
	switch rule.Reference {
	case "guest_id":
		return tx.ReservationsByGuest(ctx, id)
	case "room_id":
		return tx.ReservationsByRoom(ctx, id)
	case "assigned_staff_id":
		return tx.ReservationsByStaff(ctx, id)
	}
	return nil, fmt.Errorf("no reservation index for %s.%s", rule.Dependent, rule.Reference)
}

// ---- guests ----

func (s *BookingService) CreateGuest(ctx context.Context, g domain.Guest) (domain.Guest, error) {
	g.ID = 0
	g = g.Normalized()
	if err := g.Validate(); err != nil {
		return domain.Guest{}, err
	}
	var out domain.Guest
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		var err error
		out, err = tx.InsertGuest(ctx, g)
		return err
	})
	return out, err
}

func (s *BookingService) UpdateGuest(ctx context.Context, g domain.Guest) (domain.Guest, error) {
	g = g.Normalized()
	if err := g.Validate(); err != nil {
		return domain.Guest{}, err
	}
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		if _, err := tx.GuestByID(ctx, g.ID); err != nil {
			return err
		}
		u.touch(guestKey(g.ID))
		return tx.UpdateGuest(ctx, g)
	})
	if err != nil {
		return domain.Guest{}, err
	}
	return g, nil
}

// DeleteGuest removes the guest with all of its reservations. It fails with
// ConflictError while any of them is CHECKED_IN.
func (s *BookingService) DeleteGuest(ctx context.Context, id int64) error {
	return s.run(ctx, func(tx domain.Tx, u *unit) error {
		if _, err := tx.GuestByID(ctx, id); err != nil {
			return err
		}
		if err := s.release(ctx, tx, u, domain.EntityGuest, id); err != nil {
			return err
		}
		u.touch(guestKey(id))
		return tx.DeleteGuest(ctx, id)
	})
}

// RemoveGuestReservation detaches a reservation from its guest; a detached
// reservation is deleted.
func (s *BookingService) RemoveGuestReservation(ctx context.Context, guestID, reservationID int64) error {
	return s.run(ctx, func(tx domain.Tx, u *unit) error {
		if _, err := tx.GuestByID(ctx, guestID); err != nil {
			return err
		}
		r, _, err := s.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if r.GuestID != guestID {
			return domain.NotFoundBy(domain.EntityReservation, "guest_id", fmt.Sprintf("%d/%d", guestID, reservationID))
		}
		return s.removeReservation(ctx, tx, u, r)
	})
}

// ---- rooms ----

func (s *BookingService) CreateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	r.ID = 0
	r.Number = strings.TrimSpace(r.Number)
	if r.Status == "" {
		r.Status = domain.RoomAvailable
	}
	if err := r.Validate(); err != nil {
		return domain.Room{}, err
	}
	var out domain.Room
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		if r.ManagerID != nil {
			if _, err := requireManager(ctx, tx, *r.ManagerID); err != nil {
				return err
			}
		}
		var err error
		out, err = tx.InsertRoom(ctx, r)
		return err
	})
	return out, err
}

// UpdateRoom rejects shrinking capacity below any open reservation's party.
func (s *BookingService) UpdateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	r.Number = strings.TrimSpace(r.Number)
	if err := r.Validate(); err != nil {
		return domain.Room{}, err
	}
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		if _, err := tx.LockRoom(ctx, r.ID); err != nil {
			return err
		}
		if r.ManagerID != nil {
			if _, err := requireManager(ctx, tx, *r.ManagerID); err != nil {
				return err
			}
		}
		existing, err := tx.ReservationsByRoom(ctx, r.ID)
		if err != nil {
			return err
		}
		if err := domain.CheckRoomResize(r, existing); err != nil {
			return err
		}
		u.touch(roomKey(r.ID))
		return tx.UpdateRoom(ctx, r)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return r, nil
}

func (s *BookingService) DeleteRoom(ctx context.Context, id int64) error {
	return s.run(ctx, func(tx domain.Tx, u *unit) error {
		if _, err := tx.LockRoom(ctx, id); err != nil {
			return err
		}
		if err := s.release(ctx, tx, u, domain.EntityRoom, id); err != nil {
			return err
		}
		u.touch(roomKey(id))
		return tx.DeleteRoom(ctx, id)
	})
}

func (s *BookingService) RemoveRoomReservation(ctx context.Context, roomID, reservationID int64) error {
	return s.run(ctx, func(tx domain.Tx, u *unit) error {
		r, _, err := s.lockReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if r.RoomID != roomID {
			return domain.NotFoundBy(domain.EntityReservation, "room_id", fmt.Sprintf("%d/%d", roomID, reservationID))
		}
		return s.removeReservation(ctx, tx, u, r)
	})
}

// AssignRoomManager sets the room's overseeing manager; managerID 0 clears it.
func (s *BookingService) AssignRoomManager(ctx context.Context, roomID, managerID int64) (domain.Room, error) {
	var out domain.Room
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		room, err := tx.LockRoom(ctx, roomID)
		if err != nil {
			return err
		}
		room.ManagerID = nil
		if managerID != 0 {
			if _, err := requireManager(ctx, tx, managerID); err != nil {
				return err
			}
			room.ManagerID = &managerID
		}
		u.touch(roomKey(roomID))
		out = room
		return tx.UpdateRoom(ctx, room)
	})
	return out, err
}
