// Package memory is an in-process transactional store used by tests and by
// the API when STORE=memory. Writers are serialized by one mutex and work on a
// copy of the state that is swapped in only when the transaction succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"overlook_hotel/internal/domain"
)

var (
	_ domain.Store = (*Store)(nil)
	_ domain.Tx    = (*tx)(nil)
)

type idSet map[int64]struct{}

func (s idSet) add(id int64) { s[id] = struct{}{} }
func (s idSet) clone() idSet {
	out := make(idSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

type state struct {
	seq struct{ guest, room, staff, reservation int64 }

	guests       map[int64]domain.Guest
	rooms        map[int64]domain.Room
	staff        map[int64]domain.StaffRecord // base rows, Management always nil
	managers     map[int64]domain.ManagementInfo
	reservations map[int64]domain.Reservation

	// uniqueness indexes
	guestEmail map[string]int64
	staffEmail map[string]int64
	roomNumber map[string]int64
	resCode    map[string]int64

	// relationship indexes
	team    map[int64]idSet // manager -> subordinates
	managed map[int64]idSet // manager -> rooms
	byGuest map[int64]idSet
	byRoom  map[int64]idSet
	byStaff map[int64]idSet
}

func newState() state {
	return state{
		guests:       map[int64]domain.Guest{},
		rooms:        map[int64]domain.Room{},
		staff:        map[int64]domain.StaffRecord{},
		managers:     map[int64]domain.ManagementInfo{},
		reservations: map[int64]domain.Reservation{},
		guestEmail:   map[string]int64{},
		staffEmail:   map[string]int64{},
		roomNumber:   map[string]int64{},
		resCode:      map[string]int64{},
		team:         map[int64]idSet{},
		managed:      map[int64]idSet{},
		byGuest:      map[int64]idSet{},
		byRoom:       map[int64]idSet{},
		byStaff:      map[int64]idSet{},
	}
}

func cloneMap[K comparable, V any](in map[K]V, f func(V) V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		if f != nil {
			v = f(v)
		}
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	c := s
	c.guests = cloneMap(s.guests, domain.Guest.Clone)
	c.rooms = cloneMap(s.rooms, domain.Room.Clone)
	c.staff = cloneMap(s.staff, domain.StaffRecord.Clone)
	c.managers = cloneMap(s.managers, nil)
	c.reservations = cloneMap(s.reservations, domain.Reservation.Clone)
	c.guestEmail = cloneMap(s.guestEmail, nil)
	c.staffEmail = cloneMap(s.staffEmail, nil)
	c.roomNumber = cloneMap(s.roomNumber, nil)
	c.resCode = cloneMap(s.resCode, nil)
	c.team = cloneMap(s.team, idSet.clone)
	c.managed = cloneMap(s.managed, idSet.clone)
	c.byGuest = cloneMap(s.byGuest, idSet.clone)
	c.byRoom = cloneMap(s.byRoom, idSet.clone)
	c.byStaff = cloneMap(s.byStaff, idSet.clone)
	return c
}

func link(idx map[int64]idSet, owner *int64, id int64) {
	if owner == nil {
		return
	}
	set, ok := idx[*owner]
	if !ok {
		set = idSet{}
		idx[*owner] = set
	}
	set.add(id)
}

func unlink(idx map[int64]idSet, owner *int64, id int64) {
	if owner == nil {
		return
	}
	if set, ok := idx[*owner]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(idx, *owner)
		}
	}
}

func sortedIDs(set idSet) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state state
}

func New() *Store { return &Store{state: newState()} }

// WithinTx holds the writer lock for the whole of fn, which serializes every
// overlap check with its write.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{st: s.state.clone()}
	if err := fn(t); err != nil {
		return err
	}
	s.state = t.st
	return nil
}

func (s *Store) view() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	return &st
}

// Reads on Store see the last committed state. Maps are replaced, never
// mutated, after commit, so reading them outside the lock is safe.

func (s *Store) GuestByID(ctx context.Context, id int64) (domain.Guest, error) {
	return s.view().guestByID(id)
}
func (s *Store) GuestByEmail(ctx context.Context, email string) (domain.Guest, error) {
	return s.view().guestByEmail(email)
}
func (s *Store) RoomByID(ctx context.Context, id int64) (domain.Room, error) {
	return s.view().roomByID(id)
}
func (s *Store) RoomByNumber(ctx context.Context, number string) (domain.Room, error) {
	return s.view().roomByNumber(number)
}
func (s *Store) StaffByID(ctx context.Context, id int64) (domain.StaffRecord, error) {
	return s.view().staffByID(id)
}
func (s *Store) StaffByEmail(ctx context.Context, email string) (domain.StaffRecord, error) {
	return s.view().staffByEmail(email)
}
func (s *Store) ReservationByID(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.view().reservationByID(id)
}
func (s *Store) ReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	return s.view().reservationByCode(code)
}
func (s *Store) ReservationsByGuest(ctx context.Context, guestID int64) ([]domain.Reservation, error) {
	v := s.view()
	return v.reservationsIn(v.byGuest[guestID]), nil
}
func (s *Store) ReservationsByRoom(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	v := s.view()
	return v.reservationsIn(v.byRoom[roomID]), nil
}
func (s *Store) ReservationsByStaff(ctx context.Context, staffID int64) ([]domain.Reservation, error) {
	v := s.view()
	return v.reservationsIn(v.byStaff[staffID]), nil
}
func (s *Store) StaffByManager(ctx context.Context, managerID int64) ([]domain.StaffRecord, error) {
	return s.view().staffByManager(managerID), nil
}
func (s *Store) RoomsByManager(ctx context.Context, managerID int64) ([]domain.Room, error) {
	return s.view().roomsByManager(managerID), nil
}
