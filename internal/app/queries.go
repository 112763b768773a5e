package app

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"overlook_hotel/internal/domain"
)

// QueryService serves reads without locks. Entities fetched by id go through
// the cache and may be stale for up to the TTL. That includes deletes: a fill
// that loaded the row before a delete committed can land after the delete's
// eviction, and the deleted record stays fetchable by id until the entry
// expires. Lookups by code, email or number and every list read hit the
// store directly.
type QueryService struct {
	store    domain.Reader
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewQueryService(r domain.Reader, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: r, cache: c, cacheTTL: ttl}
}

type cloner[T any] interface{ Clone() T }

// cached reads key from the cache and fills it from load on a miss.
// Concurrent misses for one key share a single load.
func cached[T cloner[T]](ctx context.Context, s *QueryService, key string, load func() (T, error)) (T, error) {
	var out T
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		x, err := load()
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, key, x, s.cacheTTL)
		}
		return x, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T).Clone(), nil
}

func (s *QueryService) GetGuest(ctx context.Context, id int64) (domain.Guest, error) {
	return cached(ctx, s, guestKey(id), func() (domain.Guest, error) { return s.store.GuestByID(ctx, id) })
}

func (s *QueryService) GetGuestByEmail(ctx context.Context, email string) (domain.Guest, error) {
	return s.store.GuestByEmail(ctx, email)
}

func (s *QueryService) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	return cached(ctx, s, roomKey(id), func() (domain.Room, error) { return s.store.RoomByID(ctx, id) })
}

func (s *QueryService) GetRoomByNumber(ctx context.Context, number string) (domain.Room, error) {
	return s.store.RoomByNumber(ctx, number)
}

// GetStaff returns either variant.
func (s *QueryService) GetStaff(ctx context.Context, id int64) (domain.StaffRecord, error) {
	return cached(ctx, s, staffKey(id), func() (domain.StaffRecord, error) { return s.store.StaffByID(ctx, id) })
}

func (s *QueryService) GetStaffByEmail(ctx context.Context, email string) (domain.StaffRecord, error) {
	return s.store.StaffByEmail(ctx, email)
}

// GetManager is the manager accessor: same identity as GetStaff, NotFound
// for staff without management info.
func (s *QueryService) GetManager(ctx context.Context, id int64) (domain.StaffRecord, error) {
	st, err := s.GetStaff(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.StaffRecord{}, domain.NotFound(domain.EntityManager, id)
		}
		return domain.StaffRecord{}, err
	}
	if !st.IsManager() {
		return domain.StaffRecord{}, domain.NotFound(domain.EntityManager, id)
	}
	return st, nil
}

func (s *QueryService) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return cached(ctx, s, reservationKey(id), func() (domain.Reservation, error) { return s.store.ReservationByID(ctx, id) })
}

func (s *QueryService) GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	return s.store.ReservationByCode(ctx, code)
}

func (s *QueryService) ListGuestReservations(ctx context.Context, guestID int64) ([]domain.Reservation, error) {
	if _, err := s.store.GuestByID(ctx, guestID); err != nil {
		return nil, err
	}
	return s.store.ReservationsByGuest(ctx, guestID)
}

func (s *QueryService) ListRoomReservations(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	if _, err := s.store.RoomByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.ReservationsByRoom(ctx, roomID)
}

func (s *QueryService) ListStaffReservations(ctx context.Context, staffID int64) ([]domain.Reservation, error) {
	if _, err := s.store.StaffByID(ctx, staffID); err != nil {
		return nil, err
	}
	return s.store.ReservationsByStaff(ctx, staffID)
}

func (s *QueryService) ListTeam(ctx context.Context, managerID int64) ([]domain.StaffRecord, error) {
	if _, err := s.managerFromStore(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.StaffByManager(ctx, managerID)
}

func (s *QueryService) ListManagedRooms(ctx context.Context, managerID int64) ([]domain.Room, error) {
	if _, err := s.managerFromStore(ctx, managerID); err != nil {
		return nil, err
	}
	return s.store.RoomsByManager(ctx, managerID)
}

func (s *QueryService) managerFromStore(ctx context.Context, id int64) (domain.StaffRecord, error) {
	st, err := s.store.StaffByID(ctx, id)
	if err != nil && !domain.IsNotFound(err) {
		return domain.StaffRecord{}, err
	}
	if err != nil || !st.IsManager() {
		return domain.StaffRecord{}, domain.NotFound(domain.EntityManager, id)
	}
	return st, nil
}

// CheckAvailability reports whether no CONFIRMED or CHECKED_IN reservation of
// the room intersects [in, out).
func (s *QueryService) CheckAvailability(ctx context.Context, roomID int64, in, out time.Time) (bool, error) {
	stay := domain.NewStay(in, out)
	if err := stay.Validate(); err != nil {
		return false, err
	}
	if _, err := s.store.RoomByID(ctx, roomID); err != nil {
		return false, err
	}
	existing, err := s.store.ReservationsByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	return domain.IsAvailable(existing, stay), nil
}
