package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"overlook_hotel/internal/app"
	"overlook_hotel/internal/domain"
	"overlook_hotel/internal/storage/memory"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	today := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	h := &Handlers{
		Cmd: app.NewBookingService(store, nil, nil, app.WithClock(func() time.Time { return today })),
		Q:   app.NewQueryService(store, nil, time.Minute),
	}
	s := New(Options{})
	s.MountHandlers(h)
	return s.Mux()
}

func do(t *testing.T, h http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func seedGuestAndRoom(t *testing.T, h http.Handler) (guestID, roomID int64) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/guests", map[string]any{
		"first_name": "Jack", "last_name": "Torrance", "email": "jack@overlook.test", "birth_date": "1970-01-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create guest: %d %s", rec.Code, rec.Body.String())
	}
	var g guestDTO
	decodeInto(t, rec, &g)
	if g.BirthDate != "1970-01-15" {
		t.Fatalf("birth date round trip: %q", g.BirthDate)
	}

	rec = do(t, h, http.MethodPost, "/v1/rooms", map[string]any{
		"number": "237", "floor": 2, "capacity": 2, "nightly_rate_cents": 12000, "type": "SUITE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create room: %d %s", rec.Code, rec.Body.String())
	}
	var room roomDTO
	decodeInto(t, rec, &room)
	if room.Status != domain.RoomAvailable {
		t.Fatalf("room status default: %q", room.Status)
	}
	return g.ID, room.ID
}

func bookingBody(guestID, roomID int64, in, out string, guests int) map[string]any {
	return map[string]any{
		"guest_id": guestID, "room_id": roomID,
		"check_in_date": in, "check_out_date": out,
		"guest_count": guests, "status": "CONFIRMED", "total_amount_cents": 24000,
	}
}

func TestReservationRoutes_BookingRules(t *testing.T) {
	h := newTestServer(t)
	guestID, roomID := seedGuestAndRoom(t, h)

	rec := do(t, h, http.MethodPost, "/v1/reservations", bookingBody(guestID, roomID, "2024-06-10", "2024-06-12", 2))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reservation: %d %s", rec.Code, rec.Body.String())
	}
	var res reservationDTO
	decodeInto(t, rec, &res)
	if res.Nights != 2 || res.Code == "" || res.Status != domain.StatusConfirmed {
		t.Fatalf("unexpected reservation: %+v", res)
	}

	rec = do(t, h, http.MethodPost, "/v1/reservations", bookingBody(guestID, roomID, "2024-06-11", "2024-06-13", 1))
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlap: want 409, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type: %q", ct)
	}

	rec = do(t, h, http.MethodPost, "/v1/reservations", bookingBody(guestID, roomID, "2024-06-12", "2024-06-14", 3))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("capacity: want 422, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/v1/reservations", bookingBody(guestID, roomID, "2024-06-12", "2024-06-14", 2))
	if rec.Code != http.StatusCreated {
		t.Fatalf("adjacent booking: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/rooms/%d/availability?check_in=2024-06-11&check_out=2024-06-12", roomID), nil)
	var av availabilityDTO
	decodeInto(t, rec, &av)
	if rec.Code != http.StatusOK || av.Available {
		t.Fatalf("availability: %d %+v", rec.Code, av)
	}

	rec = do(t, h, http.MethodGet, "/v1/reservations?code="+res.Code, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("by code: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/guests/%d/reservations", guestID), nil)
	var list []reservationDTO
	decodeInto(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("guest reservations: %d", len(list))
	}
}

func TestTransitionRoute(t *testing.T) {
	h := newTestServer(t)
	guestID, roomID := seedGuestAndRoom(t, h)

	rec := do(t, h, http.MethodPost, "/v1/reservations", bookingBody(guestID, roomID, "2024-06-01", "2024-06-05", 1))
	var res reservationDTO
	decodeInto(t, rec, &res)

	path := fmt.Sprintf("/v1/reservations/%d/transitions", res.ID)
	rec = do(t, h, http.MethodPost, path, map[string]string{"status": "CHECKED_OUT"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("skip to checkout: want 409, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, path, map[string]string{"status": "CHECKED_IN"})
	if rec.Code != http.StatusOK {
		t.Fatalf("check in: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/rooms/%d", roomID), nil)
	var room roomDTO
	decodeInto(t, rec, &room)
	if room.Status != domain.RoomOccupied {
		t.Fatalf("room after check in: %q", room.Status)
	}

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/v1/guests/%d", guestID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete checked-in guest: want 409, got %d", rec.Code)
	}
}

func TestGetGuest_ETagAndErrors(t *testing.T) {
	h := newTestServer(t)
	guestID, _ := seedGuestAndRoom(t, h)

	path := fmt.Sprintf("/v1/guests/%d", guestID)
	rec := do(t, h, http.MethodGet, path, nil)
	etag := rec.Header().Get("ETag")
	if rec.Code != http.StatusOK || etag == "" {
		t.Fatalf("get guest: %d etag=%q", rec.Code, etag)
	}
	rec = do(t, h, http.MethodGet, path, nil, "If-None-Match", etag)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("conditional get: want 304, got %d", rec.Code)
	}

	if rec = do(t, h, http.MethodGet, "/v1/guests/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, "/v1/guests/999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing guest: %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, "/v1/guests", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing email: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/guests", map[string]any{
		"first_name": "W", "last_name": "T", "email": "JACK@overlook.test",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/guests", map[string]any{"first_name": "W", "nickname": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", rec.Code)
	}
}

func TestManagerRoutes(t *testing.T) {
	h := newTestServer(t)
	_, roomID := seedGuestAndRoom(t, h)

	rec := do(t, h, http.MethodPost, "/v1/staff", map[string]any{
		"first_name": "Stuart", "last_name": "Ullman", "email": "ullman@overlook.test", "position": "GM",
	})
	var st staffDTO
	decodeInto(t, rec, &st)

	if rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/managers/%d", st.ID), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("plain staff as manager: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, fmt.Sprintf("/v1/staff/%d/promotion", st.ID), map[string]any{
		"department": "Front Office", "access_level": 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("promote: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPut, fmt.Sprintf("/v1/rooms/%d/manager", roomID), map[string]any{"manager_id": st.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign room manager: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/managers/%d/rooms", st.ID), nil)
	var rooms []roomDTO
	decodeInto(t, rec, &rooms)
	if len(rooms) != 1 || rooms[0].ID != roomID {
		t.Fatalf("managed rooms: %+v", rooms)
	}

	if rec = do(t, h, http.MethodDelete, fmt.Sprintf("/v1/managers/%d", st.ID), nil); rec.Code != http.StatusOK {
		t.Fatalf("demote: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/rooms/%d", roomID), nil)
	var room roomDTO
	decodeInto(t, rec, &room)
	if room.ManagerID != nil {
		t.Fatalf("room still managed after demotion: %v", *room.ManagerID)
	}
}

func TestRateLimit(t *testing.T) {
	s := New(Options{RateLimitRPS: 0.001})
	s.MountHandlers(&Handlers{})

	first := do(t, s.Mux(), http.MethodGet, "/v1/guests/abc", nil)
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request limited")
	}
	second := do(t, s.Mux(), http.MethodGet, "/v1/guests/abc", nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", second.Code)
	}
	if hz := do(t, s.Mux(), http.MethodGet, "/healthz", nil); hz.Code != http.StatusOK {
		t.Fatalf("healthz limited: %d", hz.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.NotFound(domain.EntityRoom, 1), http.StatusNotFound},
		{&domain.ValidationError{Entity: "guest", Field: "email", Reason: "is required"}, http.StatusUnprocessableEntity},
		{&domain.CapacityError{}, http.StatusUnprocessableEntity},
		{&domain.OverlapError{}, http.StatusConflict},
		{&domain.UniquenessError{}, http.StatusConflict},
		{&domain.ConflictError{}, http.StatusConflict},
		{&domain.InvalidTransitionError{}, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", &domain.OverlapError{}), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Errorf("statusFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
