package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlook_hotel/internal/app"
	"overlook_hotel/internal/domain"
	"overlook_hotel/internal/storage/memory"
)

const seedJSON = `{
  "staff": [
    {"first_name": "Stuart", "last_name": "Ullman", "email": "ullman@overlook.test", "position": "GM",
     "hire_date": "2019-05-01", "management": {"department": "Front Office", "access_level": 5}},
    {"first_name": "Dick", "last_name": "Hallorann", "email": "hallorann@overlook.test", "position": "Chef",
     "manager_email": "ULLMAN@overlook.test"}
  ],
  "guests": [
    {"first_name": "Jack", "last_name": "Torrance", "email": "jack@overlook.test", "birth_date": "1970-01-15"},
    {"first_name": "Wendy", "last_name": "Torrance", "email": "wendy@overlook.test"}
  ],
  "rooms": [
    {"number": "237", "floor": 2, "capacity": 2, "nightly_rate_cents": 12000, "type": "SUITE", "manager_email": "ullman@overlook.test"},
    {"number": "101", "floor": 1, "capacity": 1, "nightly_rate_cents": 8000, "type": "SINGLE"}
  ],
  "reservations": [
    {"code": "OVL-A", "guest_email": "jack@overlook.test", "room_number": "237", "check_in_date": "2024-07-01",
     "check_out_date": "2024-07-04", "guest_count": 2, "status": "CONFIRMED", "total_amount_cents": 36000,
     "staff_email": "hallorann@overlook.test"},
    {"code": "OVL-B", "guest_email": "wendy@overlook.test", "room_number": "237", "check_in_date": "2024-07-02",
     "check_out_date": "2024-07-05", "status": "CONFIRMED", "total_amount_cents": 36000},
    {"code": "OVL-C", "guest_email": "wendy@overlook.test", "room_number": "101", "check_in_date": "2024-07-02",
     "check_out_date": "2024-07-03"},
    {"code": "OVL-D", "guest_email": "danny@overlook.test", "room_number": "101", "check_in_date": "2024-08-01",
     "check_out_date": "2024-08-02"}
  ]
}`

func TestSeeder_LoadsGraphAndReportsFailures(t *testing.T) {
	data, err := app.DecodeSeed(strings.NewReader(seedJSON))
	require.NoError(t, err)

	store := memory.New()
	svc := app.NewBookingService(store, nil, nil, app.WithClock(func() time.Time { return today }))
	q := app.NewQueryService(store, nil, time.Minute)
	ctx := context.Background()

	report, err := app.NewSeeder(svc, 4).Seed(ctx, data)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created[domain.EntityStaff])
	assert.Equal(t, 1, report.Created[domain.EntityManager])
	assert.Equal(t, 2, report.Created[domain.EntityGuest])
	assert.Equal(t, 2, report.Created[domain.EntityRoom])
	// OVL-A and OVL-B overlap on room 237, so exactly one of them lands.
	assert.Equal(t, 2, report.Created[domain.EntityReservation])
	require.Len(t, report.Failed, 2)
	for _, f := range report.Failed {
		assert.Equal(t, domain.EntityReservation, f.Entity)
	}

	mgr, err := q.GetStaffByEmail(ctx, "ullman@overlook.test")
	require.NoError(t, err)
	team, err := q.ListTeam(ctx, mgr.ID)
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "hallorann@overlook.test", team[0].Email)

	rooms, err := q.ListManagedRooms(ctx, mgr.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "237", rooms[0].Number)

	single, err := q.GetRoomByNumber(ctx, "101")
	require.NoError(t, err)
	list, err := q.ListRoomReservations(ctx, single.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusPending, list[0].Status)
	assert.Equal(t, 1, list[0].GuestCount)
}

func TestDecodeSeed_RejectsUnknownFields(t *testing.T) {
	_, err := app.DecodeSeed(strings.NewReader(`{"hotels": []}`))
	assert.Error(t, err)
}

func TestSeeder_CancelledContext(t *testing.T) {
	data, err := app.DecodeSeed(strings.NewReader(seedJSON))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := app.NewBookingService(memory.New(), nil, nil)
	_, err = app.NewSeeder(svc, 2).Seed(ctx, data)
	assert.ErrorIs(t, err, context.Canceled)
}
