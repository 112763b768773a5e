package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlook_hotel/internal/app"
	"overlook_hotel/internal/domain"
	mysqlrepo "overlook_hotel/internal/storage/mysql"
)

// These run the booking service against the MySQL store with sqlmock, which
// matches statements in order, so each expectation list is the exact lock
// sequence a transaction issues.

var (
	lockGuestCols = []string{"id", "first_name", "last_name", "email", "phone_number", "birth_date", "nationality"}
	lockRoomCols  = []string{"id", "number", "floor", "capacity", "nightly_rate_cents", "type", "status", "manager_id"}
	lockResCols   = []string{
		"id", "code", "created_at", "check_in_date", "check_out_date", "guest_count",
		"status", "total_amount_cents", "guest_id", "room_id", "employee_id",
	}
	lockCreated = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
)

func sqlService(t *testing.T) (sqlmock.Sqlmock, *app.BookingService) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mock, app.NewBookingService(mysqlrepo.New(db), nil, nil)
}

func guestRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows(lockGuestCols).AddRow(id, "Jack", "Torrance", "jack@overlook.test", nil, nil, nil)
}

func roomRow(id int64, number string) *sqlmock.Rows {
	return sqlmock.NewRows(lockRoomCols).AddRow(id, number, 2, 4, 12000, "SUITE", "AVAILABLE", nil)
}

type resRow struct {
	id, room int64
	status   string
}

func reservationRows(guest int64, rows ...resRow) *sqlmock.Rows {
	out := sqlmock.NewRows(lockResCols)
	for _, r := range rows {
		out.AddRow(r.id, "OVL-"+r.status, lockCreated, june(10), june(12), 2, r.status, 24000, guest, r.room, nil)
	}
	return out
}

func TestDeleteGuest_LocksRoomsAndReservationsBeforeDeleting(t *testing.T) {
	mock, svc := sqlService(t)

	owned := []resRow{{id: 9, room: 7, status: "CONFIRMED"}, {id: 12, room: 4, status: "PENDING"}}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM guests WHERE id = \?`).WithArgs(int64(10)).WillReturnRows(guestRow(10))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).WillReturnRows(reservationRows(10, owned...))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(4)).WillReturnRows(roomRow(4, "104"))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(7)).WillReturnRows(roomRow(7, "107"))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).WillReturnRows(reservationRows(10, owned...))
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).WithArgs(int64(9)).WillReturnRows(reservationRows(10, owned[0]))
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).WithArgs(int64(12)).WillReturnRows(reservationRows(10, owned[1]))
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).WithArgs(int64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM guests WHERE id = \?`).WithArgs(int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteGuest(context.Background(), 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteGuest_CheckInCommittedDuringDeleteBlocksIt(t *testing.T) {
	mock, svc := sqlService(t)

	before := resRow{id: 9, room: 4, status: "CONFIRMED"}
	after := resRow{id: 9, room: 4, status: "CHECKED_IN"}

	// The first read predates a check-in that commits while the room lock is
	// awaited; everything read under the lock must see it.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM guests WHERE id = \?`).WithArgs(int64(10)).WillReturnRows(guestRow(10))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).WillReturnRows(reservationRows(10, before))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(4)).WillReturnRows(roomRow(4, "104"))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).WillReturnRows(reservationRows(10, after))
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).WithArgs(int64(9)).WillReturnRows(reservationRows(10, after))
	mock.ExpectRollback()

	err := svc.DeleteGuest(context.Background(), 10)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.EntityGuest, ce.Entity)
	assert.Equal(t, int64(9), ce.ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteGuest_ReservationMovedWhileWaitingLocksNewRoom(t *testing.T) {
	mock, svc := sqlService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM guests WHERE id = \?`).WithArgs(int64(10)).WillReturnRows(guestRow(10))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).
		WillReturnRows(reservationRows(10, resRow{id: 9, room: 4, status: "PENDING"}))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(4)).WillReturnRows(roomRow(4, "104"))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).
		WillReturnRows(reservationRows(10, resRow{id: 9, room: 7, status: "PENDING"}))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(7)).WillReturnRows(roomRow(7, "107"))
	mock.ExpectQuery(`FROM reservations WHERE guest_id = \?`).WithArgs(int64(10)).
		WillReturnRows(reservationRows(10, resRow{id: 9, room: 7, status: "PENDING"}))
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).WithArgs(int64(9)).
		WillReturnRows(reservationRows(10, resRow{id: 9, room: 7, status: "PENDING"}))
	mock.ExpectExec(`DELETE FROM reservations WHERE id = \?`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM guests WHERE id = \?`).WithArgs(int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteGuest(context.Background(), 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation_LocksBothRoomsInIDOrder(t *testing.T) {
	mock, svc := sqlService(t)

	current := resRow{id: 9, room: 7, status: "PENDING"}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \?`).WithArgs(int64(9)).WillReturnRows(reservationRows(10, current))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(4)).WillReturnRows(roomRow(4, "104"))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(int64(7)).WillReturnRows(roomRow(7, "107"))
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).WithArgs(int64(9)).WillReturnRows(reservationRows(10, current))
	mock.ExpectQuery(`FROM reservations WHERE room_id = \?`).WithArgs(int64(4)).WillReturnRows(sqlmock.NewRows(lockResCols))
	mock.ExpectExec(`UPDATE reservations SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	moved := domain.NewReservation().Code("OVL-PENDING").Guest(10).Room(4).
		Dates(june(10), june(12)).Guests(2).Total(24000).Build()
	moved.ID = 9
	got, err := svc.UpdateReservation(context.Background(), moved)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
