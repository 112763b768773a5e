package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlook_hotel/internal/domain"
	"overlook_hotel/internal/storage/memory"
)

func seed(t *testing.T, s *memory.Store) (domain.Guest, domain.Room, domain.StaffRecord) {
	t.Helper()
	var (
		g   domain.Guest
		r   domain.Room
		mgr domain.StaffRecord
	)
	err := s.WithinTx(context.Background(), func(tx domain.Tx) error {
		var err error
		g, err = tx.InsertGuest(context.Background(), domain.NewGuest().Name("Ada", "Lovelace").Email("Ada@Example.com").Build())
		if err != nil {
			return err
		}
		mgr, err = tx.InsertStaff(context.Background(), domain.StaffRecord{
			FirstName: "Mia", LastName: "Wallace", Email: "mia@overlook.test", Position: "Manager",
			Management: &domain.ManagementInfo{Department: "Rooms", AccessLevel: 3},
		})
		if err != nil {
			return err
		}
		r, err = tx.InsertRoom(context.Background(), domain.NewRoom().Number("101").Capacity(2).NightlyRate(9000).Type(domain.RoomDouble).Manager(mgr.ID).Build())
		return err
	})
	require.NoError(t, err)
	return g, r, mgr
}

func TestInsertAssignsIDsAndIndexes(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	g, r, mgr := seed(t, s)

	assert.NotZero(t, g.ID)
	assert.NotZero(t, r.ID)

	byEmail, err := s.GuestByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byEmail.ID)

	byNumber, err := s.RoomByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, r.ID, byNumber.ID)

	got, err := s.StaffByID(ctx, mgr.ID)
	require.NoError(t, err)
	require.True(t, got.IsManager())
	assert.Equal(t, 3, got.Management.AccessLevel)

	rooms, err := s.RoomsByManager(ctx, mgr.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, r.ID, rooms[0].ID)
}

func TestDuplicateEmailIsUniquenessError(t *testing.T) {
	s := memory.New()
	seed(t, s)

	err := s.WithinTx(context.Background(), func(tx domain.Tx) error {
		_, err := tx.InsertGuest(context.Background(), domain.NewGuest().Name("A", "B").Email(" ADA@example.com ").Build())
		return err
	})
	var ue *domain.UniquenessError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "email", ue.Field)
}

func TestFailedTxLeavesNoTrace(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx domain.Tx) error {
		if _, err := tx.InsertGuest(ctx, domain.NewGuest().Name("A", "B").Email("a@b.c").Build()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GuestByEmail(ctx, "a@b.c")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteStaffNullsReferences(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	g, r, mgr := seed(t, s)

	var clerk domain.StaffRecord
	var res domain.Reservation
	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		var err error
		clerk, err = tx.InsertStaff(ctx, domain.StaffRecord{
			FirstName: "Vince", LastName: "Vega", Email: "vince@overlook.test", Position: "Porter", ManagerID: &mgr.ID,
		})
		if err != nil {
			return err
		}
		res, err = tx.InsertReservation(ctx, domain.NewReservation().Code("C1").Guest(g.ID).Room(r.ID).
			Dates(domain.Date(2030, 1, 1), domain.Date(2030, 1, 3)).AssignedTo(mgr.ID).Build())
		return err
	}))

	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error { return tx.DeleteStaff(ctx, mgr.ID) }))

	gotClerk, err := s.StaffByID(ctx, clerk.ID)
	require.NoError(t, err)
	assert.Nil(t, gotClerk.ManagerID)

	gotRoom, err := s.RoomByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRoom.ManagerID)

	gotRes, err := s.ReservationByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRes.AssignedStaffID)

	byStaff, err := s.ReservationsByStaff(ctx, mgr.ID)
	require.NoError(t, err)
	assert.Empty(t, byStaff)
}

func TestDeleteRoomDropsItsReservations(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	g, r, _ := seed(t, s)

	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		_, err := tx.InsertReservation(ctx, domain.NewReservation().Code("C1").Guest(g.ID).Room(r.ID).
			Dates(domain.Date(2030, 1, 1), domain.Date(2030, 1, 3)).Build())
		return err
	}))
	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error { return tx.DeleteRoom(ctx, r.ID) }))

	_, err := s.ReservationByCode(ctx, "C1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	list, err := s.ReservationsByGuest(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReservationNeedsExistingGuest(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	_, r, _ := seed(t, s)

	err := s.WithinTx(ctx, func(tx domain.Tx) error {
		_, err := tx.InsertReservation(ctx, domain.NewReservation().Code("C1").Guest(999).Room(r.ID).
			Dates(domain.Date(2030, 1, 1), domain.Date(2030, 1, 3)).Build())
		return err
	})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.EntityGuest, nf.Entity)
}

func TestDemotionByUpdateClearsTeam(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	_, r, mgr := seed(t, s)

	require.NoError(t, s.WithinTx(ctx, func(tx domain.Tx) error {
		m, err := tx.StaffByID(ctx, mgr.ID)
		if err != nil {
			return err
		}
		m.Management = nil
		return tx.UpdateStaff(ctx, m)
	}))

	got, err := s.StaffByID(ctx, mgr.ID)
	require.NoError(t, err)
	assert.False(t, got.IsManager())
	room, err := s.RoomByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, room.ManagerID)
}

func TestCancelledContextSkipsTx(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.WithinTx(ctx, func(domain.Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
