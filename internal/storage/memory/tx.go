package memory

import (
	"context"
	"sort"
	"strings"

	"overlook_hotel/internal/domain"
)

// ---- reads shared by Store and tx ----

func (st *state) guestByID(id int64) (domain.Guest, error) {
	g, ok := st.guests[id]
	if !ok {
		return domain.Guest{}, domain.NotFound(domain.EntityGuest, id)
	}
	return g.Clone(), nil
}

func (st *state) guestByEmail(email string) (domain.Guest, error) {
	id, ok := st.guestEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.Guest{}, domain.NotFoundBy(domain.EntityGuest, "email", email)
	}
	return st.guestByID(id)
}

func (st *state) roomByID(id int64) (domain.Room, error) {
	r, ok := st.rooms[id]
	if !ok {
		return domain.Room{}, domain.NotFound(domain.EntityRoom, id)
	}
	return r.Clone(), nil
}

func (st *state) roomByNumber(number string) (domain.Room, error) {
	id, ok := st.roomNumber[strings.TrimSpace(number)]
	if !ok {
		return domain.Room{}, domain.NotFoundBy(domain.EntityRoom, "number", number)
	}
	return st.roomByID(id)
}

// staffByID joins the base row with its management extension, if any.
func (st *state) staffByID(id int64) (domain.StaffRecord, error) {
	s, ok := st.staff[id]
	if !ok {
		return domain.StaffRecord{}, domain.NotFound(domain.EntityStaff, id)
	}
	out := s.Clone()
	if m, ok := st.managers[id]; ok {
		out.Management = &m
	}
	return out, nil
}

func (st *state) staffByEmail(email string) (domain.StaffRecord, error) {
	id, ok := st.staffEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.StaffRecord{}, domain.NotFoundBy(domain.EntityStaff, "email", email)
	}
	return st.staffByID(id)
}

func (st *state) reservationByID(id int64) (domain.Reservation, error) {
	r, ok := st.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.NotFound(domain.EntityReservation, id)
	}
	return r.Clone(), nil
}

func (st *state) reservationByCode(code string) (domain.Reservation, error) {
	id, ok := st.resCode[strings.TrimSpace(code)]
	if !ok {
		return domain.Reservation{}, domain.NotFoundBy(domain.EntityReservation, "code", code)
	}
	return st.reservationByID(id)
}

func (st *state) reservationsIn(set idSet) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(set))
	for _, id := range sortedIDs(set) {
		out = append(out, st.reservations[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckInDate.Before(out[j].CheckInDate) })
	return out
}

func (st *state) staffByManager(managerID int64) []domain.StaffRecord {
	out := make([]domain.StaffRecord, 0, len(st.team[managerID]))
	for _, id := range sortedIDs(st.team[managerID]) {
		s, _ := st.staffByID(id)
		out = append(out, s)
	}
	return out
}

func (st *state) roomsByManager(managerID int64) []domain.Room {
	out := make([]domain.Room, 0, len(st.managed[managerID]))
	for _, id := range sortedIDs(st.managed[managerID]) {
		out = append(out, st.rooms[id].Clone())
	}
	return out
}

// ---- tx ----

type tx struct{ st state }

func (t *tx) GuestByID(_ context.Context, id int64) (domain.Guest, error) { return t.st.guestByID(id) }
func (t *tx) GuestByEmail(_ context.Context, email string) (domain.Guest, error) {
	return t.st.guestByEmail(email)
}
func (t *tx) RoomByID(_ context.Context, id int64) (domain.Room, error) { return t.st.roomByID(id) }
func (t *tx) RoomByNumber(_ context.Context, number string) (domain.Room, error) {
	return t.st.roomByNumber(number)
}
func (t *tx) StaffByID(_ context.Context, id int64) (domain.StaffRecord, error) {
	return t.st.staffByID(id)
}
func (t *tx) StaffByEmail(_ context.Context, email string) (domain.StaffRecord, error) {
	return t.st.staffByEmail(email)
}
func (t *tx) ReservationByID(_ context.Context, id int64) (domain.Reservation, error) {
	return t.st.reservationByID(id)
}
func (t *tx) ReservationByCode(_ context.Context, code string) (domain.Reservation, error) {
	return t.st.reservationByCode(code)
}
func (t *tx) ReservationsByGuest(_ context.Context, guestID int64) ([]domain.Reservation, error) {
	return t.st.reservationsIn(t.st.byGuest[guestID]), nil
}
func (t *tx) ReservationsByRoom(_ context.Context, roomID int64) ([]domain.Reservation, error) {
	return t.st.reservationsIn(t.st.byRoom[roomID]), nil
}
func (t *tx) ReservationsByStaff(_ context.Context, staffID int64) ([]domain.Reservation, error) {
	return t.st.reservationsIn(t.st.byStaff[staffID]), nil
}
func (t *tx) StaffByManager(_ context.Context, managerID int64) ([]domain.StaffRecord, error) {
	return t.st.staffByManager(managerID), nil
}
func (t *tx) RoomsByManager(_ context.Context, managerID int64) ([]domain.Room, error) {
	return t.st.roomsByManager(managerID), nil
}

// The store-wide writer lock is already held, so locking is a plain read.
func (t *tx) LockRoom(_ context.Context, id int64) (domain.Room, error) { return t.st.roomByID(id) }
func (t *tx) LockReservation(_ context.Context, id int64) (domain.Reservation, error) {
	return t.st.reservationByID(id)
}

// ---- guests ----

func (t *tx) InsertGuest(_ context.Context, g domain.Guest) (domain.Guest, error) {
	g = g.Normalized()
	if _, taken := t.st.guestEmail[g.Email]; taken {
		return domain.Guest{}, &domain.UniquenessError{Entity: domain.EntityGuest, Field: "email", Value: g.Email}
	}
	t.st.seq.guest++
	g.ID = t.st.seq.guest
	t.st.guests[g.ID] = g.Clone()
	t.st.guestEmail[g.Email] = g.ID
	return g, nil
}

func (t *tx) UpdateGuest(_ context.Context, g domain.Guest) error {
	old, ok := t.st.guests[g.ID]
	if !ok {
		return domain.NotFound(domain.EntityGuest, g.ID)
	}
	g = g.Normalized()
	if owner, taken := t.st.guestEmail[g.Email]; taken && owner != g.ID {
		return &domain.UniquenessError{Entity: domain.EntityGuest, Field: "email", Value: g.Email}
	}
	delete(t.st.guestEmail, old.Email)
	t.st.guestEmail[g.Email] = g.ID
	t.st.guests[g.ID] = g.Clone()
	return nil
}

// DeleteGuest removes the guest and, like the foreign key, any reservation
// still referencing it.
func (t *tx) DeleteGuest(_ context.Context, id int64) error {
	g, ok := t.st.guests[id]
	if !ok {
		return domain.NotFound(domain.EntityGuest, id)
	}
	for _, rid := range sortedIDs(t.st.byGuest[id]) {
		t.dropReservation(rid)
	}
	delete(t.st.guestEmail, g.Email)
	delete(t.st.guests, id)
	return nil
}

// ---- rooms ----

func (t *tx) checkManager(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := t.st.managers[*id]; !ok {
		return domain.NotFound(domain.EntityManager, *id)
	}
	return nil
}

func (t *tx) InsertRoom(_ context.Context, r domain.Room) (domain.Room, error) {
	r.Number = strings.TrimSpace(r.Number)
	if _, taken := t.st.roomNumber[r.Number]; taken {
		return domain.Room{}, &domain.UniquenessError{Entity: domain.EntityRoom, Field: "number", Value: r.Number}
	}
	if err := t.checkManager(r.ManagerID); err != nil {
		return domain.Room{}, err
	}
	t.st.seq.room++
	r.ID = t.st.seq.room
	t.st.rooms[r.ID] = r.Clone()
	t.st.roomNumber[r.Number] = r.ID
	link(t.st.managed, r.ManagerID, r.ID)
	return r, nil
}

func (t *tx) UpdateRoom(_ context.Context, r domain.Room) error {
	old, ok := t.st.rooms[r.ID]
	if !ok {
		return domain.NotFound(domain.EntityRoom, r.ID)
	}
	r.Number = strings.TrimSpace(r.Number)
	if owner, taken := t.st.roomNumber[r.Number]; taken && owner != r.ID {
		return &domain.UniquenessError{Entity: domain.EntityRoom, Field: "number", Value: r.Number}
	}
	if err := t.checkManager(r.ManagerID); err != nil {
		return err
	}
	delete(t.st.roomNumber, old.Number)
	t.st.roomNumber[r.Number] = r.ID
	unlink(t.st.managed, old.ManagerID, r.ID)
	link(t.st.managed, r.ManagerID, r.ID)
	t.st.rooms[r.ID] = r.Clone()
	return nil
}

func (t *tx) DeleteRoom(_ context.Context, id int64) error {
	r, ok := t.st.rooms[id]
	if !ok {
		return domain.NotFound(domain.EntityRoom, id)
	}
	for _, rid := range sortedIDs(t.st.byRoom[id]) {
		t.dropReservation(rid)
	}
	unlink(t.st.managed, r.ManagerID, id)
	delete(t.st.roomNumber, r.Number)
	delete(t.st.rooms, id)
	return nil
}

// ---- staff ----

func (t *tx) InsertStaff(_ context.Context, s domain.StaffRecord) (domain.StaffRecord, error) {
	s = s.Normalized()
	if _, taken := t.st.staffEmail[s.Email]; taken {
		return domain.StaffRecord{}, &domain.UniquenessError{Entity: domain.EntityStaff, Field: "email", Value: s.Email}
	}
	if err := t.checkManager(s.ManagerID); err != nil {
		return domain.StaffRecord{}, err
	}
	t.st.seq.staff++
	s.ID = t.st.seq.staff
	t.putStaff(s)
	t.st.staffEmail[s.Email] = s.ID
	link(t.st.team, s.ManagerID, s.ID)
	return s.Clone(), nil
}

// putStaff splits the record into its base row and management extension.
func (t *tx) putStaff(s domain.StaffRecord) {
	base := s.Clone()
	base.Management = nil
	t.st.staff[s.ID] = base
	if s.Management != nil {
		t.st.managers[s.ID] = *s.Management
	} else {
		delete(t.st.managers, s.ID)
	}
}

func (t *tx) UpdateStaff(_ context.Context, s domain.StaffRecord) error {
	old, ok := t.st.staff[s.ID]
	if !ok {
		return domain.NotFound(domain.EntityStaff, s.ID)
	}
	s = s.Normalized()
	if owner, taken := t.st.staffEmail[s.Email]; taken && owner != s.ID {
		return &domain.UniquenessError{Entity: domain.EntityStaff, Field: "email", Value: s.Email}
	}
	if s.ManagerID != nil && *s.ManagerID == s.ID {
		return &domain.ValidationError{Entity: domain.EntityStaff, Field: "manager_id", Reason: "cannot manage oneself"}
	}
	if err := t.checkManager(s.ManagerID); err != nil {
		return err
	}
	_, wasManager := t.st.managers[s.ID]
	if wasManager && s.Management == nil {
		t.clearManagerRefs(s.ID)
	}
	delete(t.st.staffEmail, old.Email)
	t.st.staffEmail[s.Email] = s.ID
	unlink(t.st.team, old.ManagerID, s.ID)
	link(t.st.team, s.ManagerID, s.ID)
	t.putStaff(s)
	return nil
}

func (t *tx) DeleteStaff(ctx context.Context, id int64) error {
	s, ok := t.st.staff[id]
	if !ok {
		return domain.NotFound(domain.EntityStaff, id)
	}
	_ = t.ClearReservationStaff(ctx, id)
	t.clearManagerRefs(id)
	unlink(t.st.team, s.ManagerID, id)
	delete(t.st.managers, id)
	delete(t.st.staffEmail, s.Email)
	delete(t.st.staff, id)
	return nil
}

func (t *tx) clearManagerRefs(managerID int64) {
	for _, sid := range sortedIDs(t.st.team[managerID]) {
		s := t.st.staff[sid]
		s.ManagerID = nil
		t.st.staff[sid] = s
	}
	delete(t.st.team, managerID)
	for _, rid := range sortedIDs(t.st.managed[managerID]) {
		r := t.st.rooms[rid]
		r.ManagerID = nil
		t.st.rooms[rid] = r
	}
	delete(t.st.managed, managerID)
}

// ---- reservations ----

func (t *tx) checkReservationRefs(r domain.Reservation) error {
	if _, ok := t.st.guests[r.GuestID]; !ok {
		return domain.NotFound(domain.EntityGuest, r.GuestID)
	}
	if _, ok := t.st.rooms[r.RoomID]; !ok {
		return domain.NotFound(domain.EntityRoom, r.RoomID)
	}
	if r.AssignedStaffID != nil {
		if _, ok := t.st.staff[*r.AssignedStaffID]; !ok {
			return domain.NotFound(domain.EntityStaff, *r.AssignedStaffID)
		}
	}
	return nil
}

func (t *tx) indexReservation(r domain.Reservation) {
	link(t.st.byGuest, &r.GuestID, r.ID)
	link(t.st.byRoom, &r.RoomID, r.ID)
	link(t.st.byStaff, r.AssignedStaffID, r.ID)
}

func (t *tx) unindexReservation(r domain.Reservation) {
	unlink(t.st.byGuest, &r.GuestID, r.ID)
	unlink(t.st.byRoom, &r.RoomID, r.ID)
	unlink(t.st.byStaff, r.AssignedStaffID, r.ID)
}

func (t *tx) InsertReservation(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	r.Code = strings.TrimSpace(r.Code)
	if _, taken := t.st.resCode[r.Code]; taken {
		return domain.Reservation{}, &domain.UniquenessError{Entity: domain.EntityReservation, Field: "code", Value: r.Code}
	}
	if err := t.checkReservationRefs(r); err != nil {
		return domain.Reservation{}, err
	}
	t.st.seq.reservation++
	r.ID = t.st.seq.reservation
	t.st.reservations[r.ID] = r.Clone()
	t.st.resCode[r.Code] = r.ID
	t.indexReservation(r)
	return r, nil
}

func (t *tx) UpdateReservation(_ context.Context, r domain.Reservation) error {
	old, ok := t.st.reservations[r.ID]
	if !ok {
		return domain.NotFound(domain.EntityReservation, r.ID)
	}
	r.Code = strings.TrimSpace(r.Code)
	if owner, taken := t.st.resCode[r.Code]; taken && owner != r.ID {
		return &domain.UniquenessError{Entity: domain.EntityReservation, Field: "code", Value: r.Code}
	}
	if err := t.checkReservationRefs(r); err != nil {
		return err
	}
	t.unindexReservation(old)
	delete(t.st.resCode, old.Code)
	t.st.reservations[r.ID] = r.Clone()
	t.st.resCode[r.Code] = r.ID
	t.indexReservation(r)
	return nil
}

func (t *tx) DeleteReservation(_ context.Context, id int64) error {
	if _, ok := t.st.reservations[id]; !ok {
		return domain.NotFound(domain.EntityReservation, id)
	}
	t.dropReservation(id)
	return nil
}

func (t *tx) dropReservation(id int64) {
	r := t.st.reservations[id]
	t.unindexReservation(r)
	delete(t.st.resCode, r.Code)
	delete(t.st.reservations, id)
}

// ---- reference nulling ----

func (t *tx) ClearReservationStaff(_ context.Context, staffID int64) error {
	for _, rid := range sortedIDs(t.st.byStaff[staffID]) {
		r := t.st.reservations[rid]
		r.AssignedStaffID = nil
		t.st.reservations[rid] = r
	}
	delete(t.st.byStaff, staffID)
	return nil
}

func (t *tx) ClearStaffManager(_ context.Context, managerID int64) error {
	for _, sid := range sortedIDs(t.st.team[managerID]) {
		s := t.st.staff[sid]
		s.ManagerID = nil
		t.st.staff[sid] = s
	}
	delete(t.st.team, managerID)
	return nil
}

func (t *tx) ClearRoomManager(_ context.Context, managerID int64) error {
	for _, rid := range sortedIDs(t.st.managed[managerID]) {
		r := t.st.rooms[rid]
		r.ManagerID = nil
		t.st.rooms[rid] = r
	}
	delete(t.st.managed, managerID)
	return nil
}
