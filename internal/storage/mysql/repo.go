// Package mysql persists the entity graph in MySQL. The DSN must set
// parseTime=true and loc=UTC.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"overlook_hotel/internal/domain"
)

var (
	_ domain.Store = (*Repo)(nil)
	_ domain.Tx    = (*txRepo)(nil)
)

const errDuplicateEntry = 1062

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valMoney(p *domain.Money) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
func valDate(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.Format(domain.DateLayout)
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

// notFound swaps sql.ErrNoRows for the domain error.
func notFound(err error, nf *domain.NotFoundError) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nf
	}
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface{ Scan(dest ...any) error }

type reader struct{ q querier }

type Repo struct {
	reader
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{reader: reader{q: db}, db: db} }

// WithinTx runs fn in a READ COMMITTED transaction. Plain reads inside it see
// rows committed by writers that held a room lock before us, which the overlap
// check depends on; REPEATABLE READ would pin an older snapshot.
func (r *Repo) WithinTx(ctx context.Context, fn func(domain.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit: %w", cerr)
		}
	}()
	return fn(&txRepo{reader{q: tx}})
}

// ---- scanning ----

func scanGuest(s scanner) (domain.Guest, error) {
	var g domain.Guest
	var phone, nationality sql.NullString
	var birth sql.NullTime
	if err := s.Scan(&g.ID, &g.FirstName, &g.LastName, &g.Email, &phone, &birth, &nationality); err != nil {
		return domain.Guest{}, err
	}
	g.PhoneNumber = phone.String
	g.Nationality = nationality.String
	if birth.Valid {
		d := domain.DateOf(birth.Time)
		g.BirthDate = &d
	}
	return g, nil
}

func scanRoom(s scanner) (domain.Room, error) {
	var r domain.Room
	var rate int64
	var typ, status string
	var manager sql.NullInt64
	if err := s.Scan(&r.ID, &r.Number, &r.Floor, &r.Capacity, &rate, &typ, &status, &manager); err != nil {
		return domain.Room{}, err
	}
	r.NightlyRate = domain.Money(rate)
	r.Type = domain.RoomType(typ)
	r.Status = domain.RoomStatus(status)
	if manager.Valid {
		id := manager.Int64
		r.ManagerID = &id
	}
	return r, nil
}

func scanStaff(s scanner) (domain.StaffRecord, error) {
	var st domain.StaffRecord
	var phone, department sql.NullString
	var hired sql.NullTime
	var salary, manager, managerRow, access sql.NullInt64
	if err := s.Scan(
		&st.ID, &st.FirstName, &st.LastName, &st.Email, &phone, &st.Position,
		&hired, &salary, &manager,
		&managerRow, &department, &access,
	); err != nil {
		return domain.StaffRecord{}, err
	}
	st.PhoneNumber = phone.String
	if hired.Valid {
		d := domain.DateOf(hired.Time)
		st.HireDate = &d
	}
	if salary.Valid {
		st.Salary = domain.Cents(salary.Int64)
	}
	if manager.Valid {
		id := manager.Int64
		st.ManagerID = &id
	}
	if managerRow.Valid {
		st.Management = &domain.ManagementInfo{Department: department.String, AccessLevel: int(access.Int64)}
	}
	return st, nil
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var r domain.Reservation
	var status string
	var total, employee sql.NullInt64
	if err := s.Scan(
		&r.ID, &r.Code, &r.CreatedAt, &r.CheckInDate, &r.CheckOutDate,
		&r.GuestCount, &status, &total, &r.GuestID, &r.RoomID, &employee,
	); err != nil {
		return domain.Reservation{}, err
	}
	r.Status = domain.ReservationStatus(status)
	r.CreatedAt = r.CreatedAt.UTC()
	r.CheckInDate = domain.DateOf(r.CheckInDate)
	r.CheckOutDate = domain.DateOf(r.CheckOutDate)
	if total.Valid {
		r.TotalAmount = domain.Cents(total.Int64)
	}
	if employee.Valid {
		id := employee.Int64
		r.AssignedStaffID = &id
	}
	return r, nil
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ---- reads ----

func (r reader) GuestByID(ctx context.Context, id int64) (domain.Guest, error) {
	g, err := scanGuest(r.q.QueryRowContext(ctx, selectGuestSQL+` WHERE id = ?`, id))
	return g, notFound(err, domain.NotFound(domain.EntityGuest, id))
}

func (r reader) GuestByEmail(ctx context.Context, email string) (domain.Guest, error) {
	g, err := scanGuest(r.q.QueryRowContext(ctx, selectGuestSQL+` WHERE email = ?`, domain.NormalizeEmail(email)))
	return g, notFound(err, domain.NotFoundBy(domain.EntityGuest, "email", email))
}

func (r reader) RoomByID(ctx context.Context, id int64) (domain.Room, error) {
	room, err := scanRoom(r.q.QueryRowContext(ctx, selectRoomSQL+` WHERE id = ?`, id))
	return room, notFound(err, domain.NotFound(domain.EntityRoom, id))
}

func (r reader) RoomByNumber(ctx context.Context, number string) (domain.Room, error) {
	room, err := scanRoom(r.q.QueryRowContext(ctx, selectRoomSQL+` WHERE number = ?`, strings.TrimSpace(number)))
	return room, notFound(err, domain.NotFoundBy(domain.EntityRoom, "number", number))
}

func (r reader) StaffByID(ctx context.Context, id int64) (domain.StaffRecord, error) {
	st, err := scanStaff(r.q.QueryRowContext(ctx, selectStaffSQL+` WHERE s.id = ?`, id))
	return st, notFound(err, domain.NotFound(domain.EntityStaff, id))
}

func (r reader) StaffByEmail(ctx context.Context, email string) (domain.StaffRecord, error) {
	st, err := scanStaff(r.q.QueryRowContext(ctx, selectStaffSQL+` WHERE s.email = ?`, domain.NormalizeEmail(email)))
	return st, notFound(err, domain.NotFoundBy(domain.EntityStaff, "email", email))
}

func (r reader) ReservationByID(ctx context.Context, id int64) (domain.Reservation, error) {
	res, err := scanReservation(r.q.QueryRowContext(ctx, selectReservationSQL+` WHERE id = ?`, id))
	return res, notFound(err, domain.NotFound(domain.EntityReservation, id))
}

func (r reader) ReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	res, err := scanReservation(r.q.QueryRowContext(ctx, selectReservationSQL+` WHERE code = ?`, code))
	return res, notFound(err, domain.NotFoundBy(domain.EntityReservation, "code", code))
}

func (r reader) reservationsWhere(ctx context.Context, cond string, arg any) ([]domain.Reservation, error) {
	rows, err := r.q.QueryContext(ctx, selectReservationSQL+` WHERE `+cond+` = ?`+reservationOrder, arg)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReservation)
}

func (r reader) ReservationsByGuest(ctx context.Context, guestID int64) ([]domain.Reservation, error) {
	return r.reservationsWhere(ctx, "guest_id", guestID)
}

func (r reader) ReservationsByRoom(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	return r.reservationsWhere(ctx, "room_id", roomID)
}

func (r reader) ReservationsByStaff(ctx context.Context, staffID int64) ([]domain.Reservation, error) {
	return r.reservationsWhere(ctx, "employee_id", staffID)
}

func (r reader) StaffByManager(ctx context.Context, managerID int64) ([]domain.StaffRecord, error) {
	rows, err := r.q.QueryContext(ctx, selectStaffSQL+` WHERE s.manager_id = ? ORDER BY s.id`, managerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanStaff)
}

func (r reader) RoomsByManager(ctx context.Context, managerID int64) ([]domain.Room, error) {
	rows, err := r.q.QueryContext(ctx, selectRoomSQL+` WHERE manager_id = ? ORDER BY id`, managerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRoom)
}

// ---- tx ----

type txRepo struct{ reader }

func (t *txRepo) LockRoom(ctx context.Context, id int64) (domain.Room, error) {
	room, err := scanRoom(t.q.QueryRowContext(ctx, selectRoomSQL+` WHERE id = ? FOR UPDATE`, id))
	return room, notFound(err, domain.NotFound(domain.EntityRoom, id))
}

func (t *txRepo) LockReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	res, err := scanReservation(t.q.QueryRowContext(ctx, selectReservationSQL+` WHERE id = ? FOR UPDATE`, id))
	return res, notFound(err, domain.NotFound(domain.EntityReservation, id))
}

func (t *txRepo) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *txRepo) deleteByID(ctx context.Context, query string, id int64, nf *domain.NotFoundError) error {
	res, err := t.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nf
	}
	return nil
}

func (t *txRepo) InsertGuest(ctx context.Context, g domain.Guest) (domain.Guest, error) {
	g = g.Normalized()
	id, err := t.insert(ctx, insertGuestSQL,
		g.FirstName, g.LastName, g.Email, valStr(g.PhoneNumber), valDate(g.BirthDate), valStr(g.Nationality))
	if err != nil {
		if isDuplicate(err) {
			return domain.Guest{}, &domain.UniquenessError{Entity: domain.EntityGuest, Field: "email", Value: g.Email}
		}
		return domain.Guest{}, fmt.Errorf("insert guest: %w", err)
	}
	g.ID = id
	return g, nil
}

func (t *txRepo) UpdateGuest(ctx context.Context, g domain.Guest) error {
	g = g.Normalized()
	_, err := t.q.ExecContext(ctx, updateGuestSQL,
		g.FirstName, g.LastName, g.Email, valStr(g.PhoneNumber), valDate(g.BirthDate), valStr(g.Nationality), g.ID)
	if isDuplicate(err) {
		return &domain.UniquenessError{Entity: domain.EntityGuest, Field: "email", Value: g.Email}
	}
	return err
}

func (t *txRepo) DeleteGuest(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, deleteGuestSQL, id, domain.NotFound(domain.EntityGuest, id))
}

func (t *txRepo) InsertRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	id, err := t.insert(ctx, insertRoomSQL,
		r.Number, r.Floor, r.Capacity, int64(r.NightlyRate), string(r.Type), string(r.Status), valInt64(r.ManagerID))
	if err != nil {
		if isDuplicate(err) {
			return domain.Room{}, &domain.UniquenessError{Entity: domain.EntityRoom, Field: "number", Value: r.Number}
		}
		return domain.Room{}, fmt.Errorf("insert room: %w", err)
	}
	r.ID = id
	return r, nil
}

func (t *txRepo) UpdateRoom(ctx context.Context, r domain.Room) error {
	_, err := t.q.ExecContext(ctx, updateRoomSQL,
		r.Number, r.Floor, r.Capacity, int64(r.NightlyRate), string(r.Type), string(r.Status), valInt64(r.ManagerID), r.ID)
	if isDuplicate(err) {
		return &domain.UniquenessError{Entity: domain.EntityRoom, Field: "number", Value: r.Number}
	}
	return err
}

func (t *txRepo) DeleteRoom(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, deleteRoomSQL, id, domain.NotFound(domain.EntityRoom, id))
}

func (t *txRepo) InsertStaff(ctx context.Context, s domain.StaffRecord) (domain.StaffRecord, error) {
	s = s.Normalized()
	id, err := t.insert(ctx, insertStaffSQL,
		s.FirstName, s.LastName, s.Email, valStr(s.PhoneNumber), s.Position,
		valDate(s.HireDate), valMoney(s.Salary), valInt64(s.ManagerID))
	if err != nil {
		if isDuplicate(err) {
			return domain.StaffRecord{}, &domain.UniquenessError{Entity: domain.EntityStaff, Field: "email", Value: s.Email}
		}
		return domain.StaffRecord{}, fmt.Errorf("insert staff: %w", err)
	}
	s.ID = id
	if err := t.syncManagement(ctx, s); err != nil {
		return domain.StaffRecord{}, err
	}
	return s, nil
}

func (t *txRepo) UpdateStaff(ctx context.Context, s domain.StaffRecord) error {
	s = s.Normalized()
	_, err := t.q.ExecContext(ctx, updateStaffSQL,
		s.FirstName, s.LastName, s.Email, valStr(s.PhoneNumber), s.Position,
		valDate(s.HireDate), valMoney(s.Salary), valInt64(s.ManagerID), s.ID)
	if err != nil {
		if isDuplicate(err) {
			return &domain.UniquenessError{Entity: domain.EntityStaff, Field: "email", Value: s.Email}
		}
		return fmt.Errorf("update staff: %w", err)
	}
	return t.syncManagement(ctx, s)
}

// syncManagement keeps the managers row in step with s.Management. Dropping
// the row demotes; fk_staff_manager and fk_rooms_manager null any reference
// left behind.
func (t *txRepo) syncManagement(ctx context.Context, s domain.StaffRecord) error {
	var err error
	if s.Management != nil {
		_, err = t.q.ExecContext(ctx, upsertManagerSQL, s.ID, valStr(s.Management.Department), s.Management.AccessLevel)
	} else {
		_, err = t.q.ExecContext(ctx, deleteManagerSQL, s.ID)
	}
	if err != nil {
		return fmt.Errorf("sync management row: %w", err)
	}
	return nil
}

func (t *txRepo) DeleteStaff(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, deleteStaffSQL, id, domain.NotFound(domain.EntityStaff, id))
}

func (t *txRepo) InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	id, err := t.insert(ctx, insertReservationSQL,
		r.Code, r.CreatedAt.UTC(), r.CheckInDate.Format(domain.DateLayout), r.CheckOutDate.Format(domain.DateLayout),
		r.GuestCount, string(r.Status), valMoney(r.TotalAmount), r.GuestID, r.RoomID, valInt64(r.AssignedStaffID))
	if err != nil {
		if isDuplicate(err) {
			return domain.Reservation{}, &domain.UniquenessError{Entity: domain.EntityReservation, Field: "code", Value: r.Code}
		}
		return domain.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}
	r.ID = id
	return r, nil
}

func (t *txRepo) UpdateReservation(ctx context.Context, r domain.Reservation) error {
	_, err := t.q.ExecContext(ctx, updateReservationSQL,
		r.Code, r.CheckInDate.Format(domain.DateLayout), r.CheckOutDate.Format(domain.DateLayout),
		r.GuestCount, string(r.Status), valMoney(r.TotalAmount), r.GuestID, r.RoomID, valInt64(r.AssignedStaffID), r.ID)
	if isDuplicate(err) {
		return &domain.UniquenessError{Entity: domain.EntityReservation, Field: "code", Value: r.Code}
	}
	return err
}

func (t *txRepo) DeleteReservation(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, deleteReservationSQL, id, domain.NotFound(domain.EntityReservation, id))
}

func (t *txRepo) ClearReservationStaff(ctx context.Context, staffID int64) error {
	_, err := t.q.ExecContext(ctx, clearReservationStaffSQL, staffID)
	return err
}

func (t *txRepo) ClearStaffManager(ctx context.Context, managerID int64) error {
	_, err := t.q.ExecContext(ctx, clearStaffManagerSQL, managerID)
	return err
}

func (t *txRepo) ClearRoomManager(ctx context.Context, managerID int64) error {
	_, err := t.q.ExecContext(ctx, clearRoomManagerSQL, managerID)
	return err
}
