package mysql

// -----------------------------------------------------------------------------
// MIGRATIONS
// -----------------------------------------------------------------------------

const createMigrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version    VARCHAR(64) NOT NULL PRIMARY KEY,
  applied_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB
`

const selectMigrationsSQL = `SELECT version FROM schema_migrations`

const insertMigrationSQL = `INSERT INTO schema_migrations (version) VALUES (?)`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const selectGuestSQL = `
SELECT id, first_name, last_name, email, phone_number, birth_date, nationality
FROM guests`

const selectRoomSQL = `
SELECT id, number, floor, capacity, nightly_rate_cents, type, status, manager_id
FROM rooms`

// Staff joined with the optional management row; m.staff_id is NULL for
// plain staff.
const selectStaffSQL = `
SELECT
  s.id,
  s.first_name,
  s.last_name,
  s.email,
  s.phone_number,
  s.position,
  s.hire_date,
  s.salary_cents,
  s.manager_id,
  m.staff_id,
  m.department,
  m.access_level
FROM staff s
LEFT JOIN managers m ON m.staff_id = s.id`

const selectReservationSQL = `
SELECT
  id,
  code,
  created_at,
  check_in_date,
  check_out_date,
  guest_count,
  status,
  total_amount_cents,
  guest_id,
  room_id,
  employee_id
FROM reservations`

const reservationOrder = ` ORDER BY check_in_date, id`

// -----------------------------------------------------------------------------
// WRITES
// -----------------------------------------------------------------------------

const insertGuestSQL = `
INSERT INTO guests (first_name, last_name, email, phone_number, birth_date, nationality)
VALUES (?, ?, ?, ?, ?, ?)`

const updateGuestSQL = `
UPDATE guests SET
  first_name   = ?,
  last_name    = ?,
  email        = ?,
  phone_number = ?,
  birth_date   = ?,
  nationality  = ?
WHERE id = ?`

const insertRoomSQL = `
INSERT INTO rooms (number, floor, capacity, nightly_rate_cents, type, status, manager_id)
VALUES (?, ?, ?, ?, ?, ?, ?)`

const updateRoomSQL = `
UPDATE rooms SET
  number             = ?,
  floor              = ?,
  capacity           = ?,
  nightly_rate_cents = ?,
  type               = ?,
  status             = ?,
  manager_id         = ?
WHERE id = ?`

const insertStaffSQL = `
INSERT INTO staff (first_name, last_name, email, phone_number, position, hire_date, salary_cents, manager_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const updateStaffSQL = `
UPDATE staff SET
  first_name   = ?,
  last_name    = ?,
  email        = ?,
  phone_number = ?,
  position     = ?,
  hire_date    = ?,
  salary_cents = ?,
  manager_id   = ?
WHERE id = ?`

const upsertManagerSQL = `
INSERT INTO managers (staff_id, department, access_level)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  department   = VALUES(department),
  access_level = VALUES(access_level)
`

const deleteManagerSQL = `DELETE FROM managers WHERE staff_id = ?`

const insertReservationSQL = `
INSERT INTO reservations
  (code, created_at, check_in_date, check_out_date, guest_count, status, total_amount_cents, guest_id, room_id, employee_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateReservationSQL = `
UPDATE reservations SET
  code               = ?,
  check_in_date      = ?,
  check_out_date     = ?,
  guest_count        = ?,
  status             = ?,
  total_amount_cents = ?,
  guest_id           = ?,
  room_id            = ?,
  employee_id        = ?
WHERE id = ?`

const (
	deleteGuestSQL       = `DELETE FROM guests WHERE id = ?`
	deleteRoomSQL        = `DELETE FROM rooms WHERE id = ?`
	deleteStaffSQL       = `DELETE FROM staff WHERE id = ?`
	deleteReservationSQL = `DELETE FROM reservations WHERE id = ?`

	clearReservationStaffSQL = `UPDATE reservations SET employee_id = NULL WHERE employee_id = ?`
	clearStaffManagerSQL     = `UPDATE staff SET manager_id = NULL WHERE manager_id = ?`
	clearRoomManagerSQL      = `UPDATE rooms SET manager_id = NULL WHERE manager_id = ?`
)
