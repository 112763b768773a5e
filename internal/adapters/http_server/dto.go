package httpserver

import (
	"strings"
	"time"

	"overlook_hotel/internal/domain"
)

// Wire shapes. Calendar dates travel as "YYYY-MM-DD" and money as integer
// cents.

type guestDTO struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

type staffDTO struct {
	ID          int64                  `json:"id"`
	FirstName   string                 `json:"first_name"`
	LastName    string                 `json:"last_name"`
	Email       string                 `json:"email"`
	PhoneNumber string                 `json:"phone_number,omitempty"`
	Position    string                 `json:"position"`
	HireDate    string                 `json:"hire_date,omitempty"`
	Salary      *domain.Money          `json:"salary_cents,omitempty"`
	ManagerID   *int64                 `json:"manager_id,omitempty"`
	Management  *domain.ManagementInfo `json:"management,omitempty"`
}

type roomDTO struct {
	ID          int64             `json:"id"`
	Number      string            `json:"number"`
	Floor       int               `json:"floor"`
	Capacity    int               `json:"capacity"`
	NightlyRate domain.Money      `json:"nightly_rate_cents"`
	Type        domain.RoomType   `json:"type"`
	Status      domain.RoomStatus `json:"status,omitempty"`
	ManagerID   *int64            `json:"manager_id,omitempty"`
}

type reservationDTO struct {
	ID              int64                    `json:"id"`
	Code            string                   `json:"code,omitempty"`
	CreatedAt       *time.Time               `json:"created_at,omitempty"`
	CheckInDate     string                   `json:"check_in_date"`
	CheckOutDate    string                   `json:"check_out_date"`
	GuestCount      int                      `json:"guest_count"`
	Status          domain.ReservationStatus `json:"status,omitempty"`
	TotalAmount     *domain.Money            `json:"total_amount_cents,omitempty"`
	GuestID         int64                    `json:"guest_id"`
	RoomID          int64                    `json:"room_id"`
	AssignedStaffID *int64                   `json:"assigned_staff_id,omitempty"`
	Nights          int                      `json:"nights,omitempty"`
}

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// parseOptDate accepts "" as absent.
func parseOptDate(entity, field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, &domain.ValidationError{Entity: entity, Field: field, Reason: "must be YYYY-MM-DD"}
	}
	return &d, nil
}

func parseDate(entity, field, s string) (time.Time, error) {
	d, err := parseOptDate(entity, field, s)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, &domain.ValidationError{Entity: entity, Field: field, Reason: "is required"}
	}
	return *d, nil
}

func toGuestDTO(g domain.Guest) guestDTO {
	return guestDTO{
		ID: g.ID, FirstName: g.FirstName, LastName: g.LastName, Email: g.Email,
		PhoneNumber: g.PhoneNumber, BirthDate: fmtDate(g.BirthDate), Nationality: g.Nationality,
	}
}

func (d guestDTO) toDomain() (domain.Guest, error) {
	birth, err := parseOptDate(domain.EntityGuest, "birth_date", d.BirthDate)
	if err != nil {
		return domain.Guest{}, err
	}
	return domain.Guest{
		ID: d.ID, FirstName: d.FirstName, LastName: d.LastName, Email: d.Email,
		PhoneNumber: d.PhoneNumber, BirthDate: birth, Nationality: d.Nationality,
	}, nil
}

func toStaffDTO(s domain.StaffRecord) staffDTO {
	return staffDTO{
		ID: s.ID, FirstName: s.FirstName, LastName: s.LastName, Email: s.Email,
		PhoneNumber: s.PhoneNumber, Position: s.Position, HireDate: fmtDate(s.HireDate),
		Salary: s.Salary, ManagerID: s.ManagerID, Management: s.Management,
	}
}

func (d staffDTO) toDomain() (domain.StaffRecord, error) {
	hired, err := parseOptDate(domain.EntityStaff, "hire_date", d.HireDate)
	if err != nil {
		return domain.StaffRecord{}, err
	}
	return domain.StaffRecord{
		ID: d.ID, FirstName: d.FirstName, LastName: d.LastName, Email: d.Email,
		PhoneNumber: d.PhoneNumber, Position: d.Position, HireDate: hired,
		Salary: d.Salary, ManagerID: d.ManagerID, Management: d.Management,
	}, nil
}

func toRoomDTO(r domain.Room) roomDTO {
	return roomDTO{
		ID: r.ID, Number: r.Number, Floor: r.Floor, Capacity: r.Capacity,
		NightlyRate: r.NightlyRate, Type: r.Type, Status: r.Status, ManagerID: r.ManagerID,
	}
}

func (d roomDTO) toDomain() domain.Room {
	return domain.Room{
		ID: d.ID, Number: d.Number, Floor: d.Floor, Capacity: d.Capacity,
		NightlyRate: d.NightlyRate, Type: d.Type, Status: d.Status, ManagerID: d.ManagerID,
	}
}

func toReservationDTO(r domain.Reservation) reservationDTO {
	created := r.CreatedAt
	return reservationDTO{
		ID: r.ID, Code: r.Code, CreatedAt: &created,
		CheckInDate: fmtDate(&r.CheckInDate), CheckOutDate: fmtDate(&r.CheckOutDate),
		GuestCount: r.GuestCount, Status: r.Status, TotalAmount: r.TotalAmount,
		GuestID: r.GuestID, RoomID: r.RoomID, AssignedStaffID: r.AssignedStaffID,
		Nights: r.Nights(),
	}
}

func (d reservationDTO) toDomain() (domain.Reservation, error) {
	in, err := parseDate(domain.EntityReservation, "check_in_date", d.CheckInDate)
	if err != nil {
		return domain.Reservation{}, err
	}
	out, err := parseDate(domain.EntityReservation, "check_out_date", d.CheckOutDate)
	if err != nil {
		return domain.Reservation{}, err
	}
	count := d.GuestCount
	if count == 0 {
		count = 1
	}
	return domain.Reservation{
		ID: d.ID, Code: d.Code, CheckInDate: in, CheckOutDate: out,
		GuestCount: count, Status: d.Status, TotalAmount: d.TotalAmount,
		GuestID: d.GuestID, RoomID: d.RoomID, AssignedStaffID: d.AssignedStaffID,
	}, nil
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
