package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"overlook_hotel/internal/domain"
)

// SeedData is the bulk-load file format. Records reference each other by
// natural key (email, room number) because ids are assigned by the store.
type SeedData struct {
	Staff        []SeedStaff       `json:"staff"`
	Guests       []SeedGuest       `json:"guests"`
	Rooms        []SeedRoom        `json:"rooms"`
	Reservations []SeedReservation `json:"reservations"`
}

type SeedStaff struct {
	FirstName    string                 `json:"first_name"`
	LastName     string                 `json:"last_name"`
	Email        string                 `json:"email"`
	PhoneNumber  string                 `json:"phone_number"`
	Position     string                 `json:"position"`
	HireDate     string                 `json:"hire_date"`
	Salary       *domain.Money          `json:"salary_cents"`
	ManagerEmail string                 `json:"manager_email"`
	Management   *domain.ManagementInfo `json:"management"`
}

type SeedGuest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	BirthDate   string `json:"birth_date"`
	Nationality string `json:"nationality"`
}

type SeedRoom struct {
	Number       string          `json:"number"`
	Floor        int             `json:"floor"`
	Capacity     int             `json:"capacity"`
	NightlyRate  domain.Money    `json:"nightly_rate_cents"`
	Type         domain.RoomType `json:"type"`
	ManagerEmail string          `json:"manager_email"`
}

type SeedReservation struct {
	Code         string                   `json:"code"`
	GuestEmail   string                   `json:"guest_email"`
	RoomNumber   string                   `json:"room_number"`
	CheckInDate  string                   `json:"check_in_date"`
	CheckOutDate string                   `json:"check_out_date"`
	GuestCount   int                      `json:"guest_count"`
	Status       domain.ReservationStatus `json:"status"`
	TotalAmount  *domain.Money            `json:"total_amount_cents"`
	StaffEmail   string                   `json:"staff_email"`
}

func DecodeSeed(r io.Reader) (SeedData, error) {
	var d SeedData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return SeedData{}, fmt.Errorf("decode seed: %w", err)
	}
	return d, nil
}

type SeedFailure struct {
	Entity string
	Key    string
	Err    error
}

type SeedReport struct {
	Created map[string]int
	Failed  []SeedFailure
}

// Seeder loads SeedData through the BookingService so every record passes the
// same rules as an API write.
type Seeder struct {
	svc     *BookingService
	workers int64

	mu     sync.Mutex
	report SeedReport
	ids    map[string]int64 // "entity:natural key" -> id
}

func NewSeeder(svc *BookingService, workers int) *Seeder {
	if workers < 1 {
		workers = 1
	}
	return &Seeder{svc: svc, workers: int64(workers)}
}

func natural(key string) string { return domain.NormalizeEmail(key) }

func (s *Seeder) ok(entity, key string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.Created[entity]++
	s.ids[entity+":"+natural(key)] = id
}

func (s *Seeder) fail(entity, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.Failed = append(s.report.Failed, SeedFailure{Entity: entity, Key: key, Err: err})
}

// lookup resolves a natural key to an id; "" resolves to 0.
func (s *Seeder) lookup(entity, key string) (int64, error) {
	if key == "" {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[entity+":"+natural(key)]; ok {
		return id, nil
	}
	return 0, domain.NotFoundBy(entity, "key", key)
}

func seedDate(entity, field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return nil, &domain.ValidationError{Entity: entity, Field: field, Reason: "must be YYYY-MM-DD"}
	}
	return &d, nil
}

// Seed loads staff first (sequentially, since reporting lines point at other
// staff), then guests and rooms, then reservations. Independent records of one
// phase are written by up to workers goroutines. Individual failures land in
// the report; only cancellation aborts the run.
func (s *Seeder) Seed(ctx context.Context, d SeedData) (SeedReport, error) {
	s.report = SeedReport{Created: map[string]int{}}
	s.ids = map[string]int64{}

	for _, st := range d.Staff {
		if err := ctx.Err(); err != nil {
			return s.report, err
		}
		s.seedStaff(ctx, st)
	}
	for _, st := range d.Staff {
		if st.ManagerEmail == "" {
			continue
		}
		if err := s.assignManager(ctx, st); err != nil {
			s.fail(domain.EntityStaff, st.Email, err)
		}
	}

	jobs := make([]func(), 0, len(d.Guests)+len(d.Rooms))
	for _, g := range d.Guests {
		jobs = append(jobs, func() { s.seedGuest(ctx, g) })
	}
	for _, r := range d.Rooms {
		jobs = append(jobs, func() { s.seedRoom(ctx, r) })
	}
	if err := s.fanOut(ctx, jobs); err != nil {
		return s.report, err
	}

	jobs = jobs[:0]
	for _, r := range d.Reservations {
		jobs = append(jobs, func() { s.seedReservation(ctx, r) })
	}
	if err := s.fanOut(ctx, jobs); err != nil {
		return s.report, err
	}
	return s.report, nil
}

func (s *Seeder) fanOut(ctx context.Context, jobs []func()) error {
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	for _, job := range jobs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(run func()) {
			defer wg.Done()
			defer sem.Release(1)
			run()
		}(job)
	}
	wg.Wait()
	return nil
}

func (s *Seeder) seedStaff(ctx context.Context, in SeedStaff) {
	hired, err := seedDate(domain.EntityStaff, "hire_date", in.HireDate)
	if err != nil {
		s.fail(domain.EntityStaff, in.Email, err)
		return
	}
	st, err := s.svc.CreateStaff(ctx, domain.StaffRecord{
		FirstName: in.FirstName, LastName: in.LastName, Email: in.Email,
		PhoneNumber: in.PhoneNumber, Position: in.Position, HireDate: hired, Salary: in.Salary,
	})
	if err != nil {
		s.fail(domain.EntityStaff, in.Email, err)
		return
	}
	if in.Management != nil {
		if _, err := s.svc.PromoteToManager(ctx, st.ID, *in.Management); err != nil {
			s.fail(domain.EntityManager, in.Email, err)
		} else {
			s.ok(domain.EntityManager, in.Email, st.ID)
		}
	}
	s.ok(domain.EntityStaff, in.Email, st.ID)
}

func (s *Seeder) assignManager(ctx context.Context, in SeedStaff) error {
	staffID, err := s.lookup(domain.EntityStaff, in.Email)
	if err != nil {
		return err
	}
	managerID, err := s.lookup(domain.EntityManager, in.ManagerEmail)
	if err != nil {
		return err
	}
	_, err = s.svc.AssignStaffManager(ctx, staffID, managerID)
	return err
}

func (s *Seeder) seedGuest(ctx context.Context, in SeedGuest) {
	born, err := seedDate(domain.EntityGuest, "birth_date", in.BirthDate)
	if err != nil {
		s.fail(domain.EntityGuest, in.Email, err)
		return
	}
	g, err := s.svc.CreateGuest(ctx, domain.Guest{
		FirstName: in.FirstName, LastName: in.LastName, Email: in.Email,
		PhoneNumber: in.PhoneNumber, BirthDate: born, Nationality: in.Nationality,
	})
	if err != nil {
		s.fail(domain.EntityGuest, in.Email, err)
		return
	}
	s.ok(domain.EntityGuest, in.Email, g.ID)
}

func (s *Seeder) seedRoom(ctx context.Context, in SeedRoom) {
	managerID, err := s.lookup(domain.EntityManager, in.ManagerEmail)
	if err != nil {
		s.fail(domain.EntityRoom, in.Number, err)
		return
	}
	b := domain.NewRoom().Number(in.Number).Floor(in.Floor).Capacity(in.Capacity).
		NightlyRate(in.NightlyRate).Type(in.Type)
	if managerID != 0 {
		b = b.Manager(managerID)
	}
	r, err := s.svc.CreateRoom(ctx, b.Build())
	if err != nil {
		s.fail(domain.EntityRoom, in.Number, err)
		return
	}
	s.ok(domain.EntityRoom, in.Number, r.ID)
}

func (s *Seeder) seedReservation(ctx context.Context, in SeedReservation) {
	key := in.Code
	if key == "" {
		key = in.GuestEmail + "/" + in.RoomNumber + "/" + in.CheckInDate
	}
	fail := func(err error) { s.fail(domain.EntityReservation, key, err) }

	guestID, err := s.lookup(domain.EntityGuest, in.GuestEmail)
	if err != nil {
		fail(err)
		return
	}
	roomID, err := s.lookup(domain.EntityRoom, in.RoomNumber)
	if err != nil {
		fail(err)
		return
	}
	staffID, err := s.lookup(domain.EntityStaff, in.StaffEmail)
	if err != nil {
		fail(err)
		return
	}
	checkIn, err := seedDate(domain.EntityReservation, "check_in_date", in.CheckInDate)
	if err != nil {
		fail(err)
		return
	}
	checkOut, err := seedDate(domain.EntityReservation, "check_out_date", in.CheckOutDate)
	if err != nil {
		fail(err)
		return
	}
	if checkIn == nil || checkOut == nil {
		fail(&domain.ValidationError{Entity: domain.EntityReservation, Field: "check_in_date", Reason: "both dates are required"})
		return
	}

	b := domain.NewReservation().Code(in.Code).Guest(guestID).Room(roomID).Dates(*checkIn, *checkOut)
	if in.GuestCount != 0 {
		b = b.Guests(in.GuestCount)
	}
	if in.Status != "" {
		b = b.Status(in.Status)
	}
	if in.TotalAmount != nil {
		b = b.Total(*in.TotalAmount)
	}
	if staffID != 0 {
		b = b.AssignedTo(staffID)
	}
	r, err := s.svc.CreateReservation(ctx, b.Build())
	if err != nil {
		fail(err)
		return
	}
	s.ok(domain.EntityReservation, key, r.ID)
}
