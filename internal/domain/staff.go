package domain

import "time"

// ManagementInfo is the extension carried by managers. It is persisted in its
// own table keyed by the staff id.
type ManagementInfo struct {
	Department  string `json:"department,omitempty"`
	AccessLevel int    `json:"access_level"`
}

// StaffRecord is the base personnel record. A non-nil Management marks the
// record as a manager; identity is shared between both views.
type StaffRecord struct {
	ID          int64           `json:"id"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Email       string          `json:"email"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	Position    string          `json:"position"`
	HireDate    *time.Time      `json:"hire_date,omitempty"`
	Salary      *Money          `json:"salary,omitempty"`
	ManagerID   *int64          `json:"manager_id,omitempty"`
	Management  *ManagementInfo `json:"management,omitempty"`
}

func (s StaffRecord) IsManager() bool { return s.Management != nil }

func (s StaffRecord) Equal(o StaffRecord) bool { return sameIdentity(s.ID, o.ID) }

func (s StaffRecord) Validate() error {
	for _, err := range []error{
		required(EntityStaff, "first_name", s.FirstName),
		required(EntityStaff, "last_name", s.LastName),
		required(EntityStaff, "email", s.Email),
		required(EntityStaff, "position", s.Position),
		maxLen(EntityStaff, "phone_number", s.PhoneNumber, 25),
	} {
		if err != nil {
			return err
		}
	}
	if s.Salary != nil && *s.Salary < 0 {
		return invalid(EntityStaff, "salary", "must not be negative")
	}
	if s.ManagerID != nil && s.ID != 0 && *s.ManagerID == s.ID {
		return invalid(EntityStaff, "manager_id", "cannot manage oneself")
	}
	if s.Management != nil {
		return s.Management.Validate()
	}
	return nil
}

func (m ManagementInfo) Validate() error {
	if m.AccessLevel < 0 {
		return invalid(EntityManager, "access_level", "must not be negative")
	}
	return nil
}

func (s StaffRecord) Normalized() StaffRecord {
	s.Email = NormalizeEmail(s.Email)
	s.HireDate = dateOfPtr(s.HireDate)
	return s
}

func (s StaffRecord) Clone() StaffRecord {
	s.HireDate = cloneTime(s.HireDate)
	s.Salary = cloneMoney(s.Salary)
	s.ManagerID = cloneID(s.ManagerID)
	if s.Management != nil {
		m := *s.Management
		s.Management = &m
	}
	return s
}
