package app

import (
	"context"

	"overlook_hotel/internal/domain"
)

func (s *BookingService) CreateStaff(ctx context.Context, st domain.StaffRecord) (domain.StaffRecord, error) {
	st.ID = 0
	st = st.Normalized()
	if err := st.Validate(); err != nil {
		return domain.StaffRecord{}, err
	}
	var out domain.StaffRecord
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		if st.ManagerID != nil {
			if _, err := requireManager(ctx, tx, *st.ManagerID); err != nil {
				return err
			}
		}
		var err error
		out, err = tx.InsertStaff(ctx, st)
		return err
	})
	return out, err
}

// UpdateStaff changes the common fields. The variant only changes through
// PromoteToManager and DemoteManager; a manager's ManagementInfo may be
// edited here.
func (s *BookingService) UpdateStaff(ctx context.Context, st domain.StaffRecord) (domain.StaffRecord, error) {
	st = st.Normalized()
	if err := st.Validate(); err != nil {
		return domain.StaffRecord{}, err
	}
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		old, err := tx.StaffByID(ctx, st.ID)
		if err != nil {
			return err
		}
		switch {
		case st.Management == nil:
			st.Management = old.Management
		case !old.IsManager():
			return &domain.ConflictError{Entity: domain.EntityStaff, ID: st.ID, Reason: "not a manager; promote first"}
		}
		if st.ManagerID != nil {
			if err := s.checkChain(ctx, tx, st.ID, *st.ManagerID); err != nil {
				return err
			}
		}
		u.touch(staffKey(st.ID))
		return tx.UpdateStaff(ctx, st)
	})
	if err != nil {
		return domain.StaffRecord{}, err
	}
	return st, nil
}

// DeleteStaff never deletes reservations: assignments, team membership and
// room oversight pointing at the staff member are cleared.
func (s *BookingService) DeleteStaff(ctx context.Context, id int64) error {
	return s.run(ctx, func(tx domain.Tx, u *unit) error {
		st, err := tx.StaffByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.release(ctx, tx, u, domain.EntityStaff, id); err != nil {
			return err
		}
		if st.IsManager() {
			if err := s.release(ctx, tx, u, domain.EntityManager, id); err != nil {
				return err
			}
		}
		u.touch(staffKey(id))
		return tx.DeleteStaff(ctx, id)
	})
}

// PromoteToManager attaches management info to an existing staff record.
// Identity and every reservation assignment are kept.
func (s *BookingService) PromoteToManager(ctx context.Context, staffID int64, info domain.ManagementInfo) (domain.StaffRecord, error) {
	if err := info.Validate(); err != nil {
		return domain.StaffRecord{}, err
	}
	var out domain.StaffRecord
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		st, err := tx.StaffByID(ctx, staffID)
		if err != nil {
			return err
		}
		if st.IsManager() {
			return &domain.ConflictError{Entity: domain.EntityStaff, ID: staffID, Reason: "already a manager"}
		}
		st.Management = &info
		u.touch(staffKey(staffID))
		out = st
		return tx.UpdateStaff(ctx, st)
	})
	return out, err
}

// DemoteManager drops the management extension and clears the references of
// the manager's team and rooms.
func (s *BookingService) DemoteManager(ctx context.Context, managerID int64) (domain.StaffRecord, error) {
	var out domain.StaffRecord
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		st, err := requireManager(ctx, tx, managerID)
		if err != nil {
			return err
		}
		if err := s.release(ctx, tx, u, domain.EntityManager, managerID); err != nil {
			return err
		}
		st.Management = nil
		u.touch(staffKey(managerID))
		out = st
		return tx.UpdateStaff(ctx, st)
	})
	return out, err
}

// AssignStaffManager puts staffID on managerID's team; managerID 0 clears.
func (s *BookingService) AssignStaffManager(ctx context.Context, staffID, managerID int64) (domain.StaffRecord, error) {
	var out domain.StaffRecord
	err := s.run(ctx, func(tx domain.Tx, u *unit) error {
		st, err := tx.StaffByID(ctx, staffID)
		if err != nil {
			return err
		}
		st.ManagerID = nil
		if managerID != 0 {
			if err := s.checkChain(ctx, tx, staffID, managerID); err != nil {
				return err
			}
			st.ManagerID = &managerID
		}
		u.touch(staffKey(staffID))
		out = st
		return tx.UpdateStaff(ctx, st)
	})
	return out, err
}

// checkChain verifies managerID is a manager and that reporting to it would
// not close a loop in the hierarchy.
func (s *BookingService) checkChain(ctx context.Context, tx domain.Tx, staffID, managerID int64) error {
	if managerID == staffID {
		return &domain.ValidationError{Entity: domain.EntityStaff, Field: "manager_id", Reason: "cannot manage oneself"}
	}
	m, err := requireManager(ctx, tx, managerID)
	if err != nil {
		return err
	}
	seen := map[int64]bool{managerID: true}
	for m.ManagerID != nil {
		next := *m.ManagerID
		if next == staffID {
			return &domain.ConflictError{Entity: domain.EntityStaff, ID: staffID, Reason: "reporting line would form a cycle"}
		}
		if seen[next] {
			break
		}
		seen[next] = true
		if m, err = tx.StaffByID(ctx, next); err != nil {
			return err
		}
	}
	return nil
}
