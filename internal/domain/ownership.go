package domain

// DeleteAction is what happens to dependents when their owner is deleted.
type DeleteAction int

const (
	// Cascade deletes the dependents together with the owner.
	Cascade DeleteAction = iota + 1
	// Nullify clears the dependents' reference and keeps them.
	Nullify
)

func (a DeleteAction) String() string {
	switch a {
	case Cascade:
		return "cascade"
	case Nullify:
		return "nullify"
	}
	return "unknown"
}

// OwnershipRule describes one association and which side governs it.
type OwnershipRule struct {
	Owner     string
	Dependent string
	Reference string // dependent field pointing at the owner
	OnDelete  DeleteAction
	// BlockedBy lists dependent statuses that make a cascade fail.
	BlockedBy []ReservationStatus
}

// OwnershipRules is the single source of truth for cascade and nulling
// behaviour. Guest and Room own their reservations; everything else is a
// weak reference.
var OwnershipRules = []OwnershipRule{
	{Owner: EntityGuest, Dependent: EntityReservation, Reference: "guest_id", OnDelete: Cascade, BlockedBy: []ReservationStatus{StatusCheckedIn}},
	{Owner: EntityRoom, Dependent: EntityReservation, Reference: "room_id", OnDelete: Cascade, BlockedBy: []ReservationStatus{StatusCheckedIn}},
	{Owner: EntityStaff, Dependent: EntityReservation, Reference: "assigned_staff_id", OnDelete: Nullify},
	{Owner: EntityManager, Dependent: EntityStaff, Reference: "manager_id", OnDelete: Nullify},
	{Owner: EntityManager, Dependent: EntityRoom, Reference: "manager_id", OnDelete: Nullify},
}

func RulesFor(owner string) []OwnershipRule {
	var out []OwnershipRule
	for _, r := range OwnershipRules {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out
}

// CheckCascade fails with ConflictError when any owned reservation is in a
// status that blocks deleting ownerID under rule.
func (rule OwnershipRule) CheckCascade(ownerID int64, owned []Reservation) error {
	for _, res := range owned {
		for _, s := range rule.BlockedBy {
			if res.Status == s {
				return &ConflictError{
					Entity:        rule.Owner,
					ID:            ownerID,
					ReservationID: res.ID,
					Reason:        "owns a " + string(s) + " reservation",
				}
			}
		}
	}
	return nil
}

// CheckRemoval guards deleting a single reservation (directly or by orphan
// removal): a guest who is in the room cannot be erased.
func CheckRemoval(r Reservation) error {
	if r.Status == StatusCheckedIn {
		return &ConflictError{Entity: EntityReservation, ID: r.ID, Reason: "reservation is checked in"}
	}
	return nil
}
