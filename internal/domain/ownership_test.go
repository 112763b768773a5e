package domain

import (
	"errors"
	"testing"
)

func TestRulesFor(t *testing.T) {
	if got := RulesFor(EntityManager); len(got) != 2 {
		t.Fatalf("manager rules: %+v", got)
	}
	for _, owner := range []string{EntityGuest, EntityRoom} {
		rules := RulesFor(owner)
		if len(rules) != 1 || rules[0].OnDelete != Cascade || rules[0].Dependent != EntityReservation {
			t.Fatalf("%s rules: %+v", owner, rules)
		}
	}
	if r := RulesFor(EntityStaff); len(r) != 1 || r[0].OnDelete != Nullify {
		t.Fatalf("staff rules: %+v", r)
	}
}

func TestCheckCascadeBlockedByCheckedIn(t *testing.T) {
	rule := RulesFor(EntityGuest)[0]
	owned := []Reservation{
		{ID: 1, Status: StatusPending},
		{ID: 2, Status: StatusCheckedIn},
	}
	err := rule.CheckCascade(9, owned)
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.ID != 9 || ce.ReservationID != 2 {
		t.Fatalf("expected conflict on reservation 2, got %v", err)
	}
	if err := rule.CheckCascade(9, owned[:1]); err != nil {
		t.Fatalf("pending must not block: %v", err)
	}
}

func TestEqualityIsByIdentity(t *testing.T) {
	a := Guest{ID: 1, FirstName: "A"}
	b := Guest{ID: 1, FirstName: "B"}
	if !a.Equal(b) {
		t.Fatal("same id must be equal")
	}
	if (Guest{}).Equal(Guest{}) {
		t.Fatal("transient instances are never equal")
	}
	if (StaffRecord{ID: 2}).Equal(StaffRecord{ID: 3}) {
		t.Fatal("different ids are not equal")
	}
}

func TestErrorSentinels(t *testing.T) {
	for _, c := range []struct {
		err  error
		want error
	}{
		{NotFound(EntityRoom, 1), ErrNotFound},
		{&UniquenessError{Entity: EntityGuest, Field: "email"}, ErrUniqueness},
		{&InvalidTransitionError{}, ErrInvalidTransition},
		{&OverlapError{}, ErrOverlap},
		{&CapacityError{}, ErrCapacity},
		{&ConflictError{}, ErrConflict},
		{&ValidationError{}, ErrValidation},
	} {
		if !errors.Is(c.err, c.want) {
			t.Errorf("%T does not match %v", c.err, c.want)
		}
		if errors.Is(c.err, ErrConflict) && c.want != ErrConflict {
			t.Errorf("%T matches ErrConflict", c.err)
		}
	}
}
