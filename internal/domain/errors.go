package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for errors.Is; every typed error below matches exactly one of them.
var (
	ErrNotFound          = errors.New("not found")
	ErrUniqueness        = errors.New("uniqueness violation")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOverlap           = errors.New("overlapping reservation")
	ErrCapacity          = errors.New("room capacity exceeded")
	ErrConflict          = errors.New("conflicting state")
	ErrValidation        = errors.New("validation failed")
)

// Entity names used in errors and in the ownership table.
const (
	EntityGuest       = "guest"
	EntityRoom        = "room"
	EntityStaff       = "staff"
	EntityManager     = "manager"
	EntityReservation = "reservation"
)

type NotFoundError struct {
	Entity string
	Key    string // "42", "email=a@b.c", ...
}

func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(id)}
}

func NotFoundBy(entity, field, value string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: field + "=" + value}
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Entity, e.Key) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type UniquenessError struct {
	Entity string
	Field  string
	Value  string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}
func (e *UniquenessError) Is(target error) bool { return target == ErrUniqueness }

type InvalidTransitionError struct {
	ReservationID int64
	From, To      ReservationStatus
	Reason        string
}

func (e *InvalidTransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "<new>"
	}
	msg := fmt.Sprintf("reservation %d: cannot move from %s to %s", e.ReservationID, from, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type OverlapError struct {
	RoomID            int64
	ConflictingID     int64
	CheckIn, CheckOut time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("room %d already booked for [%s, %s) by reservation %d",
		e.RoomID, e.CheckIn.Format(DateLayout), e.CheckOut.Format(DateLayout), e.ConflictingID)
}
func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }

type CapacityError struct {
	RoomID     int64
	Capacity   int
	GuestCount int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("room %d holds %d guests, %d requested", e.RoomID, e.Capacity, e.GuestCount)
}
func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// ConflictError reports a mutation blocked by the state of a dependent record,
// typically a cascade delete hitting a CHECKED_IN reservation.
type ConflictError struct {
	Entity        string
	ID            int64
	ReservationID int64
	Reason        string
}

func (e *ConflictError) Error() string {
	if e.ReservationID != 0 {
		return fmt.Sprintf("%s %d: %s (reservation %d)", e.Entity, e.ID, e.Reason, e.ReservationID)
	}
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func invalid(entity, field, reason string) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
}
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
