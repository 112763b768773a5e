package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire and display form of calendar dates.
const DateLayout = "2006-01-02"

// Money is an amount in minor units (cents).
type Money int64

func Cents(c int64) *Money {
	m := Money(c)
	return &m
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping t's calendar day.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return Date(y, m, d)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// sameIdentity: transient instances (id 0) are never equal to anything.
func sameIdentity(a, b int64) bool { return a != 0 && a == b }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func dateOfPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}

func required(entity, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(entity, field, "is required")
	}
	return nil
}

func maxLen(entity, field, v string, n int) error {
	if len(v) > n {
		return invalid(entity, field, "is too long")
	}
	return nil
}
