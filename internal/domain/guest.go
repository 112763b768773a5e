package domain

import "time"

type Guest struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
}

// Equal compares identities only; see sameIdentity.
func (g Guest) Equal(o Guest) bool { return sameIdentity(g.ID, o.ID) }

func (g Guest) Validate() error {
	for _, err := range []error{
		required(EntityGuest, "first_name", g.FirstName),
		required(EntityGuest, "last_name", g.LastName),
		required(EntityGuest, "email", g.Email),
		maxLen(EntityGuest, "phone_number", g.PhoneNumber, 25),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Normalized returns a copy ready for persistence.
func (g Guest) Normalized() Guest {
	g.Email = NormalizeEmail(g.Email)
	g.BirthDate = dateOfPtr(g.BirthDate)
	return g
}

func (g Guest) Clone() Guest {
	g.BirthDate = cloneTime(g.BirthDate)
	return g
}

// GuestBuilder allows partial initialization before persistence.
type GuestBuilder struct{ g Guest }

func NewGuest() *GuestBuilder { return &GuestBuilder{} }

func (b *GuestBuilder) Name(first, last string) *GuestBuilder {
	b.g.FirstName, b.g.LastName = first, last
	return b
}

func (b *GuestBuilder) Email(email string) *GuestBuilder { b.g.Email = email; return b }
func (b *GuestBuilder) Phone(phone string) *GuestBuilder { b.g.PhoneNumber = phone; return b }
func (b *GuestBuilder) Nationality(n string) *GuestBuilder {
	b.g.Nationality = n
	return b
}

func (b *GuestBuilder) BirthDate(d time.Time) *GuestBuilder {
	b.g.BirthDate = &d
	return b
}

func (b *GuestBuilder) Build() Guest { return b.g.Clone() }
