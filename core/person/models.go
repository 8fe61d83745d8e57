package person

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

type ContactKind string

const (
	ContactEmail    ContactKind = "EMAIL"
	ContactPhone    ContactKind = "PHONE"
	ContactWhatsApp ContactKind = "WHATSAPP"
)

// PhoneKinds are the contact kinds a phone number is matched against.
var PhoneKinds = []ContactKind{ContactPhone, ContactWhatsApp}

func (k ContactKind) IsValid() bool {
	switch k {
	case ContactEmail, ContactPhone, ContactWhatsApp:
		return true
	}
	return false
}

// ContactState is the lifecycle of a ContactPoint. Contacts are deactivated, never deleted.
type ContactState string

const (
	ContactActive   ContactState = "ACTIVE"
	ContactInactive ContactState = "INACTIVE"
)

type ContactPoint struct {
	ID        string       `json:"id"`
	PersonID  string       `json:"person_id"`
	Kind      ContactKind  `json:"kind"`
	Value     string       `json:"value"` // normalized
	IsPrimary bool         `json:"is_primary"`
	State     ContactState `json:"state"`
	CreatedAt time.Time    `json:"created_at"` // UTC
}

func (c ContactPoint) IsActive() bool { return c.State == ContactActive }

type Person struct {
	ID          string         `json:"id"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	DateOfBirth null.Time      `json:"date_of_birth"`
	Contacts    []ContactPoint `json:"contacts"`
	CreatedAt   time.Time      `json:"created_at"` // UTC
	UpdatedAt   time.Time      `json:"updated_at"` // UTC
}

// Name is the display name.
func (p Person) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PrimaryContact returns the active contact of one of kinds, preferring primary ones.
func (p Person) PrimaryContact(kinds ...ContactKind) (ContactPoint, bool) {
	var (
		found ContactPoint
		ok    bool
	)
	for _, c := range p.Contacts {
		if !c.IsActive() || !kindIn(c.Kind, kinds) {
			continue
		}
		if c.IsPrimary {
			return c, true
		}
		if !ok {
			found, ok = c, true
		}
	}
	return found, ok
}

func (p Person) PrimaryEmail() string {
	c, _ := p.PrimaryContact(ContactEmail)
	return c.Value
}

func (p Person) PrimaryPhone() string {
	c, _ := p.PrimaryContact(PhoneKinds...)
	return c.Value
}

func kindIn(k ContactKind, kinds []ContactKind) bool {
	for _, kind := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// NewPerson contains information needed to create a new Person with contacts.
type NewPerson struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Email       string
	Phone       string
	WhatsApp    string
}
