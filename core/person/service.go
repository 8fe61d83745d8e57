package person

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
)

var (
	// errors
	ErrNotFound = errors.New("person not found")
	// ErrContactExists is returned when a contact (kind, value) is already owned by a person.
	// It surfaces the unique constraint, so it can happen despite a clean duplicate check.
	ErrContactExists = errors.New("a person with this contact already exists")
)

// nowFunc is mockable
var nowFunc = time.Now

type (
	Repository interface {
		// CreatePerson inserts the person and its contacts, assigning IDs.
		CreatePerson(ctx context.Context, p Person, exec ...core.DBExecutor) (Person, error)
		// GetPerson loads a person with all contacts.
		GetPerson(ctx context.Context, id string, exec ...core.DBExecutor) (Person, error)
		// FindByContact returns the owner of the active contact with value and one of kinds.
		FindByContact(ctx context.Context, value string, kinds []ContactKind, exec ...core.DBExecutor) (Person, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePersonWithContact normalizes np and stores it as a new person with one contact per non-empty channel.
// Email and phone become primary contacts.
func (svc *Service) CreatePersonWithContact(ctx context.Context, np NewPerson, exec ...core.DBExecutor) (Person, error) {
	now := nowFunc().UTC()
	p := Person{
		FirstName: normalize.Name(np.FirstName),
		LastName:  normalize.Name(np.LastName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !np.DateOfBirth.IsZero() {
		p.DateOfBirth = null.TimeFrom(np.DateOfBirth.UTC())
	}

	addContact := func(kind ContactKind, value string, primary bool) {
		if value == "" {
			return
		}
		p.Contacts = append(p.Contacts, ContactPoint{
			Kind:      kind,
			Value:     value,
			IsPrimary: primary,
			State:     ContactActive,
			CreatedAt: now,
		})
	}
	phone := normalize.Phone(np.Phone)
	whatsApp := normalize.Phone(np.WhatsApp)
	addContact(ContactEmail, normalize.Email(np.Email), true)
	addContact(ContactPhone, phone, true)
	if whatsApp != phone { // same number is already covered by the phone contact
		addContact(ContactWhatsApp, whatsApp, false)
	}

	created, err := svc.repo.CreatePerson(ctx, p, exec...)
	if err != nil {
		if errors.Cause(err) == ErrContactExists {
			return Person{}, ErrContactExists
		}
		return Person{}, errors.Wrap(err, "creating person")
	}
	return created, nil
}

func (svc *Service) GetByID(ctx context.Context, id string, exec ...core.DBExecutor) (Person, error) {
	return svc.repo.GetPerson(ctx, normalize.ID(id), exec...)
}

// FindByEmail returns ErrNotFound for unknown or unusable input.
func (svc *Service) FindByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Person, error) {
	email = normalize.Email(email)
	if email == "" {
		return Person{}, ErrNotFound
	}
	return svc.repo.FindByContact(ctx, email, []ContactKind{ContactEmail}, exec...)
}

// FindByPhone matches phone and whatsapp contacts. It returns ErrNotFound for unknown or unusable input.
func (svc *Service) FindByPhone(ctx context.Context, phone string, exec ...core.DBExecutor) (Person, error) {
	phone = normalize.Phone(phone)
	if phone == "" {
		return Person{}, ErrNotFound
	}
	return svc.repo.FindByContact(ctx, phone, PhoneKinds, exec...)
}
