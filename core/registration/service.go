package registration

import (
	"context"
	"fmt"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/duplicate"
	"github.com/mustafamuse/irshad-center-sub008/core/normalize"
	"github.com/mustafamuse/irshad-center-sub008/core/person"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

var (
	// errors
	ErrProgramClosed = errors.New("registration is closed for this program")

	raceText    = "a person with this contact was registered at the same time, please check your details"
	siblingNote = "linked at registration"
)

const confirmationTemplate = "registration_received"

type (
	// Registrar registers persons into programs.
	Registrar interface {
		Register(ctx context.Context, nr NewRegistration) (Result, error)
	}

	PersonCreator interface {
		CreatePersonWithContact(ctx context.Context, np person.NewPerson, exec ...core.DBExecutor) (person.Person, error)
	}

	ProfileCreator interface {
		CreateProgramProfileWithEnrollment(ctx context.Context, np profile.NewProfile, exec ...core.DBExecutor) (profile.ProgramProfile, error)
	}

	DuplicateChecker interface {
		CheckDuplicate(ctx context.Context, email, phone string, program profile.Program, exec ...core.DBExecutor) (duplicate.Result, error)
	}

	SiblingLinker interface {
		LinkProfiles(ctx context.Context, primaryPersonID string, siblingProfileIDs []string, note string, exec ...core.DBExecutor) (sibling.LinkResult, error)
	}

	Deps struct {
		DB         core.Transactor
		Persons    PersonCreator
		Profiles   ProfileCreator
		Detector   DuplicateChecker
		Linker     SiblingLinker
		Mailer     core.EmailService
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Service struct {
		Deps
		conf core.RegistrationConfig
	}
)

var _ Registrar = (*Service)(nil)

func NewService(conf core.RegistrationConfig, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = core.NopLogger{}
	}
	return &Service{Deps: deps, conf: conf}
}

// Register runs the duplicate check, then creates (or reuses) the person, the program profile, its enrollment
// and the sibling links in one transaction.
// Domain failures are reported in the Result; the error is reserved for infrastructure failures.
// Sibling links that could not be made do not fail the registration.
func (svc *Service) Register(ctx context.Context, nr NewRegistration) (Result, error) {
	res, err := svc.register(ctx, nr)
	if err != nil {
		return svc.toResult(nr, err)
	}
	return res, nil
}

func (svc *Service) register(ctx context.Context, nr NewRegistration) (Result, error) {
	if err := nr.Validate(svc.Validate); err != nil {
		return Result{}, core.TranslateValidationErrors(err, svc.Translator)
	}
	if !svc.programEnabled(nr.Program) {
		return Result{}, core.NewValidationError(ErrProgramClosed, core.FieldError{
			Field: "program",
			Error: "registration for " + nr.Program.Label() + " is closed",
		})
	}

	dup, err := svc.Detector.CheckDuplicate(ctx, nr.Email, nr.Phone, nr.Program)
	if err != nil {
		return Result{}, errors.Wrap(err, "checking duplicates")
	}
	if dup.Blocking() {
		return Result{}, newDuplicateError(nr.Program, dup)
	}

	var (
		res  Result
		prsn person.Person
		prof profile.ProgramProfile
	)
	err = svc.DB.WithTransaction(ctx, func(exec core.DBExecutor) error {
		var err error
		if existing, ok := dup.Person(); ok {
			prsn = existing
			res.Attached = true
		} else if prsn, err = svc.Persons.CreatePersonWithContact(ctx, nr.newPerson(), exec); err != nil {
			return err
		}

		np := nr.newProfile(prsn.ID)
		if err = np.Validate(svc.Validate); err != nil {
			return core.TranslateValidationErrors(err, svc.Translator)
		}
		if prof, err = svc.Profiles.CreateProgramProfileWithEnrollment(ctx, np, exec); err != nil {
			return err
		}

		res.Siblings, err = svc.Linker.LinkProfiles(ctx, prsn.ID, nr.SiblingProfileIDs, siblingNote, exec)
		return errors.Wrap(err, "linking siblings")
	})
	if err != nil {
		return Result{}, err
	}

	if res.Siblings.Failed > 0 {
		svc.Logger.Warn(
			fmt.Sprintf("registration %s: %d sibling link(s) failed", prof.ID, res.Siblings.Failed),
			res.Siblings.Failures,
		)
	}
	svc.Logger.Info(fmt.Sprintf("registered person %s into %s (profile %s)", prsn.ID, prof.Program, prof.ID))
	svc.sendConfirmation(nr, prsn, prof, res.Siblings)

	res.Success = true
	res.ProfileID = prof.ID
	res.PersonID = prsn.ID
	res.Name = prsn.Name()
	return res, nil
}

func (svc *Service) programEnabled(p profile.Program) bool {
	switch p {
	case profile.ProgramDugsi:
		return svc.conf.DugsiEnabled
	case profile.ProgramMahad:
		return svc.conf.MahadEnabled
	}
	return false
}

// toResult converts domain errors into a failed Result. Anything else is returned as is.
func (svc *Service) toResult(nr NewRegistration, err error) (Result, error) {
	switch e := errors.Cause(err).(type) {
	case *core.ValidationError:
		if fe, ok := e.FirstField(); ok {
			return failure(FailureValidation, fe.Error, fe.Field), nil
		}
		return failure(FailureValidation, e.Error(), ""), nil
	case *DuplicateError:
		return failure(FailureDuplicate, e.Message, e.FormField()), nil
	}

	switch errors.Cause(err) {
	case person.ErrContactExists, profile.ErrActiveProfileExists:
		// lost the race against a concurrent registration with the same contact
		field := "email"
		if normalize.Email(nr.Email) == "" {
			field = "phone"
		}
		svc.Logger.Warn("registration race: " + err.Error())
		return failure(FailureDuplicate, raceText, field), nil
	case person.ErrNotFound, profile.ErrNotFound, sibling.ErrPersonNotFound:
		return failure(FailureNotFound, errors.Cause(err).Error(), ""), nil
	}
	return Result{}, err
}

func (svc *Service) sendConfirmation(nr NewRegistration, p person.Person, prof profile.ProgramProfile, links sibling.LinkResult) {
	if !svc.conf.SendConfirmation || svc.Mailer == nil {
		return
	}
	addr := p.PrimaryEmail()
	if addr == "" {
		addr = normalize.Email(nr.Email)
	}
	if addr == "" {
		return
	}

	svc.Mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.Name(), Address: addr}},
		Subject:      prof.Program.Label() + " registration received",
		TemplateName: confirmationTemplate,
		TemplateData: map[string]interface{}{
			"Program":  prof.Program.Label(),
			"Name":     p.Name(),
			"Date":     core.FormatDate(prof.CreatedAt),
			"Status":   prof.Status.Label(),
			"Siblings": links.Added,
		},
	})
}
