package main

import (
	"fmt"
	"time"

	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
)

const dateLayout = "2006-01-02"

func (cli *commandLine) register(args []string) error {
	fs := cli.newFlagSet("register")
	program := fs.String("program", "", "DUGSI or MAHAD")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	shift := fs.String("shift", "", "MORNING or AFTERNOON (Dugsi)")
	dob := fs.String("dob", "", "date of birth, YYYY-MM-DD")
	siblings := fs.String("siblings", "", "comma separated profile IDs of the registrant's siblings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prog, err := cli.parseProgram(fs, *program)
	if err != nil {
		return err
	}

	nr := registration.NewRegistration{
		Program:           prog,
		FirstName:         *first,
		LastName:          *last,
		Email:             *email,
		Phone:             *phone,
		Shift:             profile.Shift(*shift),
		SiblingProfileIDs: splitIDs(*siblings),
	}
	if *dob != "" {
		if nr.DateOfBirth, err = time.Parse(dateLayout, *dob); err != nil {
			return fmt.Errorf("dob: %q is not a YYYY-MM-DD date", *dob)
		}
	}

	res, err := cli.registrar.Register(cli.ctx, nr)
	if err != nil {
		return err
	}
	if !res.Success {
		if res.Field != "" {
			return fmt.Errorf("%s: %s", res.Field, res.Error)
		}
		return fmt.Errorf("%s", res.Error)
	}

	fmt.Fprintf(cli.out, "registered %s into %s\n", res.Name, prog.Label())
	fmt.Fprintf(cli.out, "  person:  %s\n", res.PersonID)
	fmt.Fprintf(cli.out, "  profile: %s\n", res.ProfileID)
	if res.Attached {
		fmt.Fprintln(cli.out, "  attached to an existing person")
	}
	printLinkResult(cli, res.Siblings.Added, res.Siblings.Skipped, res.Siblings.Failed)
	return nil
}

func (cli *commandLine) check(args []string) error {
	fs := cli.newFlagSet("check")
	program := fs.String("program", "", "DUGSI or MAHAD")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prog, err := cli.parseProgram(fs, *program)
	if err != nil {
		return err
	}
	if *email == "" && *phone == "" {
		fs.Usage()
		return errHelp
	}

	res, err := cli.detector.CheckDuplicate(cli.ctx, *email, *phone, prog)
	if err != nil {
		return err
	}
	if !res.IsDuplicate {
		fmt.Fprintln(cli.out, "no existing person found")
		return nil
	}

	ep := res.ExistingPerson
	fmt.Fprintf(cli.out, "existing person %s (%s) matched on %s\n", ep.Name, ep.ID, res.DuplicateField)
	if res.PhoneMatchPersonID != "" {
		fmt.Fprintf(cli.out, "  phone also belongs to %s\n", res.PhoneMatchPersonID)
	}
	if ap := res.ActiveProfile; ap != nil {
		fmt.Fprintf(cli.out, "  active %s profile %s: %s since %s\n", prog.Label(), ap.ID, ap.StatusLabel, ap.CreatedAtLabel)
	} else {
		fmt.Fprintf(cli.out, "  no active %s profile, a registration would attach to this person\n", prog.Label())
	}
	return nil
}
