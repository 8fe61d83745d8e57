package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	reportsvc "github.com/mustafamuse/irshad-center-sub008/services/report"
)

var nowFunc = time.Now // mockable

func (cli *commandLine) export(args []string) error {
	fs := cli.newFlagSet("export")
	program := fs.String("program", "", "DUGSI or MAHAD")
	out := fs.String("out", "", "output file, defaults to roster-<PROGRAM>-<date>.xlsx")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prog, err := cli.parseProgram(fs, *program)
	if err != nil {
		return err
	}

	rows, err := cli.profiles.Roster(cli.ctx, prog)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = reportsvc.RosterFilename(prog, nowFunc().UTC().Format(dateLayout))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	if err = reportsvc.WriteRoster(f, prog, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing export file")
	}
	fmt.Fprintf(cli.out, "exported %d %s students to %s\n", len(rows), prog.Label(), path)
	return nil
}
