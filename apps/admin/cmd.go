package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mustafamuse/irshad-center-sub008/core/profile"
	"github.com/mustafamuse/irshad-center-sub008/core/registration"
	"github.com/mustafamuse/irshad-center-sub008/core/sibling"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	ctx       context.Context
	out       io.Writer
	db        *sqlx.DB
	registrar registration.Registrar
	detector  registration.DuplicateChecker
	linker    *sibling.Linker
	profiles  *profile.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                      - run a goose command (up, down, status...)")
	fmt.Fprintln(cli.out, "  register -program P -first F -last L [-email E] [-phone P]  - register a person into a program")
	fmt.Fprintln(cli.out, "  check -program P [-email E] [-phone P]                      - check for an existing registration")
	fmt.Fprintln(cli.out, "  link -person ID -siblings ID,ID                             - link persons as siblings")
	fmt.Fprintln(cli.out, "  unlink -a ID -b ID                                          - deactivate a sibling relationship")
	fmt.Fprintln(cli.out, "  export -program P -out FILE                                 - export the program roster as XLSX")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "register":
		return cli.register(args[2:])
	case "check":
		return cli.check(args[2:])
	case "link":
		return cli.link(args[2:])
	case "unlink":
		return cli.unlink(args[2:])
	case "export":
		return cli.export(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parseProgram(fs *flag.FlagSet, value string) (profile.Program, error) {
	program, ok := profile.ParseProgram(value)
	if !ok {
		fs.Usage()
		return "", errHelp
	}
	return program, nil
}

// splitIDs splits a comma separated list, ignoring blanks.
func splitIDs(s string) []string {
	ids := make([]string, 0)
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
