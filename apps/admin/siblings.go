package main

import (
	"fmt"
)

func (cli *commandLine) link(args []string) error {
	fs := cli.newFlagSet("link")
	personID := fs.String("person", "", "the primary person ID")
	siblings := fs.String("siblings", "", "comma separated person IDs to link to the primary person")
	note := fs.String("note", "", "optional note stored on new relationships")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids := splitIDs(*siblings)
	if *personID == "" || len(ids) == 0 {
		fs.Usage()
		return errHelp
	}

	res, err := cli.linker.LinkSiblings(cli.ctx, *personID, ids, *note)
	if err != nil {
		return err
	}
	printLinkResult(cli, res.Added, res.Skipped, res.Failed)
	for _, f := range res.Failures {
		fmt.Fprintf(cli.out, "  %s: %s\n", f.ID, f.Reason)
	}
	return nil
}

func (cli *commandLine) unlink(args []string) error {
	fs := cli.newFlagSet("unlink")
	a := fs.String("a", "", "first person ID")
	b := fs.String("b", "", "second person ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *a == "" || *b == "" {
		fs.Usage()
		return errHelp
	}

	if err := cli.linker.UnlinkSiblings(cli.ctx, *a, *b); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "unlinked %s and %s\n", *a, *b)
	return nil
}

func printLinkResult(cli *commandLine, added, skipped, failed int) {
	fmt.Fprintf(cli.out, "siblings: %d added, %d skipped, %d failed\n", added, skipped, failed)
}
