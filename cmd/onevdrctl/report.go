package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/selfmadecero/onevdr/internal/report"
	"github.com/selfmadecero/onevdr/internal/services"
)

// reportCmd renders the markdown pipeline report for one user.
type reportCmd struct {
	user string
	raw  bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render a user's pipeline report" }
func (*reportCmd) Usage() string {
	return `onevdrctl report -user <name> [-raw]

  Renders the stage-by-stage pipeline report. With -raw the markdown is
  printed unformatted, suitable for piping into a file.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Username whose pipeline to report on.")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering it.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := openBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	user, err := findUser(db, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	investorSvc := services.NewInvestorService(db, nil, nil, nil)
	investors, err := investorSvc.List(ctx, user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing investors: %v\n", err)
		return subcommands.ExitFailure
	}

	md := report.Render(report.Build(user.Username, investors, time.Now()))
	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
