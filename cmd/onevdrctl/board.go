package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/services"
	"github.com/selfmadecero/onevdr/internal/tracker"
)

// boardCmd renders a user's pipeline board in the terminal. Filtering and
// sorting run through the same view-model the UI uses.
type boardCmd struct {
	user   string
	status string
	sortBy string
	expand string
}

func (*boardCmd) Name() string     { return "board" }
func (*boardCmd) Synopsis() string { return "show a user's pipeline board" }
func (*boardCmd) Usage() string {
	return `onevdrctl board -user <name> [-status all|active|paused|closed] [-sort name|company|amount] [-expand <id>]

  Lists the user's investors after client-side filtering and sorting.
  Expanding a record also shows its data room activity.
`
}

func (c *boardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "Username whose pipeline to show.")
	f.StringVar(&c.status, "status", tracker.FilterAll, "Status filter: all, active, paused or closed.")
	f.StringVar(&c.sortBy, "sort", string(tracker.SortByName), "Sort key: name, company or amount.")
	f.StringVar(&c.expand, "expand", "", "Investor id to expand with data room activity.")
}

func (c *boardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.status != tracker.FilterAll && !domain.ValidStatus(c.status) {
		fmt.Fprintf(os.Stderr, "Error: invalid status %q\n", c.status)
		return subcommands.ExitUsageError
	}
	switch tracker.SortKey(c.sortBy) {
	case tracker.SortByName, tracker.SortByCompany, tracker.SortByAmount:
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid sort key %q\n", c.sortBy)
		return subcommands.ExitUsageError
	}

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
	dataRoomSvc := services.NewDataRoomService(db, nil)

	tr := tracker.New(
		&serviceCollection{svc: investorSvc, user: user},
		&serviceStats{svc: dataRoomSvc, user: user},
		nil,
		nil,
	)
	if err := tr.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading pipeline: %v\n", err)
		return subcommands.ExitFailure
	}

	tr.SetStatusFilter(c.status)
	tr.SetSortKey(tracker.SortKey(c.sortBy))
	if c.expand != "" {
		tr.ToggleExpanded(ctx, c.expand)
	}

	printMarkdown(c.render(tr, user.Username))
	return subcommands.ExitSuccess
}

func (c *boardCmd) render(tr *tracker.Tracker, username string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pipeline board: %s\n\n", username)

	visible := tr.Visible()
	if len(visible) == 0 {
		b.WriteString("No investors match.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%d investors (status: %s, sort: %s)\n\n", len(visible), c.status, c.sortBy)
	b.WriteString("| Stage | Investor | Firm | Status | Importance | Amount |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, inv := range visible {
		fmt.Fprintf(&b, "| %d/%d %s | %s | %s | %s | %s | %s |\n",
			inv.CurrentStep+1, len(domain.StageNames), domain.StageName(inv.CurrentStep),
			inv.Name, orDash(inv.Company), inv.Status, inv.Importance, amountOrDash(&inv))
	}

	if c.expand != "" && tr.Expanded(c.expand) {
		fmt.Fprintf(&b, "\n## Data room activity: %s\n\n", c.expand)
		stats := tr.StatsFor(c.expand)
		if stats == nil {
			b.WriteString("No activity recorded.\n")
		} else {
			fmt.Fprintf(&b, "Documents viewed: %d\n\n", stats.DocumentsViewed)
			fmt.Fprintf(&b, "Time spent: %ds\n\n", stats.TimeSpentSeconds)
			if stats.LastAccessed != nil {
				fmt.Fprintf(&b, "Last accessed: %s\n", stats.LastAccessed.Format("2006-01-02 15:04 MST"))
			} else {
				b.WriteString("Last accessed: never\n")
			}
		}
	}
	return b.String()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func amountOrDash(inv *domain.Investor) string {
	if inv.InvestmentAmount == nil {
		return "-"
	}
	return inv.InvestmentAmount.StringFixed(2)
}
