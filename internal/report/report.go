// Package report renders a user's investor pipeline as a markdown report.
// The data is assembled into plain view structs first, so the templates stay
// free of formatting logic.
package report

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

// Pipeline is the report's view of one user's collection.
type Pipeline struct {
	Owner     string
	Generated string
	Stages    []StageGroup
	Totals    Totals
}

// StageGroup lists the investors sitting at one pipeline stage.
type StageGroup struct {
	Name      string
	Investors []Row
}

// Row is one pre-formatted investor line.
type Row struct {
	Name       string
	Company    string
	Status     string
	Importance string
	Amount     string
	FitScore   string
	Comments   int
}

// Totals summarizes the collection.
type Totals struct {
	Investors   int
	Active      int
	Paused      int
	Closed      int
	ClosedDeals int
	Committed   string
}

// Build assembles the report data for one user's collection. Investors are
// grouped by stage and listed alphabetically within each group.
func Build(owner string, investors []domain.Investor, generatedAt time.Time) *Pipeline {
	p := &Pipeline{
		Owner:     owner,
		Generated: generatedAt.Format("2006-01-02 15:04 MST"),
		Stages:    make([]StageGroup, len(domain.StageNames)),
		Totals:    Totals{Investors: len(investors)},
	}
	for i, name := range domain.StageNames {
		p.Stages[i] = StageGroup{Name: name}
	}

	committed := decimal.Zero
	for i := range investors {
		inv := &investors[i]

		switch inv.Status {
		case domain.StatusActive:
			p.Totals.Active++
		case domain.StatusPaused:
			p.Totals.Paused++
		case domain.StatusClosed:
			p.Totals.Closed++
		}
		if inv.AtFinalStage() {
			p.Totals.ClosedDeals++
		}
		committed = committed.Add(inv.AmountOrZero())

		step := inv.CurrentStep
		if step < domain.FirstStage || step > domain.FinalStage {
			continue
		}
		p.Stages[step].Investors = append(p.Stages[step].Investors, row(inv))
	}
	p.Totals.Committed = committed.StringFixed(2)

	for i := range p.Stages {
		rows := p.Stages[i].Investors
		sort.SliceStable(rows, func(a, b int) bool {
			return strings.ToLower(rows[a].Name) < strings.ToLower(rows[b].Name)
		})
	}
	return p
}

// Render renders the pipeline report to a markdown string.
func Render(p *Pipeline) string {
	partials := map[string]string{
		"pipeline_summary": "templates/pipeline_summary.md",
		"pipeline_stages":  "templates/pipeline_stages.md",
	}
	return renderTemplate("pipeline", "templates/pipeline.md", partials, p)
}

func row(inv *domain.Investor) Row {
	r := Row{
		Name:       inv.Name,
		Company:    "-",
		Status:     inv.Status,
		Importance: inv.Importance,
		Amount:     "-",
		FitScore:   "-",
		Comments:   len(inv.Comments),
	}
	if inv.Company != nil && *inv.Company != "" {
		r.Company = *inv.Company
	}
	if inv.InvestmentAmount != nil {
		r.Amount = inv.InvestmentAmount.StringFixed(2)
	}
	if inv.FitScore != nil {
		r.FitScore = fmt.Sprintf("%d%%", *inv.FitScore)
	}
	return r
}

// renderTemplate renders a main template that depends on named partials.
// Template problems surface in the output rather than as errors; the
// templates are embedded, so they can only break in development.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
