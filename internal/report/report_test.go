package report

import (
	"strings"
	"testing"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func investor(name string, step int, status string) domain.Investor {
	return domain.Investor{
		ID:          name,
		Name:        name,
		CurrentStep: step,
		Status:      status,
		Importance:  domain.ImportanceMedium,
	}
}

func TestBuildGroupsAndTotals(t *testing.T) {
	amount := decimal.NewFromInt(500000)
	fit := 85

	closing := investor("Omega Capital", domain.FinalStage, domain.StatusClosed)
	closing.InvestmentAmount = &amount
	closing.FitScore = &fit
	closing.Comments = domain.CommentList{{ID: 1, Text: "signed"}}

	zulu := investor("zulu ventures", 0, domain.StatusActive)
	alpha := investor("Alpha Partners", 0, domain.StatusPaused)

	p := Build("alice", []domain.Investor{closing, zulu, alpha}, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))

	assert.Equal(t, "alice", p.Owner)
	assert.Equal(t, "2026-03-14 09:30 UTC", p.Generated)
	require.Len(t, p.Stages, len(domain.StageNames))

	assert.Equal(t, 3, p.Totals.Investors)
	assert.Equal(t, 1, p.Totals.Active)
	assert.Equal(t, 1, p.Totals.Paused)
	assert.Equal(t, 1, p.Totals.Closed)
	assert.Equal(t, 1, p.Totals.ClosedDeals)
	assert.Equal(t, "500000.00", p.Totals.Committed)

	first := p.Stages[0]
	require.Len(t, first.Investors, 2)
	assert.Equal(t, "Alpha Partners", first.Investors[0].Name, "alphabetical within a stage")
	assert.Equal(t, "zulu ventures", first.Investors[1].Name)

	last := p.Stages[domain.FinalStage]
	require.Len(t, last.Investors, 1)
	row := last.Investors[0]
	assert.Equal(t, "500000.00", row.Amount)
	assert.Equal(t, "85%", row.FitScore)
	assert.Equal(t, 1, row.Comments)
}

func TestBuildFormatsMissingFieldsAsDash(t *testing.T) {
	p := Build("alice", []domain.Investor{investor("Bare Fund", 2, domain.StatusActive)}, time.Now())

	row := p.Stages[2].Investors[0]
	assert.Equal(t, "-", row.Company)
	assert.Equal(t, "-", row.Amount)
	assert.Equal(t, "-", row.FitScore)
	assert.Zero(t, row.Comments)
}

func TestRender(t *testing.T) {
	deck := investor("Deck Ventures", 3, domain.StatusActive)
	company := "Deck Holdings"
	deck.Company = &company

	p := Build("alice", []domain.Investor{deck}, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	out := Render(p)

	assert.Contains(t, out, "# Investor Pipeline: alice")
	assert.Contains(t, out, "Generated 2026-03-14 09:30 UTC.")
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "### Due Diligence (1)")
	assert.Contains(t, out, "| Deck Ventures | Deck Holdings | active | medium | - | - | 0 |")
	assert.Contains(t, out, "### Closing (0)")
	assert.Contains(t, out, "No investors at this stage.")
	assert.False(t, strings.Contains(out, "error "), "templates execute cleanly")
}

func TestRenderEmptyPipeline(t *testing.T) {
	out := Render(Build("alice", nil, time.Now()))

	assert.Contains(t, out, "| 0 | 0 | 0 | 0 | 0 | 0.00 |")
	for _, stage := range domain.StageNames {
		assert.Contains(t, out, "### "+stage+" (0)")
	}
}
