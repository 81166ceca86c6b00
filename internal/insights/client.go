package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/selfmadecero/onevdr/internal/config"
	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/metrics"
	apperrors "github.com/selfmadecero/onevdr/pkg/errors"
	"google.golang.org/genai"
)

const systemPrompt = `You are an investment analyst assisting a founder who tracks
investor relationships through a fixed fundraising pipeline. Base every answer
only on the record data in the request. Respond with JSON matching the requested
shape exactly, with no extra keys and no prose outside the JSON.`

// PipelineSummary is the synthesized, collection-level insights object.
type PipelineSummary struct {
	Summary         string   `json:"summary"`
	TopProspects    []string `json:"top_prospects"`
	Recommendations []string `json:"recommendations"`
}

// Client generates qualitative insights for investor records through the
// Gemini API. All operations are independent of each other; callers decide
// whether a failure matters.
type Client struct {
	client    *genai.Client
	model     string
	timeout   time.Duration
	genConfig *genai.GenerateContentConfig
}

// New creates an insights client from the AI configuration
func New(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternalError, "failed to create genai client", err)
	}

	log.Printf("[INSIGHTS] Client ready: model=%s, timeout=%ds", cfg.Model, cfg.TimeoutSeconds)
	return &Client{
		client:  client,
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		genConfig: &genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		},
	}, nil
}

// PipelineInsights synthesizes one insights object over the caller's current
// records.
func (c *Client) PipelineInsights(ctx context.Context, investors []domain.Investor) (*PipelineSummary, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "The pipeline currently holds %d investors.\n\n", len(investors))
	for i := range investors {
		fmt.Fprintf(&b, "Investor %d:\n%s\n", i+1, investorBrief(&investors[i]))
	}
	b.WriteString(`Summarize the state of this pipeline. Respond as {"summary": string, "top_prospects": [investor names], "recommendations": [short action strings]}.`)

	var out PipelineSummary
	if err := c.generateJSON(ctx, "pipeline_insights", b.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FitScore estimates how well the investor fits the portfolio, as a percent.
func (c *Client) FitScore(ctx context.Context, inv *domain.Investor) (int, error) {
	prompt := investorBrief(inv) +
		`Estimate how well this investor fits as a lead for the company. Respond as {"fit_score": integer between 0 and 100}.`

	var out struct {
		FitScore int `json:"fit_score"`
	}
	if err := c.generateJSON(ctx, "fit_score", prompt, &out); err != nil {
		return 0, err
	}
	return clampPercent(out.FitScore), nil
}

// Insight produces one free-text insight about the investor.
func (c *Client) Insight(ctx context.Context, inv *domain.Investor) (string, error) {
	prompt := investorBrief(inv) +
		`Give the single most useful insight about this relationship in one or two sentences. Respond as {"insight": string}.`

	var out struct {
		Insight string `json:"insight"`
	}
	if err := c.generateJSON(ctx, "insight", prompt, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Insight), nil
}

// PortfolioFocus lists the investor's likely portfolio focus areas.
func (c *Client) PortfolioFocus(ctx context.Context, inv *domain.Investor) ([]string, error) {
	prompt := investorBrief(inv) +
		`List this investor's likely portfolio focus areas as short tags. Respond as {"portfolio_focus": [strings]}.`

	var out struct {
		PortfolioFocus []string `json:"portfolio_focus"`
	}
	if err := c.generateJSON(ctx, "portfolio_focus", prompt, &out); err != nil {
		return nil, err
	}
	return out.PortfolioFocus, nil
}

// Likelihood estimates the probability that the investor invests, as a percent.
func (c *Client) Likelihood(ctx context.Context, inv *domain.Investor) (int, error) {
	prompt := investorBrief(inv) +
		`Estimate the likelihood that this investor ultimately invests. Respond as {"likelihood": integer between 0 and 100}.`

	var out struct {
		Likelihood int `json:"likelihood"`
	}
	if err := c.generateJSON(ctx, "likelihood", prompt, &out); err != nil {
		return 0, err
	}
	return clampPercent(out.Likelihood), nil
}

// SuggestedActions proposes concrete next actions for the relationship.
func (c *Client) SuggestedActions(ctx context.Context, inv *domain.Investor) ([]string, error) {
	prompt := investorBrief(inv) +
		`Suggest the next actions to move this relationship forward, most important first. Respond as {"suggested_actions": [short action strings]}.`

	var out struct {
		SuggestedActions []string `json:"suggested_actions"`
	}
	if err := c.generateJSON(ctx, "suggested_actions", prompt, &out); err != nil {
		return nil, err
	}
	return out.SuggestedActions, nil
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string, out interface{}) error {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(cctx, c.model, contents, c.genConfig)
	metrics.RecordAIRequest(operation, time.Since(start), err)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternalError, fmt.Sprintf("%s request failed", operation), err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return apperrors.New(apperrors.ErrCodeInternalError, fmt.Sprintf("%s returned no candidates", operation))
	}

	raw := resp.Candidates[0].Content.Parts[0].Text
	if err := decodeResponse(raw, out); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeValidation, fmt.Sprintf("%s returned unparseable JSON", operation), err)
	}
	return nil
}

// investorBrief renders the record data an operation is allowed to use.
func investorBrief(inv *domain.Investor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", inv.Name)
	if inv.Company != nil && *inv.Company != "" {
		fmt.Fprintf(&b, "Firm: %s\n", *inv.Company)
	}
	fmt.Fprintf(&b, "Pipeline stage: %s (%d of %d)\n", domain.StageName(inv.CurrentStep), inv.CurrentStep+1, len(domain.StageNames))
	fmt.Fprintf(&b, "Status: %s\n", inv.Status)
	fmt.Fprintf(&b, "Importance: %s\n", inv.Importance)
	if inv.InvestmentAmount != nil {
		fmt.Fprintf(&b, "Expected investment: %s\n", inv.InvestmentAmount.String())
	}
	if inv.FundSize != nil {
		fmt.Fprintf(&b, "Fund size: %s\n", inv.FundSize.String())
	}
	if len(inv.PortfolioFocus) > 0 {
		fmt.Fprintf(&b, "Known portfolio focus: %s\n", strings.Join(inv.PortfolioFocus, ", "))
	}
	if inv.Notes != nil && *inv.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", *inv.Notes)
	}
	if n := len(inv.Comments); n > 0 {
		recent := inv.Comments
		if n > 5 {
			recent = recent[n-5:]
		}
		b.WriteString("Recent comments:\n")
		for _, cm := range recent {
			fmt.Fprintf(&b, "- %s\n", cm.Text)
		}
	}
	b.WriteString("\n")
	return b.String()
}

// decodeResponse strips the markdown code fences the model sometimes wraps
// around JSON output, then unmarshals.
func decodeResponse(raw string, out interface{}) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal([]byte(s), out)
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
