package main

import (
	"context"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/services"
)

// serviceCollection adapts the investor service to the tracker's Collection
// interface for one acting user.
type serviceCollection struct {
	svc  *services.InvestorService
	user *domain.User
}

func (c *serviceCollection) List(ctx context.Context) ([]domain.Investor, error) {
	return c.svc.List(ctx, c.user)
}

func (c *serviceCollection) Create(ctx context.Context, draft *domain.Investor) (*domain.Investor, error) {
	payload := &services.CreateInvestorPayload{
		Name:             draft.Name,
		Company:          draft.Company,
		Email:            draft.Email,
		Phone:            draft.Phone,
		Website:          draft.Website,
		InvestmentAmount: draft.InvestmentAmount,
		FundSize:         draft.FundSize,
		Notes:            draft.Notes,
		AISummary:        draft.AISummary,
	}
	if draft.Importance != "" {
		importance := draft.Importance
		payload.Importance = &importance
	}
	return c.svc.Create(ctx, c.user, payload)
}

func (c *serviceCollection) Update(ctx context.Context, draft *domain.Investor) (*domain.Investor, error) {
	payload := &services.UpdateInvestorPayload{
		Name:             draft.Name,
		Company:          draft.Company,
		Email:            draft.Email,
		Phone:            draft.Phone,
		Website:          draft.Website,
		InvestmentAmount: draft.InvestmentAmount,
		FundSize:         draft.FundSize,
		Importance:       draft.Importance,
		Notes:            draft.Notes,
		AISummary:        draft.AISummary,
	}
	return c.svc.Update(ctx, c.user, draft.ID, payload)
}

func (c *serviceCollection) Delete(ctx context.Context, id string) error {
	return c.svc.Delete(ctx, c.user, id)
}

func (c *serviceCollection) Advance(ctx context.Context, id string) (*domain.Investor, error) {
	return c.svc.Advance(ctx, c.user, id)
}

func (c *serviceCollection) Retreat(ctx context.Context, id string) (*domain.Investor, error) {
	return c.svc.Retreat(ctx, c.user, id)
}

func (c *serviceCollection) SetStatus(ctx context.Context, id, status string) (*domain.Investor, error) {
	return c.svc.SetStatus(ctx, c.user, id, status)
}

func (c *serviceCollection) AddComment(ctx context.Context, id, text string) (*domain.Investor, error) {
	return c.svc.AddComment(ctx, c.user, id, text)
}

// serviceStats adapts the data room service to the tracker's StatsFetcher.
type serviceStats struct {
	svc  *services.DataRoomService
	user *domain.User
}

func (s *serviceStats) Stats(ctx context.Context, investorID string) (*domain.DataRoomStats, error) {
	return s.svc.Stats(ctx, s.user, investorID)
}
