package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/selfmadecero/onevdr/internal/cache"
	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/feed"
	"github.com/selfmadecero/onevdr/internal/insights"
	apperrors "github.com/selfmadecero/onevdr/pkg/errors"
	"gorm.io/gorm"
)

// InsightSource generates the qualitative fields for investor records. The
// live implementation is insights.Client; tests substitute fakes.
type InsightSource interface {
	PipelineInsights(ctx context.Context, investors []domain.Investor) (*insights.PipelineSummary, error)
	FitScore(ctx context.Context, investor *domain.Investor) (int, error)
	Insight(ctx context.Context, investor *domain.Investor) (string, error)
	PortfolioFocus(ctx context.Context, investor *domain.Investor) ([]string, error)
	Likelihood(ctx context.Context, investor *domain.Investor) (int, error)
	SuggestedActions(ctx context.Context, investor *domain.Investor) ([]string, error)
}

// InvestorInsights is the per-record insight pair served by the API
type InvestorInsights struct {
	FitScore int    `json:"fit_score"`
	Insight  string `json:"insight"`
}

// InsightsService serves insight requests over a user's records. Responses
// are cached when a cache is configured, and per-record results are
// persisted onto the record so the next snapshot carries them.
type InsightsService struct {
	db     *gorm.DB
	hub    *feed.Hub
	source InsightSource
	cache  *cache.Cache
}

// NewInsightsService creates a new insights service. A nil source means
// insight generation is disabled; requests then fail with bad request.
func NewInsightsService(db *gorm.DB, hub *feed.Hub, source InsightSource, c *cache.Cache) *InsightsService {
	return &InsightsService{db: db, hub: hub, source: source, cache: c}
}

// Pipeline implements the pipeline insights method: one synthesized object
// over the user's entire collection.
func (s *InsightsService) Pipeline(ctx context.Context, user *domain.User, investors []domain.Investor) (*insights.PipelineSummary, error) {
	log.Printf("[INSIGHTS] Pipeline request: user=%d, investors=%d", user.ID, len(investors))

	if s.source == nil {
		return nil, NewBadRequestError("insight generation is disabled")
	}
	if len(investors) == 0 {
		return nil, NewBadRequestError("no investors to analyze")
	}

	key := pipelineCacheKey(user, investors)
	var cached insights.PipelineSummary
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("[INSIGHTS] Cache read failed: %v", err)
	} else if ok {
		log.Printf("[INSIGHTS] Pipeline served from cache: user=%d", user.ID)
		return &cached, nil
	}

	summary, err := s.source.PipelineInsights(ctx, investors)
	if err != nil {
		log.Printf("[INSIGHTS] Pipeline failed: user=%d: %v", user.ID, err)
		return nil, translateInsightError(err)
	}

	if err := s.cache.Set(ctx, key, summary); err != nil {
		log.Printf("[INSIGHTS] Cache write failed: %v", err)
	}

	log.Printf("[INSIGHTS] Pipeline successful: user=%d", user.ID)
	return summary, nil
}

// ForInvestor implements the per-record insights method: a fit score plus
// one free-text insight. A successful result is written back to the record
// and the refreshed list is published to the feed.
func (s *InsightsService) ForInvestor(ctx context.Context, user *domain.User, investor *domain.Investor) (*InvestorInsights, error) {
	log.Printf("[INSIGHTS] ForInvestor request: id=%s, user=%d", investor.ID, user.ID)

	if s.source == nil {
		return nil, NewBadRequestError("insight generation is disabled")
	}

	key := fmt.Sprintf("onevdr:insights:investor:%s:%d", investor.ID, investor.UpdatedAt.UnixMilli())
	var cached InvestorInsights
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Printf("[INSIGHTS] Cache read failed: %v", err)
	} else if ok {
		log.Printf("[INSIGHTS] ForInvestor served from cache: id=%s", investor.ID)
		return &cached, nil
	}

	fitScore, err := s.source.FitScore(ctx, investor)
	if err != nil {
		log.Printf("[INSIGHTS] FitScore failed: id=%s: %v", investor.ID, err)
		return nil, translateInsightError(err)
	}
	insight, err := s.source.Insight(ctx, investor)
	if err != nil {
		log.Printf("[INSIGHTS] Insight failed: id=%s: %v", investor.ID, err)
		return nil, translateInsightError(err)
	}

	result := &InvestorInsights{FitScore: fitScore, Insight: insight}

	updates := map[string]interface{}{
		"fit_score": fitScore,
		"insight":   insight,
	}
	if err := s.db.WithContext(ctx).Model(&domain.Investor{}).Where("id = ?", investor.ID).Updates(updates).Error; err != nil {
		log.Printf("[INSIGHTS] Persisting insights failed: id=%s: %v", investor.ID, err)
	} else {
		s.publishSnapshot(ctx, user)
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Printf("[INSIGHTS] Cache write failed: %v", err)
	}

	log.Printf("[INSIGHTS] ForInvestor successful: id=%s, fit_score=%d", investor.ID, fitScore)
	return result, nil
}

func (s *InsightsService) publishSnapshot(ctx context.Context, user *domain.User) {
	if s.hub == nil {
		return
	}
	var investors []domain.Investor
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Order("created_at DESC").Find(&investors).Error; err != nil {
		log.Printf("[INSIGHTS] Snapshot refresh failed: user=%d: %v", user.ID, err)
		return
	}
	s.hub.Publish(user.ID, investors)
}

// pipelineCacheKey changes whenever the collection's newest write or its
// size changes, so stale summaries age out quickly even within the TTL.
func pipelineCacheKey(user *domain.User, investors []domain.Investor) string {
	var latest time.Time
	for i := range investors {
		if investors[i].UpdatedAt.After(latest) {
			latest = investors[i].UpdatedAt
		}
	}
	return fmt.Sprintf("onevdr:insights:pipeline:%d:%d:%d", user.ID, len(investors), latest.UnixMilli())
}

func translateInsightError(err error) *ServiceError {
	if apperrors.IsBadRequest(err) {
		return NewBadRequestError(err.Error())
	}
	return NewInternalError("insight generation failed", err)
}
