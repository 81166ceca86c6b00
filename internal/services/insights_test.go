package services

import (
	"context"
	"testing"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/insights"
	apperrors "github.com/selfmadecero/onevdr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineInsights(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeInsightSource{summary: &insights.PipelineSummary{
		Summary:      "Pipeline is healthy",
		TopProspects: []string{"Alice Chen"},
	}}
	svc := NewInsightsService(db, nil, fake, nil)
	user := newTestUser(t, db, "alice")

	investors := []domain.Investor{{ID: "a", Name: "Alice Chen"}}
	summary, err := svc.Pipeline(context.Background(), user, investors)
	require.NoError(t, err)
	assert.Equal(t, "Pipeline is healthy", summary.Summary)
	assert.Equal(t, 1, fake.callCount("pipeline"))
}

func TestPipelineRejectsEmptyCollection(t *testing.T) {
	db := newTestDB(t)
	svc := NewInsightsService(db, nil, &fakeInsightSource{}, nil)
	user := newTestUser(t, db, "alice")

	_, err := svc.Pipeline(context.Background(), user, nil)
	requireServiceError(t, err, ErrTypeBadRequest)
}

func TestInsightsDisabledWithoutSource(t *testing.T) {
	db := newTestDB(t)
	svc := NewInsightsService(db, nil, nil, nil)
	user := newTestUser(t, db, "alice")

	_, err := svc.Pipeline(context.Background(), user, []domain.Investor{{ID: "a"}})
	requireServiceError(t, err, ErrTypeBadRequest)

	_, err = svc.ForInvestor(context.Background(), user, &domain.Investor{ID: "a"})
	requireServiceError(t, err, ErrTypeBadRequest)
}

func TestForInvestorPersistsResult(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeInsightSource{fitScore: 88, insight: "Strong stage fit"}
	svc := NewInsightsService(db, nil, fake, nil)
	user := newTestUser(t, db, "alice")

	investor := &domain.Investor{UserID: user.ID, Name: "Scored"}
	require.NoError(t, db.Create(investor).Error)

	result, err := svc.ForInvestor(context.Background(), user, investor)
	require.NoError(t, err)
	assert.Equal(t, 88, result.FitScore)
	assert.Equal(t, "Strong stage fit", result.Insight)

	var stored domain.Investor
	require.NoError(t, db.First(&stored, "id = ?", investor.ID).Error)
	require.NotNil(t, stored.FitScore)
	assert.Equal(t, 88, *stored.FitScore)
	require.NotNil(t, stored.Insight)
	assert.Equal(t, "Strong stage fit", *stored.Insight)
}

func TestForInvestorSurfacesSourceFailure(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeInsightSource{err: assert.AnError}
	svc := NewInsightsService(db, nil, fake, nil)
	user := newTestUser(t, db, "alice")

	investor := &domain.Investor{UserID: user.ID, Name: "Unscored"}
	require.NoError(t, db.Create(investor).Error)

	_, err := svc.ForInvestor(context.Background(), user, investor)
	requireServiceError(t, err, ErrTypeInternal)

	var stored domain.Investor
	require.NoError(t, db.First(&stored, "id = ?", investor.ID).Error)
	assert.Nil(t, stored.FitScore)
}

func TestTranslateInsightError(t *testing.T) {
	err := translateInsightError(apperrors.New(apperrors.ErrCodeBadRequest, "missing api key"))
	assert.Equal(t, ErrTypeBadRequest, err.Type)

	err = translateInsightError(assert.AnError)
	assert.Equal(t, ErrTypeInternal, err.Type)
}
