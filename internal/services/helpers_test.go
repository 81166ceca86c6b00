package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/insights"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        ":memory:",
		Conn:       sqlDB,
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Investor{}, &domain.DataRoomStats{}))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()

	user := &domain.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "not-a-real-hash",
		IsActive:       true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func requireServiceError(t *testing.T, err error, errType ErrorType) {
	t.Helper()

	require.Error(t, err)
	svcErr, ok := err.(*ServiceError)
	require.True(t, ok, "expected *ServiceError, got %T", err)
	require.Equal(t, errType, svcErr.Type)
}

// fakeInsightSource returns canned values and records which operations ran.
type fakeInsightSource struct {
	mu    sync.Mutex
	calls []string

	summary    *insights.PipelineSummary
	fitScore   int
	insight    string
	focus      []string
	likelihood int
	actions    []string
	err        error
}

func (f *fakeInsightSource) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeInsightSource) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeInsightSource) PipelineInsights(ctx context.Context, investors []domain.Investor) (*insights.PipelineSummary, error) {
	f.record("pipeline")
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeInsightSource) FitScore(ctx context.Context, investor *domain.Investor) (int, error) {
	f.record("fit_score")
	if f.err != nil {
		return 0, f.err
	}
	return f.fitScore, nil
}

func (f *fakeInsightSource) Insight(ctx context.Context, investor *domain.Investor) (string, error) {
	f.record("insight")
	if f.err != nil {
		return "", f.err
	}
	return f.insight, nil
}

func (f *fakeInsightSource) PortfolioFocus(ctx context.Context, investor *domain.Investor) ([]string, error) {
	f.record("portfolio_focus")
	if f.err != nil {
		return nil, f.err
	}
	return f.focus, nil
}

func (f *fakeInsightSource) Likelihood(ctx context.Context, investor *domain.Investor) (int, error) {
	f.record("likelihood")
	if f.err != nil {
		return 0, f.err
	}
	return f.likelihood, nil
}

func (f *fakeInsightSource) SuggestedActions(ctx context.Context, investor *domain.Investor) ([]string, error) {
	f.record("suggested_actions")
	if f.err != nil {
		return nil, f.err
	}
	return f.actions, nil
}
