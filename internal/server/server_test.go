package server

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/selfmadecero/onevdr/internal/feed"
	"github.com/selfmadecero/onevdr/internal/insights"
	"github.com/selfmadecero/onevdr/internal/services"
	"github.com/selfmadecero/onevdr/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goahttp "goa.design/goa/v3/http"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// stubInsightSource returns fixed values for the insight operations.
type stubInsightSource struct{}

func (stubInsightSource) PipelineInsights(ctx context.Context, investors []domain.Investor) (*insights.PipelineSummary, error) {
	return &insights.PipelineSummary{Summary: "Pipeline looks strong"}, nil
}

func (stubInsightSource) FitScore(ctx context.Context, investor *domain.Investor) (int, error) {
	return 81, nil
}

func (stubInsightSource) Insight(ctx context.Context, investor *domain.Investor) (string, error) {
	return "Solid stage progression", nil
}

func (stubInsightSource) PortfolioFocus(ctx context.Context, investor *domain.Investor) ([]string, error) {
	return []string{"ai"}, nil
}

func (stubInsightSource) Likelihood(ctx context.Context, investor *domain.Investor) (int, error) {
	return 64, nil
}

func (stubInsightSource) SuggestedActions(ctx context.Context, investor *domain.Investor) ([]string, error) {
	return []string{"schedule call"}, nil
}

type testEnv struct {
	db        *gorm.DB
	hub       *feed.Hub
	investors *services.InvestorService
	handler   http.Handler
}

func newTestEnv(t *testing.T, source services.InsightSource) *testEnv {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        ":memory:",
		Conn:       sqlDB,
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Investor{}, &domain.DataRoomStats{}))

	hub := feed.NewHub()
	authSvc := services.NewAuthService(db)
	investorSvc := services.NewInvestorService(db, hub, nil, nil)
	insightsSvc := services.NewInsightsService(db, hub, source, nil)
	dataRoomSvc := services.NewDataRoomService(db, nil)
	healthSvc := services.NewHealthService("OneVDR API", db)

	mux := goahttp.NewMuxer()
	srv := New(mux, authSvc, investorSvc, insightsSvc, dataRoomSvc, healthSvc, hub)
	srv.Mount()

	return &testEnv{db: db, hub: hub, investors: investorSvc, handler: srv.Handler()}
}

func (e *testEnv) createUser(t *testing.T, username, password string, admin bool) *domain.User {
	t.Helper()

	hashed, err := util.HashPassword(password)
	require.NoError(t, err)
	user := &domain.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: hashed,
		IsActive:       true,
		IsAdmin:        admin,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) token(t *testing.T, user *domain.User) string {
	t.Helper()

	token, err := util.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.HealthResult
	decodeBody(t, rec, &result)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "up", result.Database)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "alice", "open-sesame", false)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "open-sesame",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login services.LoginResult
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "bearer", login.TokenType)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me services.UserResult
	decodeBody(t, rec, &me)
	assert.Equal(t, "alice", me.Username)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var msg services.MessageResult
	decodeBody(t, rec, &msg)
	assert.Equal(t, "incorrect username or password", msg.Message)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGuard(t *testing.T) {
	env := newTestEnv(t, nil)
	member := env.createUser(t, "member", "pw", false)
	admin := env.createUser(t, "root", "pw", true)

	payload := map[string]interface{}{
		"username":  "newbie",
		"email":     "newbie@example.com",
		"password":  "pw",
		"is_active": true,
	}

	rec := env.do(t, http.MethodPost, "/api/v1/auth/users", env.token(t, member), payload)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/users", env.token(t, admin), payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/users", env.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []services.UserResult
	decodeBody(t, rec, &users)
	assert.Len(t, users, 3)
}

func TestInvestorLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice", "pw", false)
	token := env.token(t, user)

	rec := env.do(t, http.MethodPost, "/api/v1/investors", token, map[string]interface{}{
		"name":    "Morgan Lee",
		"company": "Lee Capital",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Investor
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 0, created.CurrentStep)

	rec = env.do(t, http.MethodGet, "/api/v1/investors", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Investor
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)

	rec = env.do(t, http.MethodPut, "/api/v1/investors/"+created.ID, token, map[string]interface{}{
		"name":  "Morgan Lee",
		"notes": "met at demo day",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Investor
	decodeBody(t, rec, &updated)
	assert.Nil(t, updated.Company, "field omitted from the draft is cleared")
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "met at demo day", *updated.Notes)

	for i := 0; i < domain.FinalStage; i++ {
		rec = env.do(t, http.MethodPost, "/api/v1/investors/"+created.ID+"/advance", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/investors/"+created.ID+"/advance", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var msg services.MessageResult
	decodeBody(t, rec, &msg)
	assert.Equal(t, "investor is already at the final stage", msg.Message)

	rec = env.do(t, http.MethodPost, "/api/v1/investors/"+created.ID+"/retreat", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/investors/"+created.ID+"/status", token, map[string]string{
		"status": "paused",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var paused domain.Investor
	decodeBody(t, rec, &paused)
	assert.Equal(t, domain.StatusPaused, paused.Status)

	rec = env.do(t, http.MethodPost, "/api/v1/investors/"+created.ID+"/comments", token, map[string]string{
		"text": "great meeting",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var commented domain.Investor
	decodeBody(t, rec, &commented)
	require.Len(t, commented.Comments, 1)
	commentID := commented.Comments[0].ID

	rec = env.do(t, http.MethodPut,
		fmt.Sprintf("/api/v1/investors/%s/comments/%d", created.ID, commentID), token,
		map[string]string{"text": "great second meeting"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/v1/investors/%s/comments/%d", created.ID, commentID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pruned domain.Investor
	decodeBody(t, rec, &pruned)
	assert.Empty(t, pruned.Comments)

	rec = env.do(t, http.MethodGet, "/api/v1/investors/"+created.ID+"/data-room", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.DataRoomStats
	decodeBody(t, rec, &stats)
	assert.Zero(t, stats.DocumentsViewed)

	rec = env.do(t, http.MethodDelete, "/api/v1/investors/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/investors/"+created.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnershipIsolationOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.createUser(t, "alice", "pw", false)
	bob := env.createUser(t, "bob", "pw", false)

	rec := env.do(t, http.MethodPost, "/api/v1/investors", env.token(t, alice), map[string]string{
		"name": "Private Deal",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Investor
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/api/v1/investors/"+created.ID, env.token(t, bob), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/investors", env.token(t, bob), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Investor
	decodeBody(t, rec, &list)
	assert.Empty(t, list)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice", "pw", false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/investors", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token(t, user))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var msg services.MessageResult
	decodeBody(t, rec, &msg)
	assert.Equal(t, "invalid request body", msg.Message)
}

func TestInsightEndpoints(t *testing.T) {
	env := newTestEnv(t, stubInsightSource{})
	user := env.createUser(t, "alice", "pw", false)
	token := env.token(t, user)

	rec := env.do(t, http.MethodPost, "/api/v1/investors", token, map[string]string{"name": "Scored"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Investor
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/api/v1/investors/"+created.ID+"/insights", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result services.InvestorInsights
	decodeBody(t, rec, &result)
	assert.Equal(t, 81, result.FitScore)
	assert.Equal(t, "Solid stage progression", result.Insight)

	var stored domain.Investor
	require.NoError(t, env.db.First(&stored, "id = ?", created.ID).Error)
	require.NotNil(t, stored.FitScore)
	assert.Equal(t, 81, *stored.FitScore)

	rec = env.do(t, http.MethodGet, "/api/v1/investors/insights", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary insights.PipelineSummary
	decodeBody(t, rec, &summary)
	assert.Equal(t, "Pipeline looks strong", summary.Summary)
}

func TestInsightEndpointsDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice", "pw", false)
	token := env.token(t, user)

	rec := env.do(t, http.MethodPost, "/api/v1/investors", token, map[string]string{"name": "Unscored"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Investor
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/api/v1/investors/"+created.ID+"/insights", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var msg services.MessageResult
	decodeBody(t, rec, &msg)
	assert.Equal(t, "insight generation is disabled", msg.Message)
}

func TestFeedStreamsSnapshots(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.createUser(t, "alice", "pw", false)
	token := env.token(t, user)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/investors/feed", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// Connecting delivers the current (empty) collection immediately.
	snapshot := readSnapshotEvent(t, reader)
	assert.Empty(t, snapshot)

	// A committed write must reach the open stream.
	created, err := env.investors.Create(context.Background(), user, &services.CreateInvestorPayload{Name: "Streamed"})
	require.NoError(t, err)

	snapshot = readSnapshotEvent(t, reader)
	require.Len(t, snapshot, 1)
	assert.Equal(t, created.ID, snapshot[0].ID)
	assert.Equal(t, "Streamed", snapshot[0].Name)
}

func readSnapshotEvent(t *testing.T, reader *bufio.Reader) []domain.Investor {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if strings.HasPrefix(line, "data: ") {
			var snapshot []domain.Investor
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot))
			return snapshot
		}
	}
}
