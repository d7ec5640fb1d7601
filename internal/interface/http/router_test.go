package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/mens-health/internal/domain/article"
	"github.com/yanqian/mens-health/internal/domain/assessment"
	"github.com/yanqian/mens-health/internal/domain/auth"
	"github.com/yanqian/mens-health/internal/domain/fitness"
	"github.com/yanqian/mens-health/internal/domain/healthfn"
	"github.com/yanqian/mens-health/internal/domain/localstore"
	"github.com/yanqian/mens-health/internal/domain/rating"
	"github.com/yanqian/mens-health/internal/domain/remote"
	"github.com/yanqian/mens-health/internal/domain/scoring"
	"github.com/yanqian/mens-health/internal/infra/assessmentrepo"
	"github.com/yanqian/mens-health/internal/infra/config"
	"github.com/yanqian/mens-health/internal/infra/kvstore"
	"github.com/yanqian/mens-health/internal/infra/userrepo"
	"github.com/yanqian/mens-health/pkg/metrics"
)

const referenceIntake = `{
	"personalInfo": {"age": "35", "height": "180", "weight": "75", "activityLevel": "very-active"},
	"healthHistory": {"chronicConditions": ["None"]},
	"lifestyle": {"exerciseFrequency": "Daily", "sleepHours": "8", "dietQuality": "Excellent (well-balanced, nutritious)", "stressLevel": "Low"},
	"goals": ["stay fit"]
}`

func TestRouter_PreflightOnAnyPath(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})

	rec := performRequest(server, http.MethodOptions, "/anything/at/all", "", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_FunctionMethodNotAllowed(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})

	for _, path := range []string{"/calculateHealthScore", "/getHealthHistory", "/sendHealthEmail"} {
		rec := performRequest(server, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
		require.Equal(t, "Method Not Allowed", decodeFlatError(t, rec.Body.Bytes()))
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRouter_CalculateAndHistory(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})

	rec := performRequest(server, http.MethodPost, "/calculateHealthScore", referenceIntake, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result scoring.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 100, result.Score)
	require.Equal(t, scoring.StatusExcellent, result.Status)
	require.Len(t, result.Recommendations, 2)

	rec = performRequest(server, http.MethodPost, "/getHealthHistory", `{}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history healthfn.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Assessments, 1)
	require.Equal(t, "test-user", history.Assessments[0].UserID)

	rec = performRequest(server, http.MethodPost, "/getHealthHistory", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Assessments, 1)
}

func TestRouter_FunctionCallerComesFromSession(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})
	owner := registerAndLogin(t, server, "owner@example.com")
	other := registerAndLogin(t, server, "other@example.com")

	rec := performRequest(server, http.MethodGet, "/api/v1/auth/me", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var me auth.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))

	body := strings.Replace(referenceIntake, "{", `{"userId":"`+me.ID+`",`, 1)
	rec = performRequest(server, http.MethodPost, "/calculateHealthScore", referenceIntake, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodPost, "/calculateHealthScore", body, "")
	require.Equal(t, http.StatusOK, rec.Code)

	readHistory := func(body, token string) healthfn.HistoryResponse {
		t.Helper()
		rec := performRequest(server, http.MethodPost, "/getHealthHistory", body, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var history healthfn.HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		return history
	}

	owned := readHistory(`{}`, owner)
	require.Len(t, owned.Assessments, 1)
	require.Equal(t, me.ID, owned.Assessments[0].UserID)

	anonymous := readHistory(`{"userId":"`+me.ID+`"}`, "")
	require.Len(t, anonymous.Assessments, 1)
	require.Equal(t, "test-user", anonymous.Assessments[0].UserID)
	require.Empty(t, readHistory(`{"userId":"`+me.ID+`"}`, other).Assessments)
}

func TestRouter_CalculateMissingSections(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})

	rec := performRequest(server, http.MethodPost, "/calculateHealthScore", `{"personalInfo":{"age":30}}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, healthfn.MsgMissingAssessment, decodeFlatError(t, rec.Body.Bytes()))
}

func TestRouter_SendHealthEmail(t *testing.T) {
	var sent []healthfn.EmailMessage
	sender := &stubSender{sendFn: func(_ context.Context, msg healthfn.EmailMessage) error {
		sent = append(sent, msg)
		return nil
	}}
	server := newRouterUnderTest(t, routerOptions{sender: sender})

	rec := performRequest(server, http.MethodPost, "/sendHealthEmail", `{"recipientEmail":"friend@example.com"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, healthfn.MsgMissingEmail, decodeFlatError(t, rec.Body.Bytes()))

	body := `{"recipientEmail":"friend@example.com","articleContent":{"id":"1","title":"T","content":"C","category":"Fitness"}}`
	rec = performRequest(server, http.MethodPost, "/sendHealthEmail", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Health article sent successfully!"}`, rec.Body.String())
	require.Len(t, sent, 1)
	require.Equal(t, "Anonymous", sent[0].FromName)

	sender.sendFn = func(context.Context, healthfn.EmailMessage) error { return errors.New("boom") }
	rec = performRequest(server, http.MethodPost, "/sendHealthEmail", body, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to send email: boom", decodeFlatError(t, rec.Body.Bytes()))
}

func TestRouter_AssessmentFlowFallsBackLocally(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})
	token := registerAndLogin(t, server, "user@example.com")

	rec := performRequest(server, http.MethodGet, "/api/v1/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me auth.UserView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "user@example.com", me.Email)
	require.Equal(t, "user", me.Role)

	rec = performRequest(server, http.MethodPost, "/api/v1/assessments", `{"type":"quarterly","intake":`+referenceIntake+`}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var stored assessment.StoredAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.NotEmpty(t, stored.ID)
	require.Equal(t, "quarterly", stored.Type)
	require.Equal(t, 100, stored.Score)
	require.Equal(t, scoring.StatusExcellent, stored.Status)

	rec = performRequest(server, http.MethodGet, "/api/v1/assessments", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Assessments []assessment.StoredAssessment `json:"assessments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Assessments, 1)

	rec = performRequest(server, http.MethodGet, "/api/v1/assessments/history", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var history assessment.History
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Equal(t, assessment.SourceLocal, history.Source)

	rec = performRequest(server, http.MethodDelete, "/api/v1/assessments/"+stored.ID, "", token)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = performRequest(server, http.MethodGet, "/api/v1/assessments/latest", "", token)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AssessmentValidation(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})
	token := registerAndLogin(t, server, "user@example.com")

	rec := performRequest(server, http.MethodPost, "/api/v1/assessments", `{"intake":{"personalInfo":{"age":35}}}`, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_input", body["error"]["code"])
	require.Contains(t, body["error"]["message"], "lifestyle")
}

func TestRouter_AnonymousAccess(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})

	rec := performRequest(server, http.MethodGet, "/api/v1/assessments", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(server, http.MethodGet, "/api/v1/assessments", "", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/access", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary accessSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, []string{"about", "home", "login", "signup"}, summary.Views)

	rec = performRequest(server, http.MethodGet, "/api/v1/ratings/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RoleChecks(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})
	token := registerAndLogin(t, server, "user@example.com")

	rec := performRequest(server, http.MethodGet, "/api/v1/admin/users", "", token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/access/user-management", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"view":"user-management","known":true,"admin":true,"allowed":false}`, rec.Body.String())

	rec = performRequest(server, http.MethodPost, "/api/v1/auth/login", `{"email":"user@example.com","password":"pass1234"}`, token)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminManagesUsers(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{adminSecret: "open-sesame"})
	userToken := registerAndLogin(t, server, "user@example.com")

	rec := performRequest(server, http.MethodPost, "/api/v1/auth/register", `{"email":"admin@example.com","password":"pass1234","role":"admin","adminSecret":"open-sesame"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	adminToken := login(t, server, "admin@example.com")

	rec = performRequest(server, http.MethodGet, "/api/v1/admin/users", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Users []auth.UserView `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Users, 2)

	var target string
	for _, u := range listed.Users {
		if u.Email == "user@example.com" {
			target = u.ID
		}
	}
	rec = performRequest(server, http.MethodPut, "/api/v1/admin/users/"+target+"/role", `{"role":"admin"}`, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/admin/users", "", userToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RatingsAndFitness(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})
	token := registerAndLogin(t, server, "user@example.com")

	rec := performRequest(server, http.MethodPost, "/api/v1/ratings", `{"rating":4,"feedback":"nice"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodPost, "/api/v1/ratings", `{"rating":6}`, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = performRequest(server, http.MethodGet, "/api/v1/ratings/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"hasRated":true`)

	rec = performRequest(server, http.MethodPost, "/api/v1/fitness/core/start", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodPost, "/api/v1/fitness/core/exercises/0", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodPost, "/api/v1/fitness/core/exercises/x", "", token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = performRequest(server, http.MethodGet, "/api/v1/fitness/core/percent?total=4", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"percent":25}`, rec.Body.String())
	rec = performRequest(server, http.MethodGet, "/api/v1/fitness/stats", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats fitness.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.TotalWorkouts)
}

func TestRouter_Articles(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})
	token := registerAndLogin(t, server, "user@example.com")

	rec := performRequest(server, http.MethodGet, "/api/v1/articles/1/html", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	rec = performRequest(server, http.MethodGet, "/api/v1/articles/99/html", "", token)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = performRequest(server, http.MethodPost, "/api/v1/articles/share", `{"recipientEmail":"friend@example.com"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var result article.ShareResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Success)
	require.Equal(t, article.MsgShareFailed, result.Message)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{})

	rec := performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "menshealth_http_requests_total")
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, routerOptions{rateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}})

	rec := performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
}

type routerOptions struct {
	sender      healthfn.EmailSender
	adminSecret string
	rateLimit   *config.RateLimitConfig
}

func newRouterUnderTest(t *testing.T, opts routerOptions) *http.Server {
	t.Helper()
	logger := newTestLogger()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	if opts.rateLimit != nil {
		cfg.HTTP.RateLimit = *opts.rateLimit
	}
	if opts.sender == nil {
		opts.sender = &stubSender{}
	}

	store := localstore.NewStore(kvstore.NewMemoryStore(), logger)
	engine := scoring.NewEngine(scoring.ServerProfile())
	registry := metrics.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	authSvc := auth.NewService(auth.Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: time.Hour,
		AdminSecret:     opts.adminSecret,
	}, userrepo.NewKVRepository(store), store, nil, logger)
	handler := NewHandler(
		cfg,
		authSvc,
		healthfn.NewService(healthfn.Config{DefaultUserID: "test-user"}, engine, assessmentrepo.NewMemoryRepository(), opts.sender, logger),
		assessment.NewService(assessment.Config{MaxStored: 50}, engine, remote.Unavailable{}, store, recorder, logger),
		rating.NewService(store, logger),
		fitness.NewService(store, logger),
		article.NewService(remote.Unavailable{}, nil, logger),
		logger,
	)
	return NewRouter(cfg, handler, registry, recorder)
}

func registerAndLogin(t *testing.T, server *http.Server, email string) string {
	t.Helper()
	rec := performRequest(server, http.MethodPost, "/api/v1/auth/register", `{"email":"`+email+`","password":"pass1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return login(t, server, email)
}

func login(t *testing.T, server *http.Server, email string) string {
	t.Helper()
	rec := performRequest(server, http.MethodPost, "/api/v1/auth/login", `{"email":"`+email+`","password":"pass1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func performRequest(server *http.Server, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSender struct {
	sendFn func(ctx context.Context, msg healthfn.EmailMessage) error
}

func (s *stubSender) Send(ctx context.Context, msg healthfn.EmailMessage) error {
	if s.sendFn != nil {
		return s.sendFn(ctx, msg)
	}
	return nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func decodeFlatError(t *testing.T, raw []byte) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body["error"]
}
