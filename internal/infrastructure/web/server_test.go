package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/sqlchat/internal/application/auth"
	"github.com/doeshing/sqlchat/internal/application/chat"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/infrastructure/observability"
	"github.com/doeshing/sqlchat/internal/pkg/logger"
	"github.com/doeshing/sqlchat/internal/ports"
)

type stubConfig struct{}

func (stubConfig) Load(context.Context) (domain.Config, error) { return domain.Config{}, nil }

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, _, password string) (string, error) {
	if password != "right" {
		return "", &domain.AuthError{Reason: "Incorrect username or password."}
	}
	return "token", nil
}

type stubAgent struct{}

func (stubAgent) Invoke(_ context.Context, _ string, observer ports.TurnObserver) (domain.AgentResult, error) {
	observer.OnToken("Apples ")
	observer.OnToken("sell best.")
	observer.OnAction(domain.QueryToolName, "SELECT product FROM sales")
	return domain.AgentResult{
		Output: "Apples sell best.",
		Steps: []domain.AgentStep{{
			Action:      domain.AgentAction{Tool: domain.QueryToolName, ToolInput: "SELECT product FROM sales"},
			Observation: "product\napple",
		}},
	}, nil
}

type memorySink struct {
	records []domain.QueryRecord
}

func (m *memorySink) Save(_ context.Context, rec domain.QueryRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *SessionStore, *memorySink) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	metrics := observability.NewMetrics()
	sink := &memorySink{}
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sessions := NewSessionStore("sqlchat_session", false, 4)
	server := &Server{
		Chat: &chat.Service{
			ConfigProvider: stubConfig{},
			Agent:          stubAgent{},
			Sink:           sink,
			Metrics:        metrics,
			Logger:         log,
			Now: func() time.Time {
				clock = clock.Add(2 * time.Second)
				return clock
			},
			NewID: func() string { return "q-1" },
		},
		Auth:     &auth.Service{Authenticator: stubAuthenticator{}, Metrics: metrics, Logger: log},
		Sessions: sessions,
		Metrics:  metrics.Handler(),
		Logger:   log,
		Version:  "test",
	}
	router, err := server.Router()
	require.NoError(t, err)
	return router, sessions, sink
}

func do(router http.Handler, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler) []*http.Cookie {
	t.Helper()
	rec := do(router, http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"right"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestChatPageRequiresLogin(t *testing.T) {
	router, sessions, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.NoticeLoginRequired)
	assert.NotContains(t, rec.Body.String(), `id="ask-form"`)
	assert.Equal(t, 0, sessions.Len())
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginFailureShowsReason(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"wrong"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication failed: Incorrect username or password.")
}

func TestAskRendersAnswer(t *testing.T) {
	router, _, sink := newTestRouter(t)
	cookies := login(t, router)

	page := do(router, http.MethodGet, "/", nil, cookies)
	assert.Contains(t, page.Body.String(), `id="ask-form"`)
	assert.Contains(t, page.Body.String(), "ana")

	rec := do(router, http.MethodPost, "/ask", url.Values{"question": {"What sells best?"}}, cookies)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Apples sell best.")
	assert.Contains(t, body, "SELECT product FROM sales")
	assert.Contains(t, body, "Time: 00:00:02")
	require.Len(t, sink.records, 1)
	assert.Equal(t, "ana", sink.records[0].UserName)
	assert.Equal(t, "What sells best?", sink.records[0].OriginalQuestion)
}

func TestAskEmptyQuestion(t *testing.T) {
	router, _, sink := newTestRouter(t)
	cookies := login(t, router)

	rec := do(router, http.MethodPost, "/ask", url.Values{"question": {"   "}}, cookies)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.NoticeEmptyQuestion)
	assert.Empty(t, sink.records)
}

func TestAPIAskStreamsEvents(t *testing.T) {
	router, _, _ := newTestRouter(t)
	cookies := login(t, router)

	rec := do(router, http.MethodPost, "/api/ask", url.Values{"question": {"What sells best?"}}, cookies)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"), rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	for _, event := range []string{EventSQL, EventStream, EventResult} {
		assert.Contains(t, body, "event:"+event)
	}
	assert.Less(t, strings.Index(body, "event:"+EventStream), strings.Index(body, "event:"+EventResult))

	last := body[strings.LastIndex(body, "data:")+len("data:"):]
	var result resultPayload
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(last)), &result))
	assert.Equal(t, "q-1", result.QueryID)
	assert.Equal(t, "SELECT product FROM sales", result.SQL)
	assert.Equal(t, string(domain.SQLFromTrace), result.SQLSource)
	assert.Equal(t, "Time: 00:00:02", result.Elapsed)
}

func TestAPIAskRejectsAnonymous(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/api/ask", url.Values{"question": {"hi"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.NoticeLoginRequired)
}

func TestAPIAskRejectsOversizedQuestion(t *testing.T) {
	router, _, _ := newTestRouter(t)
	cookies := login(t, router)

	rec := do(router, http.MethodPost, "/api/ask", url.Values{"question": {strings.Repeat("x", maxQuestionLength+1)}}, cookies)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	router, sessions, _ := newTestRouter(t)
	cookies := login(t, router)

	rec := do(router, http.MethodPost, "/logout", nil, cookies)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	page := do(router, http.MethodGet, "/", nil, cookies)
	assert.Contains(t, page.Body.String(), domain.NoticeLoginRequired)
	assert.Equal(t, 0, sessions.Len())
}

func TestLoginRotatesSessionID(t *testing.T) {
	router, sessions, _ := newTestRouter(t)
	first := login(t, router)

	rec := do(router, http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"right"}}, first)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	second := rec.Result().Cookies()
	require.NotEmpty(t, second)
	assert.NotEqual(t, first[0].Value, second[0].Value)
	assert.Equal(t, 1, sessions.Len())

	stale := do(router, http.MethodGet, "/", nil, first)
	assert.Contains(t, stale.Body.String(), domain.NoticeLoginRequired)
	fresh := do(router, http.MethodGet, "/", nil, second)
	assert.Contains(t, fresh.Body.String(), `id="ask-form"`)
}

func TestFailedLoginStoresNothing(t *testing.T) {
	router, sessions, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"wrong"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, sessions.Len())
}

func TestHealthAndMetrics(t *testing.T) {
	router, _, _ := newTestRouter(t)

	health := do(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"status":"ok"`)

	login(t, router)
	metrics := do(router, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `sqlchat_auth_logins_total{status="ok"} 1`)
}
