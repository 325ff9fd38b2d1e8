package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reconview/internal/catalog"
	"reconview/internal/metrics"
	"reconview/internal/middleware"
	"reconview/internal/services"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"
	"reconview/pkg/results"
	"reconview/pkg/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "7f1c1a3e-4a52-4b7e-9d0e-2f4b8a1c9e11"

type harness struct {
	router   *gin.Engine
	client   *testutil.ScriptedBackend
	sessions services.SessionServiceMethods
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)

	client := testutil.NewScriptedBackend()
	m := metrics.New()
	log := logger.NewDiscardLogger()

	sessions := services.NewSessionService(func(string) *lifecycle.Controller {
		return lifecycle.NewController(client,
			lifecycle.WithInterval(time.Hour),
			lifecycle.WithLogger(log),
			lifecycle.WithHook(m.TransitionHook()),
			lifecycle.WithPollObserver(m.ObservePoll),
		)
	}, services.WithSessionCountObserver(m.SetActiveSessions))
	t.Cleanup(sessions.Close)

	tools := services.NewToolService(catalog.New(catalog.Builtin()))
	router := InitRouter(Dependencies{
		Scans:       services.NewScanService(sessions, tools, m.ObserveSubmission),
		Results:     services.NewResultService(client, services.WithLoadObserver(m.ObserveResultLoad)),
		Tools:       tools,
		History:     services.NewHistoryService(nil),
		Metrics:     m,
		Logger:      log,
		PollSeconds: 2,
	})
	return &harness{router: router, client: client, sessions: sessions}
}

func (h *harness) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sessionID})
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestScanLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	h.client.SetStart("abc123", nil)
	h.client.SetResults("abc123", []results.Record{
		{Tool: "subfinder", ResultType: results.TypeSubdomains, Data: json.RawMessage(`["api.example.com"]`)},
	})

	w := h.do("POST", "/api/scans", "application/json", `{"target":"example.com","tools":["subfinder"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	var started struct {
		Scan lifecycle.Snapshot `json:"scan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.Equal(t, lifecycle.StateRunning, started.Scan.State)
	require.NotNil(t, started.Scan.Job)
	assert.Equal(t, "abc123", started.Scan.Job.ID)

	w = h.do("GET", "/scans/results", "", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"), "running scans have no results page yet")

	w = h.do("POST", "/api/scans", "application/json", `{"target":"other.com","tools":["nmap"]}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	controller, ok := h.sessions.Lookup(sessionID)
	require.True(t, ok)
	h.client.QueueStatus("completed", 100)
	controller.Tick(context.Background())

	w = h.do("GET", "/api/scans/current", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"completed"`)

	w = h.do("GET", "/scans/results", "", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/results/abc123", w.Header().Get("Location"))

	w = h.do("GET", "/results/abc123", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api.example.com")

	w = h.do("GET", "/api/results/abc123/export?format=csv", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "subdomains,api.example.com,subfinder")

	w = h.do("POST", "/api/scans/reset", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)

	w = h.do("GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `reconview_scan_submissions_total{outcome="ok"} 1`)
	assert.Contains(t, w.Body.String(), `reconview_scans_finished_total{status="completed"} 1`)
}

func TestUnknownToolsAreRejected(t *testing.T) {
	h := newHarness(t)

	w := h.do("POST", "/api/scans", "application/json", `{"target":"example.com","tools":["subfinder","bogus"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown tools: bogus")
	assert.Equal(t, 0, h.client.StartCalls())
}

func TestPagesRender(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "Start a scan"},
		{"/history", http.StatusOK, "Scan history is disabled."},
		{"/api/tools", http.StatusOK, `"name":"subfinder"`},
		{"/results/abc123/bogus", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := h.do("GET", tt.path, "", "")
			assert.Equal(t, tt.status, w.Code)
			if tt.contains != "" {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
		})
	}
}
