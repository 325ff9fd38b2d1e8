package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reconview/internal/catalog"
	"reconview/internal/middleware"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/lifecycle"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testTools() *MockToolService {
	m := new(MockToolService)
	m.On("ListTools").Return([]catalog.Tool{
		{Name: "subfinder", Label: "Subfinder", Category: "subdomains", Default: true},
		{Name: "nmap", Label: "Nmap", Category: "ports", Default: true},
		{Name: "gau", Label: "GAU", Category: "urls"},
	}).Maybe()
	return m
}

func runningSnapshot() lifecycle.Snapshot {
	return lifecycle.Snapshot{
		State: lifecycle.StateRunning,
		Job:   &lifecycle.Job{ID: "abc123", Target: "example.com", Tools: []string{"subfinder"}, Status: "running", Progress: 40},
	}
}

func completedSnapshot() lifecycle.Snapshot {
	return lifecycle.Snapshot{
		State:         lifecycle.StateCompleted,
		Job:           &lifecycle.Job{ID: "abc123", Target: "example.com", Tools: []string{"subfinder"}, Status: "completed", Progress: 100},
		CanSubmit:     true,
		ShowFollowUps: true,
	}
}

func newScanRouter(scans *MockScanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tools := testTools()
	index := NewIndexHandler(scans, tools, 2)
	handler := NewScanWebHandler(scans, tools, 2)

	router := gin.New()
	router.Use(middleware.Session())
	router.GET("/", index.HomePage)
	router.POST("/scans", handler.StartScan)
	router.GET("/scans/progress", handler.Progress)
	router.POST("/scans/reset", handler.ResetScan)
	router.GET("/scans/results", handler.ViewResults)
	return router
}

func postForm(target string, body string, htmx bool) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestHomePage(t *testing.T) {
	scans := new(MockScanService)
	scans.On("Current", mock.AnythingOfType("string")).Return(lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true})

	w := httptest.NewRecorder()
	newScanRouter(scans).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `id="tool-subfinder" value="subfinder" checked`)
	assert.NotContains(t, body, `id="tool-gau" value="gau" checked`)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	scans.AssertExpectations(t)
}

func TestStartScanPage(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		htmx             bool
		setupMock        func(*MockScanService)
		expectedStatus   int
		expectedLocation string
		contains         []string
		notContains      []string
	}{
		{
			name: "htmx success renders the running panel",
			body: "target=example.com&tools=subfinder",
			htmx: true,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"subfinder"}).Return(runningSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			contains:       []string{`id="scan-panel"`, `hx-get="/scans/progress"`, `hx-trigger="every 2s"`, "40%"},
			notContains:    []string{"<!DOCTYPE html>"},
		},
		{
			name: "plain form success redirects home",
			body: "target=example.com&tools=subfinder",
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"subfinder"}).Return(runningSnapshot(), nil)
			},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/",
		},
		{
			name: "controller alert is shown and input kept",
			body: "target=&tools=gau",
			htmx: true,
			setupMock: func(m *MockScanService) {
				snap := lifecycle.Snapshot{
					State:     lifecycle.StateIdle,
					CanSubmit: true,
					Alert:     &lifecycle.Alert{Level: "danger", Message: "Target domain/IP is required"},
				}
				m.On("Submit", mock.Anything, mock.Anything, "", []string{"gau"}).
					Return(snap, rverrors.NewValidationError("target", "Target domain/IP is required"))
			},
			expectedStatus: http.StatusOK,
			contains:       []string{"Target domain/IP is required", `id="tool-gau" value="gau" checked`},
			notContains:    []string{`id="tool-subfinder" value="subfinder" checked`},
		},
		{
			name: "service error without alert gets one",
			body: "target=example.com&tools=bogus",
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"bogus"}).
					Return(lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true}, rverrors.NewValidationError("tools", "Unknown tools: bogus"))
			},
			expectedStatus: http.StatusOK,
			contains:       []string{"<!DOCTYPE html>", "Unknown tools: bogus", `value="example.com"`},
		},
		{
			name: "network failure",
			body: "target=example.com&tools=subfinder",
			htmx: true,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"subfinder"}).
					Return(lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true}, rverrors.NewTransportError("start_scan", errors.New("refused")))
			},
			expectedStatus: http.StatusOK,
			contains:       []string{"Network error occurred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scans := new(MockScanService)
			tt.setupMock(scans)

			w := httptest.NewRecorder()
			newScanRouter(scans).ServeHTTP(w, postForm("/scans", tt.body, tt.htmx))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedLocation != "" {
				assert.Equal(t, tt.expectedLocation, w.Header().Get("Location"))
			}
			for _, s := range tt.contains {
				assert.Contains(t, w.Body.String(), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, w.Body.String(), s)
			}
			scans.AssertExpectations(t)
		})
	}
}

func TestProgressPartial(t *testing.T) {
	scans := new(MockScanService)
	scans.On("Current", mock.AnythingOfType("string")).Return(completedSnapshot())

	req := httptest.NewRequest("GET", "/scans/progress", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	newScanRouter(scans).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "View Results")
	assert.Contains(t, body, `hx-post="/scans/reset"`)
	assert.NotContains(t, body, `hx-get="/scans/progress"`, "finished scans stop polling")
}

func TestResetScanPage(t *testing.T) {
	scans := new(MockScanService)
	scans.On("Reset", mock.AnythingOfType("string")).Return(lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true})

	w := httptest.NewRecorder()
	newScanRouter(scans).ServeHTTP(w, postForm("/scans/reset", "", true))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<div id="progress-panel"></div>`)
	scans.AssertExpectations(t)
}

func TestViewResults(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		err      error
		location string
	}{
		{"finished scan", "abc123", nil, "/results/abc123"},
		{"still running", "", rverrors.ErrNotTerminal, "/"},
		{"no scan", "", rverrors.ErrNoJob, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scans := new(MockScanService)
			scans.On("ResultsID", mock.AnythingOfType("string")).Return(tt.id, tt.err)

			w := httptest.NewRecorder()
			newScanRouter(scans).ServeHTTP(w, httptest.NewRequest("GET", "/scans/results", nil))

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}
