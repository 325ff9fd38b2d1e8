package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reconview/internal/middleware"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/lifecycle"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func runningSnapshot() lifecycle.Snapshot {
	return lifecycle.Snapshot{
		State: lifecycle.StateRunning,
		Job: &lifecycle.Job{
			ID:     "abc123",
			Target: "example.com",
			Tools:  []string{"subfinder", "nmap"},
			Status: "running",
		},
	}
}

func idleSnapshot() lifecycle.Snapshot {
	return lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true}
}

func TestStartScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		contentType    string
		requestBody    string
		setupMock      func(*MockScanService)
		expectedStatus int
		expectedBody   func(*testing.T) string
	}{
		{
			name:        "JSON body",
			contentType: "application/json",
			requestBody: `{"target":"example.com","tools":["subfinder","nmap"]}`,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.AnythingOfType("string"), "example.com", []string{"subfinder", "nmap"}).
					Return(runningSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: func(t *testing.T) string {
				return mustJSON(t, ScanResponse{Scan: runningSnapshot()})
			},
		},
		{
			name:        "form post",
			contentType: "application/x-www-form-urlencoded",
			requestBody: "target=example.com&tools=subfinder&tools=nmap",
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.AnythingOfType("string"), "example.com", []string{"subfinder", "nmap"}).
					Return(runningSnapshot(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: func(t *testing.T) string {
				return mustJSON(t, ScanResponse{Scan: runningSnapshot()})
			},
		},
		{
			name:           "malformed JSON",
			contentType:    "application/json",
			requestBody:    `{"target":}`,
			setupMock:      func(m *MockScanService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody: func(*testing.T) string {
				return `{"error":"Invalid request payload"}`
			},
		},
		{
			name:        "validation error",
			contentType: "application/json",
			requestBody: `{"target":"","tools":["subfinder"]}`,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "", []string{"subfinder"}).
					Return(idleSnapshot(), rverrors.NewValidationError("target", "Target domain/IP is required"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody: func(t *testing.T) string {
				return mustJSON(t, ScanErrorResponse{Error: "Target domain/IP is required", Scan: idleSnapshot()})
			},
		},
		{
			name:        "busy",
			contentType: "application/json",
			requestBody: `{"target":"example.com","tools":["subfinder"]}`,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"subfinder"}).
					Return(runningSnapshot(), rverrors.ErrBusy)
			},
			expectedStatus: http.StatusConflict,
			expectedBody: func(t *testing.T) string {
				return mustJSON(t, ScanErrorResponse{Error: "A scan is already in progress", Scan: runningSnapshot()})
			},
		},
		{
			name:        "backend rejection",
			contentType: "application/json",
			requestBody: `{"target":"example.com","tools":["subfinder"]}`,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"subfinder"}).
					Return(idleSnapshot(), rverrors.NewBackendError("start_scan", "Invalid target", 400))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody: func(t *testing.T) string {
				return mustJSON(t, ScanErrorResponse{Error: "Invalid target", Scan: idleSnapshot()})
			},
		},
		{
			name:        "network failure",
			contentType: "application/json",
			requestBody: `{"target":"example.com","tools":["subfinder"]}`,
			setupMock: func(m *MockScanService) {
				m.On("Submit", mock.Anything, mock.Anything, "example.com", []string{"subfinder"}).
					Return(idleSnapshot(), rverrors.NewTransportError("start_scan", errors.New("connection refused")))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody: func(t *testing.T) string {
				return mustJSON(t, ScanErrorResponse{Error: "Network error occurred", Scan: idleSnapshot()})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockScanService)
			tt.setupMock(mockService)

			handler := NewScanHandler(mockService)
			router := gin.New()
			router.Use(middleware.Session())
			router.POST("/api/scans", handler.StartScan)

			req, err := http.NewRequest("POST", "/api/scans", strings.NewReader(tt.requestBody))
			require.NoError(t, err)
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response: %s", w.Body.String())
			assert.JSONEq(t, tt.expectedBody(t), w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestScanSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockScanService)
	mockService.On("Current", "7f1c1a3e-4a52-4b7e-9d0e-2f4b8a1c9e11").Return(runningSnapshot())

	handler := NewScanHandler(mockService)
	router := gin.New()
	router.Use(middleware.Session())
	router.GET("/api/scans/current", handler.CurrentScan)

	req := httptest.NewRequest("GET", "/api/scans/current", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "7f1c1a3e-4a52-4b7e-9d0e-2f4b8a1c9e11"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mustJSON(t, ScanResponse{Scan: runningSnapshot()}), w.Body.String())
	assert.Empty(t, w.Result().Cookies(), "an existing session keeps its cookie")
	mockService.AssertExpectations(t)
}

func TestResetScan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockScanService)
	mockService.On("Reset", mock.AnythingOfType("string")).Return(idleSnapshot())

	handler := NewScanHandler(mockService)
	router := gin.New()
	router.Use(middleware.Session())
	router.POST("/api/scans/reset", handler.ResetScan)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/scans/reset", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mustJSON(t, ScanResponse{Scan: idleSnapshot()}), w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1, "a new session gets a cookie")
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	mockService.AssertExpectations(t)
}

func TestSubmitError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{"validation", rverrors.NewValidationError("tools", "At least one tool must be selected"), 400, "At least one tool must be selected"},
		{"busy", rverrors.ErrBusy, 409, "A scan is already in progress"},
		{"reset during submit", rverrors.ErrNoJob, 409, "A scan is already in progress"},
		{"backend without message", rverrors.NewBackendError("start_scan", "", 500), 502, "Failed to start scan"},
		{"transport", rverrors.NewTransportError("start_scan", errors.New("timeout")), 502, "Network error occurred"},
		{"unexpected", errors.New("boom"), 500, "Failed to start scan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := SubmitError(tt.err)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedMsg, msg)
		})
	}
}
