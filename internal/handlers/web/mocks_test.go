package web

import (
	"context"

	"reconview/internal/catalog"
	"reconview/internal/models"
	"reconview/pkg/lifecycle"
	"reconview/pkg/results"

	"github.com/stretchr/testify/mock"
)

type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) Submit(ctx context.Context, sessionID, target string, tools []string) (lifecycle.Snapshot, error) {
	args := m.Called(ctx, sessionID, target, tools)
	return args.Get(0).(lifecycle.Snapshot), args.Error(1)
}

func (m *MockScanService) Current(sessionID string) lifecycle.Snapshot {
	return m.Called(sessionID).Get(0).(lifecycle.Snapshot)
}

func (m *MockScanService) Reset(sessionID string) lifecycle.Snapshot {
	return m.Called(sessionID).Get(0).(lifecycle.Snapshot)
}

func (m *MockScanService) ResultsID(sessionID string) (string, error) {
	args := m.Called(sessionID)
	return args.String(0), args.Error(1)
}

type MockToolService struct {
	mock.Mock
}

func (m *MockToolService) ListTools() []catalog.Tool {
	return m.Called().Get(0).([]catalog.Tool)
}

func (m *MockToolService) DefaultTools() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockToolService) ValidateSelection(names []string) error {
	return m.Called(names).Error(0)
}

type MockResultService struct {
	mock.Mock
}

func (m *MockResultService) Load(ctx context.Context, scanID string) (*results.ResultSet, error) {
	args := m.Called(ctx, scanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*results.ResultSet), args.Error(1)
}

func (m *MockResultService) Forget(scanID string) {
	m.Called(scanID)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockHistoryService) Recent(limit int) ([]models.JobRecord, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JobRecord), args.Error(1)
}

func (m *MockHistoryService) Hook(sessionID string) lifecycle.TransitionHook {
	return m.Called(sessionID).Get(0).(lifecycle.TransitionHook)
}
