package services

import (
	"context"

	rverrors "reconview/pkg/errors"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"

	"github.com/sirupsen/logrus"
)

type ScanServiceMethods interface {
	Submit(ctx context.Context, sessionID, target string, tools []string) (lifecycle.Snapshot, error)
	Current(sessionID string) lifecycle.Snapshot
	Reset(sessionID string) lifecycle.Snapshot
	ResultsID(sessionID string) (string, error)
}

type scanService struct {
	sessions SessionServiceMethods
	tools    ToolServiceMethods
	logger   *logger.Logger
	observe  func(error)
}

func NewScanService(sessions SessionServiceMethods, tools ToolServiceMethods, observe func(error)) ScanServiceMethods {
	if observe == nil {
		observe = func(error) {}
	}
	return &scanService{
		sessions: sessions,
		tools:    tools,
		logger:   logger.NewLogger(logrus.InfoLevel),
		observe:  observe,
	}
}

// Submit starts a scan for the session. The returned snapshot reflects the
// controller after the attempt, including any alert it raised.
func (s *scanService) Submit(ctx context.Context, sessionID, target string, tools []string) (lifecycle.Snapshot, error) {
	controller := s.sessions.Controller(sessionID)

	if err := s.tools.ValidateSelection(tools); err != nil {
		s.observe(err)
		return controller.Snapshot(), err
	}

	id, err := controller.Submit(ctx, target, tools)
	s.observe(err)
	if err != nil {
		s.logger.WithFields(logger.Fields{"session": sessionID, "target": target, "error": err}).Warn("Scan submission rejected")
		return controller.Snapshot(), err
	}

	s.logger.WithFields(logger.Fields{"session": sessionID, "scan_id": id, "tools": tools}).Info("Scan submitted")
	return controller.Snapshot(), nil
}

// Current never creates a session; unknown sessions read as idle.
func (s *scanService) Current(sessionID string) lifecycle.Snapshot {
	if controller, ok := s.sessions.Lookup(sessionID); ok {
		return controller.Snapshot()
	}
	return lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true}
}

func (s *scanService) Reset(sessionID string) lifecycle.Snapshot {
	controller, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return lifecycle.Snapshot{State: lifecycle.StateIdle, CanSubmit: true}
	}
	controller.Reset()
	return controller.Snapshot()
}

func (s *scanService) ResultsID(sessionID string) (string, error) {
	controller, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return "", rverrors.ErrNoJob
	}
	return controller.ResultsID()
}
