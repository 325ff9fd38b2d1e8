package services

import (
	"context"
	"strings"
	"time"

	"reconview/internal/dao"
	"reconview/internal/models"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"

	"github.com/sirupsen/logrus"
)

const HistoryLimit = 50

type HistoryServiceMethods interface {
	Enabled() bool
	Recent(limit int) ([]models.JobRecord, error)
	Hook(sessionID string) lifecycle.TransitionHook
}

type historyService struct {
	jobDao dao.JobDAO
	logger *logger.Logger
	now    func() time.Time
}

// NewHistoryService records jobs through jobDao. A nil jobDao disables
// history without affecting anything else.
func NewHistoryService(jobDao dao.JobDAO) HistoryServiceMethods {
	return &historyService{
		jobDao: jobDao,
		logger: logger.NewLogger(logrus.InfoLevel),
		now:    time.Now,
	}
}

func (s *historyService) Enabled() bool {
	return s.jobDao != nil
}

func (s *historyService) Recent(limit int) ([]models.JobRecord, error) {
	if s.jobDao == nil {
		return nil, nil
	}
	if limit < 1 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	return s.jobDao.ListJobs(limit)
}

// Hook saves a job when it starts running and updates it when it finishes.
// Persistence failures are logged; they never affect the scan itself.
func (s *historyService) Hook(sessionID string) lifecycle.TransitionHook {
	return func(_ context.Context, from lifecycle.State, snap lifecycle.Snapshot) {
		if s.jobDao == nil || snap.Job == nil {
			return
		}
		job := snap.Job

		switch {
		case from == lifecycle.StateSubmitting && snap.State == lifecycle.StateRunning:
			record := &models.JobRecord{
				ScanID:    job.ID,
				Target:    job.Target,
				Tools:     strings.Join(job.Tools, ","),
				Status:    job.Status,
				Progress:  job.Progress,
				SessionID: sessionID,
			}
			if err := s.jobDao.SaveJob(record); err != nil {
				s.logger.WithError(err).WithField("scan_id", job.ID).Error("SaveJob failed")
			}

		case from == lifecycle.StateRunning && snap.State.Terminal():
			if err := s.jobDao.UpdateStatus(job.ID, job.Status, job.Progress, s.now().Unix()); err != nil {
				s.logger.WithError(err).WithField("scan_id", job.ID).Error("UpdateStatus failed")
			}
		}
	}
}
