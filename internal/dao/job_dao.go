package dao

import (
	"errors"
	"fmt"

	"reconview/internal/models"

	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

type JobDAO interface {
	SaveJob(job *models.JobRecord) error
	GetJob(scanID string) (*models.JobRecord, error)
	ListJobs(limit int) ([]models.JobRecord, error)
	ListJobsWithPagination(page, limit int) ([]models.JobRecord, int64, error)
	UpdateStatus(scanID, status string, progress int, finishedAt int64) error
	DeleteJob(scanID string) error
}

type jobDAO struct {
	db *gorm.DB
}

func NewJobDAO(db *gorm.DB) JobDAO {
	return &jobDAO{db: db}
}

func (dao *jobDAO) SaveJob(job *models.JobRecord) error {
	return dao.db.Create(job).Error
}

func (dao *jobDAO) GetJob(scanID string) (*models.JobRecord, error) {
	var job models.JobRecord
	if err := dao.db.Where("scan_id = ?", scanID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns the newest jobs first
func (dao *jobDAO) ListJobs(limit int) ([]models.JobRecord, error) {
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	var jobs []models.JobRecord
	if err := dao.db.Order("created_at desc").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (dao *jobDAO) ListJobsWithPagination(page, limit int) ([]models.JobRecord, int64, error) {
	var jobs []models.JobRecord
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	if err := dao.db.Model(&models.JobRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := dao.db.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (dao *jobDAO) UpdateStatus(scanID, status string, progress int, finishedAt int64) error {
	result := dao.db.Model(&models.JobRecord{}).
		Where("scan_id = ?", scanID).
		Updates(map[string]interface{}{
			"status":      status,
			"progress":    progress,
			"finished_at": finishedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update job %s: %w", scanID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (dao *jobDAO) DeleteJob(scanID string) error {
	result := dao.db.Where("scan_id = ?", scanID).Delete(&models.JobRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err means the job does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
