package models

// JobRecord is one submitted scan as remembered by the dashboard.
type JobRecord struct {
	ScanID    string `gorm:"primaryKey;type:varchar(64)" json:"scan_id"`
	Target    string `gorm:"index" json:"target"`
	Tools     string `json:"tools"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	SessionID string `gorm:"type:varchar(36);index" json:"-"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`
	// FinishedAt is zero until the job reaches a terminal state.
	FinishedAt int64 `json:"finished_at,omitempty"`
}
