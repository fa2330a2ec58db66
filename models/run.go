package models

import (
	"time"

	"github.com/google/uuid"
)

// AcquisitionRun is the audit record for one acquisition or refresh attempt.
type AcquisitionRun struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ListingID  int64      `json:"listing_id" db:"listing_id"`
	URL        string     `json:"url" db:"url"`
	Status     string     `json:"status" db:"status"`
	Error      string     `json:"error" db:"error"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
