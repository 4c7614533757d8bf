package models

import "time"

type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the pipeline over a selection of exercises.
type Run struct {
	ID          int64
	CreatedAt   time.Time
	CompletedAt *time.Time
	Selector    string
	InputDir    string
	OutputDir   string
	DBType      string
	SkipDB      bool
	Status      RunStatus
}
