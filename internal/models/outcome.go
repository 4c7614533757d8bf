package models

import "time"

type OutcomeStatus string

const (
	OutcomeStatusPending  OutcomeStatus = "pending"
	OutcomeStatusRunning  OutcomeStatus = "running"
	OutcomeStatusComplete OutcomeStatus = "complete"
	OutcomeStatusFailed   OutcomeStatus = "failed"
)

// Stage names the pipeline step an exercise was in when it stopped.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageGenerate Stage = "generate"
	StageExecute  Stage = "execute"
	StageRender   Stage = "render"
	StageDone     Stage = "done"
)

// ExerciseOutcome records how one exercise fared within a run.
type ExerciseOutcome struct {
	ID          int64
	RunID       int64
	ExerciseID  string
	SourcePath  string
	Status      OutcomeStatus
	Stage       Stage
	Error       string
	DocxPath    string
	PDFPath     string
	Statements  int
	SequenceNum int
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func (o *ExerciseOutcome) Failed() bool {
	return o.Status == OutcomeStatusFailed
}
