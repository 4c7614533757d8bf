package models

import "time"

// GeneratedStatement is the SQL produced for exactly one Task.
type GeneratedStatement struct {
	TaskID   string `json:"task_id"`
	SQL      string `json:"sql"`
	Model    string `json:"model,omitempty"`
	Attempts int    `json:"attempts"`
}

// ExecutionResult is what running one GeneratedStatement produced. Err holds
// the captured database error text; it is empty when every step succeeded.
type ExecutionResult struct {
	TaskID      string     `json:"task_id"`
	Columns     []string   `json:"columns,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
	Output      string     `json:"output"`
	Err         string     `json:"error,omitempty"`
	Placeholder bool       `json:"placeholder,omitempty"`
	ExecutedAt  time.Time  `json:"executed_at"`
}

func (r ExecutionResult) Failed() bool {
	return r.Err != ""
}
