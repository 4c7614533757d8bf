package generate

import "fmt"

// GenerationError means no usable SQL could be produced for a task.
type GenerationError struct {
	TaskID string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed for task %s: %s: %v", e.TaskID, e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed for task %s: %s", e.TaskID, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
