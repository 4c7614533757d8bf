package extract

import "fmt"

// ParseError means a document could not be turned into tasks. It is terminal
// for the exercise; retrying the same file gives the same answer.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
