package execute

import (
	"context"
	"time"

	"github.com/mpataki/tada/internal/models"
)

const PlaceholderText = "(DB execution skipped)"

// SkipExecutor stands in for the database under --skip-db. It never
// connects.
type SkipExecutor struct{}

func (SkipExecutor) Prepare(ctx context.Context, prefix string) error {
	return nil
}

func (SkipExecutor) Execute(ctx context.Context, stmt models.GeneratedStatement) (*models.ExecutionResult, error) {
	return &models.ExecutionResult{
		TaskID:      stmt.TaskID,
		Output:      PlaceholderText,
		Placeholder: true,
		ExecutedAt:  time.Now(),
	}, nil
}
