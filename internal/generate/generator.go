package generate

import (
	"context"
	"errors"
	"time"

	"github.com/mpataki/tada/internal/models"
	"github.com/mpataki/tada/internal/retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rewriter may replace generated SQL before it is used.
type Rewriter interface {
	Rewrite(sql string, task models.Task) (string, error)
}

type Generator struct {
	candidates []Model
	policy     retry.Policy
	limiter    *rate.Limiter
	rewriter   Rewriter
	logger     *zap.Logger
}

type Option func(*Generator)

// WithInterval spaces consecutive model calls at least d apart.
func WithInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		g.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

func WithRewriter(r Rewriter) Option {
	return func(g *Generator) {
		g.rewriter = r
	}
}

func New(candidates []Model, policy retry.Policy, logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		candidates: candidates,
		policy:     policy,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces the statement for one task. Setup statements extend the
// schema context used by later query tasks.
func (g *Generator) Generate(ctx context.Context, task models.Task, c *Context) (*models.GeneratedStatement, error) {
	prompt := QueryPrompt(task, c)
	if task.Kind == models.TaskKindSetup {
		prompt = SetupPrompt(task, c)
	}

	response, model, attempts, err := g.ask(ctx, task, prompt)
	if err != nil {
		return nil, err
	}

	sql := DecodeSQL(response)
	if sql == "" {
		return nil, &GenerationError{TaskID: task.ID, Reason: "model returned no SQL"}
	}

	if g.rewriter != nil {
		sql, err = g.rewriter.Rewrite(sql, task)
		if err != nil {
			return nil, &GenerationError{TaskID: task.ID, Reason: "rewrite hook failed", Err: err}
		}
		if sql == "" {
			return nil, &GenerationError{TaskID: task.ID, Reason: "rewrite hook returned no SQL"}
		}
	}

	if task.Kind == models.TaskKindSetup {
		c.Remember(sql)
	}

	return &models.GeneratedStatement{
		TaskID:   task.ID,
		SQL:      sql,
		Model:    model,
		Attempts: attempts,
	}, nil
}

// ask walks the candidates in order. Throttling is retried under the policy;
// any other failure moves straight on to the next candidate.
func (g *Generator) ask(ctx context.Context, task models.Task, prompt string) (string, string, int, error) {
	var lastErr error
	total := 0

	for _, m := range g.candidates {
		notify := func(attempt int, err error, wait time.Duration) {
			g.logger.Info("model rate limited, retrying",
				zap.String("model", m.Name()),
				zap.String("task", task.ID),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
		}

		response, attempts, err := retry.Do(ctx, g.policy, IsRateLimited, notify, func(ctx context.Context) (string, error) {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
			return m.Generate(ctx, prompt)
		})
		total += attempts
		if err == nil {
			return response, m.Name(), total, nil
		}

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return "", "", total, &GenerationError{TaskID: task.ID, Reason: "cancelled", Err: err}
		}

		lastErr = err
		if IsRateLimited(err) {
			g.logger.Warn("model exhausted, trying next", zap.String("model", m.Name()), zap.Int("attempts", attempts))
		} else {
			g.logger.Warn("model failed, trying next", zap.String("model", m.Name()), zap.Error(err))
		}
	}

	return "", "", total, &GenerationError{TaskID: task.ID, Reason: "all models exhausted", Err: lastErr}
}
