// Package execute runs generated SQL against the lab database and renders
// what happened the way an SQL*Plus session would.
package execute

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mpataki/tada/internal/models"
	"go.uber.org/zap"
)

// Executor turns statements into results.
type Executor interface {
	Prepare(ctx context.Context, prefix string) error
	Execute(ctx context.Context, stmt models.GeneratedStatement) (*models.ExecutionResult, error)
}

type Client struct {
	dialect    Dialect
	strategies []Strategy
	logger     *zap.Logger

	mu        sync.Mutex
	attempted bool
	db        *sql.DB
	strategy  string
	connErr   error
}

func NewClient(dialect Dialect, strategies []Strategy, logger *zap.Logger) *Client {
	return &Client{
		dialect:    dialect,
		strategies: strategies,
		logger:     logger,
	}
}

// Connect walks the strategies once. Both the handle and a failure are kept
// for the rest of the process.
func (c *Client) Connect(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempted {
		return c.db, c.connErr
	}
	c.attempted = true

	connErr := &ConnectionError{Dialect: c.dialect}
	for _, s := range c.strategies {
		db, err := s.Open(ctx)
		if err != nil {
			c.logger.Warn("connection strategy failed", zap.String("strategy", s.Name()), zap.Error(err))
			connErr.Failures = append(connErr.Failures, StrategyFailure{Strategy: s.Name(), Err: err})
			continue
		}

		c.logger.Info("connected to database", zap.String("dialect", string(c.dialect)), zap.String("strategy", s.Name()))
		c.db = db
		c.strategy = s.Name()
		return c.db, nil
	}

	if len(connErr.Failures) == 0 {
		connErr.Failures = append(connErr.Failures, StrategyFailure{Strategy: "none", Err: fmt.Errorf("no connection strategies configured")})
	}
	c.connErr = connErr
	return nil, c.connErr
}

// Strategy names the strategy that produced the open handle.
func (c *Client) Strategy() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strategy
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Prepare drops the student's previous tables so setup statements start
// clean. Tables that refuse to drop (usually foreign key order) are retried
// for as long as each pass makes progress; whatever is left after that is
// logged, not returned. Only connection and listing failures are errors.
func (c *Client) Prepare(ctx context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}

	db, err := c.Connect(ctx)
	if err != nil {
		return err
	}

	tables, err := c.tables(ctx, db, prefix)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for len(tables) > 0 {
		var remaining []string
		var lastErr error
		for _, t := range tables {
			if _, err := db.ExecContext(ctx, c.dialect.dropTable(t)); err != nil {
				remaining = append(remaining, t)
				lastErr = err
				continue
			}
			c.logger.Debug("dropped table", zap.String("table", t))
		}
		if len(remaining) == len(tables) {
			// setup statements report their own errors if these tables get in the way
			c.logger.Warn("could not drop previous tables",
				zap.Strings("tables", remaining),
				zap.Error(lastErr))
			return nil
		}
		tables = remaining
	}
	return nil
}

func (c *Client) tables(ctx context.Context, db *sql.DB, prefix string) ([]string, error) {
	rows, err := db.QueryContext(ctx, c.dialect.listTablesQuery(), likePrefix(c.dialect.foldName(prefix)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Execute runs every command of the statement in order. Database errors are
// written into the result; only a missing connection is returned.
func (c *Client) Execute(ctx context.Context, stmt models.GeneratedStatement) (*models.ExecutionResult, error) {
	db, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.ExecutionResult{TaskID: stmt.TaskID}
	var outputs []string

	for _, cmd := range SplitScript(stmt.SQL) {
		out, cols, rows, err := c.run(ctx, db, cmd)
		if err != nil {
			execErr := &ExecutionError{TaskID: stmt.TaskID, Command: cmd, Err: err}
			c.logger.Debug("command failed", zap.String("task", stmt.TaskID), zap.Error(err))
			if result.Err == "" {
				result.Err = execErr.Transcript()
			}
			outputs = append(outputs, execErr.Transcript())
			continue
		}
		if cols != nil {
			result.Columns, result.Rows = cols, rows
		}
		outputs = append(outputs, out)
	}

	result.Output = strings.Join(outputs, "\n\n")
	result.ExecutedAt = time.Now()
	return result, nil
}

func (c *Client) run(ctx context.Context, db *sql.DB, cmd string) (string, []string, [][]string, error) {
	if returnsRows(cmd) {
		cols, rows, err := c.query(ctx, db, cmd)
		if err != nil {
			return "", nil, nil, err
		}
		if rows == nil {
			rows = [][]string{}
		}
		return formatRows(cols, rows), cols, rows, nil
	}

	if !c.dialect.supportsBlocks() {
		if inner, ok := unwrapBlock(cmd); ok {
			for _, ic := range inner {
				if _, err := db.ExecContext(ctx, ic); err != nil {
					return "", nil, nil, err
				}
			}
			return feedback(cmd, 0), nil, nil, nil
		}
	}

	res, err := db.ExecContext(ctx, cmd)
	if err != nil {
		return "", nil, nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return feedback(cmd, affected), nil, nil, nil
}

func (c *Client) query(ctx context.Context, db *sql.DB, cmd string) ([]string, [][]string, error) {
	rows, err := db.QueryContext(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = c.dialect.formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
