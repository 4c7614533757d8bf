package execute

import (
	"context"
	"fmt"
	"strings"
)

type Column struct {
	Name string
	Type string
}

type Table struct {
	Name    string
	Columns []Column
}

// Inspect lists the student's tables with their columns in catalog order.
func (c *Client) Inspect(ctx context.Context, prefix string) ([]Table, error) {
	db, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}

	names, err := c.tables(ctx, db, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		rows, err := db.QueryContext(ctx, c.dialect.listColumnsQuery(), name)
		if err != nil {
			return nil, fmt.Errorf("failed to list columns of %s: %w", name, err)
		}

		t := Table{Name: name}
		for rows.Next() {
			var col Column
			if err := rows.Scan(&col.Name, &col.Type); err != nil {
				rows.Close()
				return nil, err
			}
			col.Type = strings.ToUpper(col.Type)
			t.Columns = append(t.Columns, col)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
