package types

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

// Querier exposes only methods for running SQL queries, and some helper functions.
type Querier interface {
	NewContext() context.Context
	TimeNow() time.Time
	ExecContext(ctx context.Context, sql string, arguments ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Filter restricts the rows returned by a query.
type Filter struct {
	Where string
	Args  []any
	// Limit is the maximum amount of rows to return. 0 means no limit.
	Limit int
}

// NewFilter creates a new query filter.
func NewFilter(where string, args []any) *Filter {
	return &Filter{Where: where, Args: args}
}

// WithLimit returns a copy of the filter limited to n rows.
func (f *Filter) WithLimit(n int) *Filter {
	fc := &Filter{Where: "1=1", Limit: n}
	if f != nil {
		fc.Where, fc.Args = f.Where, slices.Clone(f.Args)
	}

	return fc
}

// Apply formats query, which must contain a single %s verb in place of the
// WHERE condition, and appends a LIMIT clause if the filter has a limit. A nil
// filter matches all rows.
func (f *Filter) Apply(query string) (string, []any) {
	if f == nil {
		return fmt.Sprintf(query, "1=1"), nil
	}

	query = fmt.Sprintf(query, f.Where)
	args := slices.Clone(f.Args)
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return query, args
}
