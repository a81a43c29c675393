package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterApply(t *testing.T) {
	t.Parallel()

	const query = `SELECT * FROM notes n WHERE %s`
	tests := []struct {
		name     string
		filter   *Filter
		expQuery string
		expArgs  []any
	}{
		{name: "ok/nil", filter: nil, expQuery: `SELECT * FROM notes n WHERE 1=1`},
		{
			name:     "ok/where",
			filter:   NewFilter("n.title = ?", []any{"a"}),
			expQuery: `SELECT * FROM notes n WHERE n.title = ?`,
			expArgs:  []any{"a"},
		},
		{
			name:     "ok/limit",
			filter:   NewFilter("n.title = ?", []any{"a"}).WithLimit(5),
			expQuery: `SELECT * FROM notes n WHERE n.title = ? LIMIT ?`,
			expArgs:  []any{"a", 5},
		},
		{
			name:     "ok/nil_with_limit",
			filter:   (*Filter)(nil).WithLimit(1),
			expQuery: `SELECT * FROM notes n WHERE 1=1 LIMIT ?`,
			expArgs:  []any{1},
		},
		{
			name:     "ok/limit_removed",
			filter:   (&Filter{Where: "1=1", Limit: 3}).WithLimit(0),
			expQuery: `SELECT * FROM notes n WHERE 1=1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q, args := tt.filter.Apply(query)
			assert.Equal(t, tt.expQuery, q)
			if len(tt.expArgs) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.expArgs, args)
			}
		})
	}
}

func TestFilterWithLimitCopies(t *testing.T) {
	t.Parallel()

	f := NewFilter("id = ?", []any{1})
	fl := f.WithLimit(10)
	fl.Args[0] = 2

	assert.Equal(t, []any{1}, f.Args)
	assert.Zero(t, f.Limit)
}
