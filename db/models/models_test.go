package models

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/sieve/db"
	"go.hackfix.me/sieve/db/types"
)

func newTestDB(t *testing.T, timeNow func() time.Time) *db.DB {
	t.Helper()

	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	d, err := db.Open(context.Background(), path, timeNow)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, d.Init("v0.0.0-test", slog.New(slog.NewTextHandler(io.Discard, nil))))

	return d
}

func fixedTime(ts string) func() time.Time {
	return func() time.Time {
		tt, _ := time.Parse(time.RFC3339, ts)
		return tt
	}
}

func TestNoteCRUD(t *testing.T) {
	t.Parallel()

	d := newTestDB(t, fixedTime("2026-01-02T03:04:05Z"))
	ctx := context.Background()

	note := &Note{Title: "groceries", Body: "milk"}
	require.NoError(t, note.Save(ctx, d, false))
	assert.NotEqual(t, uuid.Nil, note.ID)
	assert.Equal(t, fixedTime("2026-01-02T03:04:05Z")(), note.CreatedAt)

	loaded := &Note{ID: note.ID}
	require.NoError(t, loaded.Load(ctx, d))
	assert.Equal(t, "groceries", loaded.Title)
	assert.Equal(t, "milk", loaded.Body)
	assert.True(t, note.CreatedAt.Equal(loaded.CreatedAt))

	loaded.Body = "milk, eggs"
	require.NoError(t, loaded.Save(ctx, d, true))
	assert.Equal(t, "milk, eggs", loaded.Body)

	dup := &Note{ID: note.ID, Title: "dup"}
	err := dup.Save(ctx, d, false)
	var derr *types.DuplicateError
	require.ErrorAs(t, err, &derr)

	require.NoError(t, loaded.Delete(ctx, d))
	err = loaded.Load(ctx, d)
	require.ErrorAs(t, err, &types.NoResultError{})
	err = loaded.Delete(ctx, d)
	require.ErrorAs(t, err, &types.NoResultError{})

	missing := &Note{ID: uuid.New(), Title: "x"}
	err = missing.Save(ctx, d, true)
	require.ErrorAs(t, err, &types.NoResultError{})

	err = (&Note{}).Load(ctx, d)
	require.ErrorAs(t, err, &types.InvalidInputError{})
}

func TestNotesFilter(t *testing.T) {
	t.Parallel()

	now := fixedTime("2026-01-02T03:04:05Z")()
	var offset time.Duration
	d := newTestDB(t, func() time.Time {
		offset += time.Minute
		return now.Add(offset)
	})
	ctx := context.Background()

	seed := []string{
		"alpha", "beta", "gamma alpha", "50% off", "50 off", "snake_case", "snakeXcase", `a\b`,
	}
	for _, title := range seed {
		require.NoError(t, (&Note{Title: title}).Save(ctx, d, false))
	}

	tests := []struct {
		name     string
		filter   *types.Filter
		exp      []string
		expCount int
	}{
		{
			name: "ok/all", filter: nil, expCount: 8,
			exp: []string{
				`a\b`, "snakeXcase", "snake_case", "50 off", "50% off", "gamma alpha", "beta", "alpha",
			},
		},
		{name: "ok/search", filter: NoteSearchFilter("alpha"), exp: []string{"gamma alpha", "alpha"}, expCount: 2},
		{name: "ok/search_percent", filter: NoteSearchFilter("%"), exp: []string{"50% off"}, expCount: 1},
		{name: "ok/search_underscore", filter: NoteSearchFilter("_"), exp: []string{"snake_case"}, expCount: 1},
		{name: "ok/search_backslash", filter: NoteSearchFilter(`\`), exp: []string{`a\b`}, expCount: 1},
		{name: "ok/limit", filter: &types.Filter{Where: "1=1", Limit: 1}, exp: []string{`a\b`}, expCount: 8},
		{name: "ok/no_match", filter: NoteSearchFilter("delta"), exp: []string{}, expCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes, err := Notes(ctx, d, tt.filter)
			require.NoError(t, err)
			titles := make([]string, len(notes))
			for i, n := range notes {
				titles[i] = n.Title
			}
			assert.Equal(t, tt.exp, titles)

			count, err := NotesCount(ctx, d, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expCount, count)
		})
	}
}

func TestTokenCRUD(t *testing.T) {
	t.Parallel()

	now := fixedTime("2026-01-02T03:04:05Z")()
	d := newTestDB(t, func() time.Time { return now })
	ctx := context.Background()

	tok := &Token{
		Name:      "ci",
		Role:      "reader",
		Hash:      []byte("0123456789abcdef0123456789abcdef"),
		ExpiresAt: sql.Null[time.Time]{V: now.Add(time.Hour), Valid: true},
	}
	require.NoError(t, tok.Save(ctx, d))
	assert.NotZero(t, tok.ID)

	err := (&Token{Name: "ci", Role: "admin", Hash: []byte("other")}).Save(ctx, d)
	var derr *types.DuplicateError
	require.ErrorAs(t, err, &derr)

	byHash := &Token{Hash: tok.Hash}
	require.NoError(t, byHash.Load(ctx, d))
	assert.Equal(t, "ci", byHash.Name)
	assert.Equal(t, "reader", byHash.Role)
	require.True(t, byHash.ExpiresAt.Valid)
	assert.False(t, byHash.IsExpired(now))
	assert.True(t, byHash.IsExpired(now.Add(time.Hour)))

	require.NoError(t, (&Token{Name: "forever", Role: "admin", Hash: []byte("h2")}).Save(ctx, d))
	tokens, err := Tokens(ctx, d, nil)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "ci", tokens[0].Name)
	assert.False(t, tokens[1].ExpiresAt.Valid)
	assert.False(t, tokens[1].IsExpired(now.Add(1000*time.Hour)))

	require.NoError(t, (&Token{Name: "ci"}).Delete(ctx, d))
	err = (&Token{Name: "ci"}).Load(ctx, d)
	require.ErrorAs(t, err, &types.NoResultError{})

	err = (&Token{}).Delete(ctx, d)
	require.ErrorAs(t, err, &types.InvalidInputError{})
	err = (&Token{Name: "x"}).Save(ctx, d)
	require.ErrorAs(t, err, &types.InvalidInputError{})
}
