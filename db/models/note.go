package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.hackfix.me/sieve/db/types"
)

// Note is a short text document.
type Note struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Title     string
	Body      string
}

// Save stores the note in the database. New notes are assigned a random ID if
// they don't have one.
func (n *Note) Save(ctx context.Context, d types.Querier, update bool) error {
	timeNow := d.TimeNow().UTC()

	if update {
		if n.ID == uuid.Nil {
			return types.InvalidInputError{Msg: "must provide a note ID to update"}
		}

		res, err := d.ExecContext(ctx, `UPDATE notes
			SET updated_at = ?, title = ?, body = ?
			WHERE id = ?`, timeNow, n.Title, n.Body, n.ID)
		if err != nil {
			return types.Err("note", fmt.Sprintf("ID %s", n.ID), err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed getting affected rows: %w", err)
		}
		if affected == 0 {
			return types.NoResultError{ModelName: "note", ID: fmt.Sprintf("ID %s", n.ID)}
		}
		n.UpdatedAt = timeNow

		return n.Load(ctx, d)
	}

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	_, err := d.ExecContext(ctx, `INSERT INTO notes
		(id, created_at, updated_at, title, body)
		VALUES (?, ?, ?, ?, ?)`, n.ID, timeNow, timeNow, n.Title, n.Body)
	if err != nil {
		return types.Err("note", fmt.Sprintf("ID %s", n.ID), err)
	}
	n.CreatedAt = timeNow
	n.UpdatedAt = timeNow

	return nil
}

// Load the note data from the database by its ID.
func (n *Note) Load(ctx context.Context, d types.Querier) error {
	if n.ID == uuid.Nil {
		return types.InvalidInputError{Msg: "note ID must be set"}
	}

	notes, err := Notes(ctx, d, types.NewFilter("n.id = ?", []any{n.ID}))
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return types.NoResultError{ModelName: "note", ID: fmt.Sprintf("ID %s", n.ID)}
	}
	*n = *notes[0]

	return nil
}

// Delete removes the note from the database. It returns an error if the note
// doesn't exist.
func (n *Note) Delete(ctx context.Context, d types.Querier) error {
	if n.ID == uuid.Nil {
		return types.InvalidInputError{Msg: "note ID must be set"}
	}

	res, err := d.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, n.ID)
	if err != nil {
		return types.Err("note", fmt.Sprintf("ID %s", n.ID), err)
	}

	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed getting affected rows: %w", err)
	} else if affected == 0 {
		return types.NoResultError{ModelName: "note", ID: fmt.Sprintf("ID %s", n.ID)}
	}

	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NoteSearchFilter returns a filter that matches notes whose title or body
// contain the search term. LIKE wildcards in search are matched literally.
func NoteSearchFilter(search string) *types.Filter {
	term := "%" + likeEscaper.Replace(search) + "%"
	return types.NewFilter(
		`(n.title LIKE ? ESCAPE '\' OR n.body LIKE ? ESCAPE '\')`, []any{term, term})
}

// Notes returns notes from the database, most recent first. An optional filter
// can be passed to limit the results.
func Notes(ctx context.Context, d types.Querier, filter *types.Filter) (notes []*Note, rerr error) {
	query := `SELECT n.id, n.created_at, n.updated_at, n.title, n.body
		FROM notes n
		WHERE %s
		ORDER BY n.created_at DESC, n.id ASC`

	query, args := filter.Apply(query)
	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "notes", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil {
			rerr = fmt.Errorf("failed closing notes rows: %w", err)
		}
	}()

	notes = make([]*Note, 0)
	for rows.Next() {
		var n Note
		err = rows.Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt, &n.Title, &n.Body)
		if err != nil {
			return nil, types.ScanError{ModelName: "note", Err: err}
		}
		notes = append(notes, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over notes rows: %w", err)
	}

	return notes, nil
}

// NotesCount returns the amount of notes matching filter, ignoring its limit.
func NotesCount(ctx context.Context, d types.Querier, filter *types.Filter) (int, error) {
	return filterCount(ctx, d, "notes n", filter)
}
