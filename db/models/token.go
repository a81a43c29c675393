package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.hackfix.me/sieve/db/types"
)

// Token is an API access token. Only a hash of the token secret is stored.
type Token struct {
	ID        uint64
	CreatedAt time.Time
	ExpiresAt sql.Null[time.Time]
	Name      string
	Role      string
	Hash      []byte
}

// IsExpired returns true if the token has an expiration time before now.
func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Valid && !now.Before(t.ExpiresAt.V)
}

// Save stores a new token in the database.
func (t *Token) Save(ctx context.Context, d types.Querier) error {
	if t.Name == "" || t.Role == "" || len(t.Hash) == 0 {
		return types.InvalidInputError{Msg: "token name, role and hash must be set"}
	}

	timeNow := d.TimeNow().UTC()
	res, err := d.ExecContext(ctx, `INSERT INTO tokens
		(id, created_at, expires_at, name, role, hash)
		VALUES (NULL, ?, ?, ?, ?, ?)`,
		timeNow, t.ExpiresAt, t.Name, t.Role, t.Hash)
	if err != nil {
		return types.Err("token", fmt.Sprintf("name '%s'", t.Name), err)
	}

	t.ID, err = lastInsertID(res)
	if err != nil {
		return err
	}
	t.CreatedAt = timeNow

	return nil
}

// Load the token data from the database. Either the token ID, Name or Hash
// must be set for the lookup.
func (t *Token) Load(ctx context.Context, d types.Querier) error {
	filter, filterStr, err := t.filter("t.")
	if err != nil {
		return err
	}

	tokens, err := Tokens(ctx, d, filter)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return types.NoResultError{ModelName: "token", ID: filterStr}
	}
	*t = *tokens[0]

	return nil
}

// Delete removes the token from the database. Either the token ID, Name or
// Hash must be set for the lookup. It returns an error if the token doesn't
// exist.
func (t *Token) Delete(ctx context.Context, d types.Querier) error {
	filter, filterStr, err := t.filter("")
	if err != nil {
		return err
	}

	res, err := d.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM tokens WHERE %s`, filter.Where), filter.Args...)
	if err != nil {
		return types.Err("token", filterStr, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed getting affected rows: %w", err)
	} else if n == 0 {
		return types.NoResultError{ModelName: "token", ID: filterStr}
	}

	return nil
}

func (t *Token) filter(prefix string) (*types.Filter, string, error) {
	switch {
	case t.ID != 0:
		return types.NewFilter(prefix+"id = ?", []any{t.ID}), fmt.Sprintf("ID %d", t.ID), nil
	case t.Name != "":
		return types.NewFilter(prefix+"name = ?", []any{t.Name}), fmt.Sprintf("name '%s'", t.Name), nil
	case len(t.Hash) > 0:
		return types.NewFilter(prefix+"hash = ?", []any{t.Hash}), "the provided hash", nil
	default:
		return nil, "", types.InvalidInputError{Msg: "either token ID, Name or Hash must be set"}
	}
}

// Tokens returns one or more tokens from the database, ordered by name. An
// optional filter can be passed to limit the results.
func Tokens(ctx context.Context, d types.Querier, filter *types.Filter) (tokens []*Token, rerr error) {
	query := `SELECT t.id, t.created_at, t.expires_at, t.name, t.role, t.hash
		FROM tokens t
		WHERE %s
		ORDER BY t.name ASC`

	query, args := filter.Apply(query)
	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "tokens", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil {
			rerr = fmt.Errorf("failed closing tokens rows: %w", err)
		}
	}()

	tokens = make([]*Token, 0)
	for rows.Next() {
		var t Token
		err = rows.Scan(&t.ID, &t.CreatedAt, &t.ExpiresAt, &t.Name, &t.Role, &t.Hash)
		if err != nil {
			return nil, types.ScanError{ModelName: "token", Err: err}
		}
		tokens = append(tokens, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over tokens rows: %w", err)
	}

	return tokens, nil
}
