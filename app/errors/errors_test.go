package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := New("failed saving token", cause, "hint", "free up some space")

	assert.Equal(t, "failed saving token: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "free up some space", Hint(err))
	assert.Equal(t, "free up some space", Hint(fmt.Errorf("running: %w", err)))
	assert.Equal(t, "not initialized", New("not initialized", nil).Error())
	assert.Empty(t, Hint(errors.New("plain")))
	assert.Empty(t, New("no hint", nil, "hint", "").Metadata())
}

func TestWith(t *testing.T) {
	t.Parallel()

	cause := errors.New("no rows")
	err := With(New("token not found", cause, "name", "ci", "role", "admin"), "role", "reader")

	assert.Equal(t, "token not found: no rows", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, map[string]any{"name": "ci", "role": "reader"}, err.Metadata())

	werr := With(fmt.Errorf("loading: %w", cause), "id", 1)
	assert.ErrorIs(t, werr, cause)
	assert.Equal(t, map[string]any{"id": 1}, werr.Metadata())

	assert.Panics(t, func() { New("odd", nil, "key") })
	assert.Panics(t, func() { New("bad key", nil, 1, 2) })
}
