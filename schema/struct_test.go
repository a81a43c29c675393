package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testParams struct {
	ID string `json:"id" validate:"required,uuid"`
}

type testQuery struct {
	Search *string  `json:"search" validate:"omitempty,min=1"`
	Limit  int      `json:"limit" validate:"omitempty,min=1,max=100"`
	Tags   []string `json:"tags"`
	Since  time.Time
}

type testAddress struct {
	City string `json:"city" validate:"required"`
}

type testBody struct {
	Field   string       `json:"field" validate:"required"`
	Count   int          `json:"count,omitempty" validate:"gte=0"`
	Address *testAddress `json:"address,omitempty"`
	Timeout time.Duration
}

func TestStructParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     any
		expValue  testParams
		expIssues []Issue
	}{
		{
			name:     "ok/valid_uuid",
			input:    map[string]string{"id": "0b6cb6d5-28fd-4b5b-8b3f-0a1b2c3d4e5f"},
			expValue: testParams{ID: "0b6cb6d5-28fd-4b5b-8b3f-0a1b2c3d4e5f"},
		},
		{
			name:  "err/invalid_uuid",
			input: map[string]string{"id": "not-a-valid-uuid"},
			expIssues: []Issue{
				{Path: "id", Code: "uuid", Message: "must be a valid UUID"},
			},
		},
		{
			name:  "err/missing",
			input: map[string]string{},
			expIssues: []Issue{
				{Path: "id", Code: "required", Message: "is required"},
			},
		},
	}

	s := Struct[testParams]()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := s.Parse(tt.input)
			if tt.expIssues != nil {
				require.Error(t, err)
				assert.Equal(t, tt.expIssues, Issues(err))
				assert.Nil(t, v)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expValue, v)
		})
	}
}

func TestStructQuery(t *testing.T) {
	t.Parallel()

	s := Struct[testQuery]()

	t.Run("ok/weak_types", func(t *testing.T) {
		t.Parallel()

		v, err := s.Parse(map[string]any{
			"search": "test",
			"limit":  "10",
			"tags":   []any{"a", "b"},
			"Since":  "2025-01-01T00:00:00Z",
		})
		require.NoError(t, err)

		q, ok := v.(testQuery)
		require.True(t, ok)
		require.NotNil(t, q.Search)
		assert.Equal(t, "test", *q.Search)
		assert.Equal(t, 10, q.Limit)
		assert.Equal(t, []string{"a", "b"}, q.Tags)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), q.Since)
	})

	t.Run("ok/single_value_to_slice", func(t *testing.T) {
		t.Parallel()

		v, err := s.Parse(map[string]any{"tags": "a"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, v.(testQuery).Tags)
	})

	t.Run("err/empty_search", func(t *testing.T) {
		t.Parallel()

		_, err := s.Parse(map[string]any{"search": ""})
		require.Error(t, err)
		assert.Equal(t, []Issue{
			{Path: "search", Code: "min", Message: "must be at least 1 characters"},
		}, Issues(err))
	})

	t.Run("err/limit_out_of_range", func(t *testing.T) {
		t.Parallel()

		_, err := s.Parse(map[string]any{"limit": "1000"})
		require.Error(t, err)
		assert.EqualError(t, err, "limit: must be at most 100")
	})

	t.Run("err/unconvertible", func(t *testing.T) {
		t.Parallel()

		_, err := s.Parse(map[string]any{"limit": "many"})
		require.Error(t, err)
		assert.Equal(t, []Issue{
			{Path: "limit", Code: "type", Message: "must be a valid int"},
		}, Issues(err))
		assert.EqualError(t, err, "limit: must be a valid int")
	})

	t.Run("err/repeated_single_value", func(t *testing.T) {
		t.Parallel()

		_, err := s.Parse(map[string]any{
			"search": []any{"a", "b"},
			"limit":  "x",
		})
		require.Error(t, err)
		issues := Issues(err)
		require.Len(t, issues, 2)
		assert.Equal(t, "limit", issues[0].Path)
		assert.Equal(t, "search", issues[1].Path)
		for _, issue := range issues {
			assert.Equal(t, "type", issue.Code)
			assert.NotContains(t, issue.Message, "\n")
		}
	})
}

func TestStructBody(t *testing.T) {
	t.Parallel()

	t.Run("ok/raw_json", func(t *testing.T) {
		t.Parallel()

		v, err := Struct[testBody]().Parse([]byte(
			`{"field":"value","count":3,"address":{"city":"Lisbon"},"Timeout":"1m30s"}`))
		require.NoError(t, err)
		assert.Equal(t, testBody{
			Field:   "value",
			Count:   3,
			Address: &testAddress{City: "Lisbon"},
			Timeout: 90 * time.Second,
		}, v)
	})

	t.Run("ok/ignores_unknown_fields", func(t *testing.T) {
		t.Parallel()

		v, err := Struct[testBody]().Parse(map[string]any{"field": "value", "other": 1})
		require.NoError(t, err)
		assert.Equal(t, testBody{Field: "value"}, v)
	})

	t.Run("err/strict_unknown_fields", func(t *testing.T) {
		t.Parallel()

		_, err := Struct[testBody](Strict()).Parse(map[string]any{
			"field":   "value",
			"other":   1,
			"address": map[string]any{"city": "Lisbon", "zip": "1000"},
		})
		require.Error(t, err)
		assert.Equal(t, []Issue{
			{Path: "address.zip", Code: "unknown", Message: "is not allowed"},
			{Path: "other", Code: "unknown", Message: "is not allowed"},
		}, Issues(err))
	})

	t.Run("err/object_for_string", func(t *testing.T) {
		t.Parallel()

		_, err := Struct[testBody]().Parse([]byte(`{"field":{"a":1}}`))
		require.Error(t, err)
		assert.Equal(t, []Issue{
			{Path: "field", Code: "type", Message: "must be a valid string"},
		}, Issues(err))
	})

	t.Run("ok/weak_number_for_string", func(t *testing.T) {
		t.Parallel()

		v, err := Struct[testBody]().Parse([]byte(`{"field":12}`))
		require.NoError(t, err)
		assert.Equal(t, "12", v.(testBody).Field)
	})

	t.Run("err/strict_types", func(t *testing.T) {
		t.Parallel()

		s := Struct[testBody](StrictTypes())

		_, err := s.Parse([]byte(`{"field":12,"count":"3"}`))
		require.Error(t, err)
		assert.Equal(t, []Issue{
			{Path: "count", Code: "type", Message: "must be a valid int"},
			{Path: "field", Code: "type", Message: "must be a valid string"},
		}, Issues(err))

		v, err := s.Parse([]byte(`{"field":"value","count":3,"Timeout":"1s"}`))
		require.NoError(t, err)
		assert.Equal(t, testBody{Field: "value", Count: 3, Timeout: time.Second}, v)
	})

	t.Run("err/nested", func(t *testing.T) {
		t.Parallel()

		_, err := Struct[testBody]().Parse(map[string]any{
			"count":   -1,
			"address": map[string]any{},
		})
		require.Error(t, err)
		assert.Equal(t, []Issue{
			{Path: "address.city", Code: "required", Message: "is required"},
			{Path: "count", Code: "gte", Message: "must be greater than or equal to 0"},
			{Path: "field", Code: "required", Message: "is required"},
		}, Issues(err))
	})

	t.Run("err/invalid_json", func(t *testing.T) {
		t.Parallel()

		_, err := Struct[testBody]().Parse([]byte(`{"field":`))
		require.Error(t, err)
		issues := Issues(err)
		require.Len(t, issues, 1)
		assert.Equal(t, "decode", issues[0].Code)
	})
}

func TestFunc(t *testing.T) {
	t.Parallel()

	s := Func(func(input any) (string, error) {
		m, _ := input.(map[string]any)
		name, _ := m["name"].(string)
		if name == "" {
			return "", &Error{Issues: []Issue{{Path: "name", Code: "required", Message: "is required"}}}
		}
		return name, nil
	})

	v, err := s.Parse(map[string]any{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	v, err = s.Parse(map[string]any{})
	require.Error(t, err)
	assert.Nil(t, v)
	assert.EqualError(t, err, "name: is required")
}
