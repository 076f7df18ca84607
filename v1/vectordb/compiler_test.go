package vectordb

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_ScalarEquality(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "published", "published"},
		{"int", 42, int64(42)},
		{"int64", int64(-7), int64(-7)},
		{"bool", true, true},
		{"float truncates", 3.9, int64(3)},
		{"json number", json.Number("12"), int64(12)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs, err := CompileMap(map[string]any{"field": tc.value})
			require.NoError(t, err)
			require.NotNil(t, fs)
			require.Equal(t, 1, fs.Must.Len())
			assert.Nil(t, fs.Should)
			assert.Nil(t, fs.MustNot)

			m, ok := fs.Must.Conditions[0].(*MatchCondition)
			require.True(t, ok, "expected *MatchCondition, got %T", fs.Must.Conditions[0])
			assert.Equal(t, "field", m.Field)
			assert.Equal(t, tc.want, m.Value)
		})
	}
}

func TestCompile_RangeMergesBounds(t *testing.T) {
	fs, err := CompileMap(map[string]any{
		"year": map[string]any{"$gte": 2020, "$lte": 2024, "$gt": 2019.5},
	})
	require.NoError(t, err)
	require.Equal(t, 1, fs.Must.Len())

	r, ok := fs.Must.Conditions[0].(*NumericRangeCondition)
	require.True(t, ok)
	require.NotNil(t, r.Range.Gte)
	require.NotNil(t, r.Range.Lte)
	require.NotNil(t, r.Range.Gt)
	assert.Nil(t, r.Range.Lt)
	assert.Equal(t, 2020.0, *r.Range.Gte)
	assert.Equal(t, 2024.0, *r.Range.Lte)
	assert.Equal(t, 2019.5, *r.Range.Gt)
}

func TestCompile_TimeRange(t *testing.T) {
	fs, err := CompileMap(map[string]any{
		"created_at": map[string]any{"$gte": "2024-01-01T00:00:00Z", "$lt": "2025-01-01T00:00:00Z"},
	})
	require.NoError(t, err)
	r, ok := fs.Must.Conditions[0].(*TimeRangeCondition)
	require.True(t, ok, "expected *TimeRangeCondition, got %T", fs.Must.Conditions[0])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.Range.Gte.UTC())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), r.Range.Lt.UTC())
}

func TestCompile_InExpandsToShouldGroup(t *testing.T) {
	fs, err := CompileMap(map[string]any{
		"tag": map[string]any{"$in": []any{"ml", "ai", 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, fs.Must.Len())

	nested, ok := fs.Must.Conditions[0].(*NestedCondition)
	require.True(t, ok)
	require.Equal(t, 3, nested.Filter.Should.Len())

	var values []any
	for _, c := range nested.Filter.Should.Conditions {
		m := c.(*MatchCondition)
		assert.Equal(t, "tag", m.Field)
		values = append(values, m.Value)
	}
	assert.Equal(t, []any{"ml", "ai", int64(3)}, values)
}

func TestCompile_Exists(t *testing.T) {
	for _, exists := range []bool{true, false} {
		fs, err := CompileMap(map[string]any{"author": map[string]any{"$exists": exists}})
		require.NoError(t, err)
		c, ok := fs.Must.Conditions[0].(*ExistsCondition)
		require.True(t, ok)
		assert.Equal(t, exists, c.Exists)
	}
}

func TestCompile_NotEqualIsNotImplemented(t *testing.T) {
	values := map[string]map[string]any{
		"alone":            {"$ne": "draft"},
		"with range":       {"$ne": "draft", "$gte": 1},
		"with unknown key": {"$ne": "draft", "$foo": 1},
	}
	for name, value := range values {
		for _, opts := range [][]CompileOption{nil, {SkipInvalid()}} {
			t.Run(name, func(t *testing.T) {
				fs, err := CompileMap(map[string]any{"status": value}, opts...)
				assert.Nil(t, fs)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNotImplemented), "got %v", err)
				assert.False(t, errors.Is(err, ErrInvalidFilter))

				var fe *FilterError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, "status", fe.Field)
				assert.Equal(t, OpNe, fe.Operator)
			})
		}
	}
}

func TestCompile_InvalidOperators(t *testing.T) {
	cases := map[string]any{
		"empty in":          map[string]any{"$in": []any{}},
		"in not array":      map[string]any{"$in": "ml"},
		"in nested element": map[string]any{"$in": []any{map[string]any{"a": 1}}},
		"exists not bool":   map[string]any{"$exists": "yes"},
		"bound not numeric": map[string]any{"$gte": "soon"},
		"mixed families":    map[string]any{"$gte": 1, "$in": []any{1}},
		"unknown operator":  map[string]any{"$gte": 1, "$regex": "x"},
		"mixed bound kinds": map[string]any{"$gte": 1, "$lt": "2024-01-01T00:00:00Z"},
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			fs, err := CompileMap(map[string]any{"f": value})
			assert.Nil(t, fs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilter), "got %v", err)

			skipped, err := CompileMap(map[string]any{"f": value}, SkipInvalid())
			require.NoError(t, err)
			assert.Nil(t, skipped)
		})
	}
}

func TestCompile_UnrecognizedShapesAreSkipped(t *testing.T) {
	fs, err := CompileMap(map[string]any{
		"list":   []any{"a", "b"},
		"null":   nil,
		"nested": map[string]any{"city": "Berlin"},
	})
	require.NoError(t, err)
	assert.Nil(t, fs)

	fs, err = CompileMap(map[string]any{
		"list":   []any{"a"},
		"status": "ok",
	})
	require.NoError(t, err)
	require.Equal(t, 1, fs.Must.Len())
	assert.Equal(t, "status", fs.Must.Conditions[0].(*MatchCondition).Field)
}

func TestCompile_JoinsErrorsInFieldOrder(t *testing.T) {
	_, err := CompileMap(map[string]any{
		"b": map[string]any{"$ne": 1},
		"a": map[string]any{"$in": []any{}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	errs := joined.Unwrap()
	require.Len(t, errs, 2)
	assert.Equal(t, "a", errs[0].(*FilterError).Field)
	assert.Equal(t, "b", errs[1].(*FilterError).Field)
}

func TestCompile_EmptyExpression(t *testing.T) {
	fs, err := Compile(nil)
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestFilterExpression_UnmarshalJSON(t *testing.T) {
	var expr FilterExpression
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 9007199254740993,
		"score": {"$gt": 0.5},
		"tags": {"$in": ["a", "b"]},
		"list": [1, 2],
		"gone": {"$exists": false}
	}`), &expr))

	assert.Equal(t, Scalar{Value: int64(9007199254740993)}, expr["id"])
	assert.IsType(t, RangeExpr{}, expr["score"])
	assert.Equal(t, InExpr{Values: []any{"a", "b"}}, expr["tags"])
	assert.IsType(t, UnrecognizedExpr{}, expr["list"])
	assert.Equal(t, ExistsExpr{Exists: false}, expr["gone"])
}

func TestCompileBoolean(t *testing.T) {
	fs, err := CompileBoolean(BooleanQuery{
		Must:      []FieldMatch{{Field: "lang", Value: "en"}},
		Should:    []FieldMatch{{Field: "tag", Value: "ml"}, {Field: "tag", Value: "ai"}, {Field: "tag", Value: "go"}},
		MustNot:   []FieldMatch{{Field: "archived", Value: true}},
		MinShould: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fs.Must.Len())
	assert.Equal(t, 3, fs.Should.Len())
	assert.Equal(t, 1, fs.MustNot.Len())
	assert.Equal(t, 2, fs.MinShould)

	assert.True(t, fs.Matches(map[string]any{"lang": "en", "tag": []any{"ml", "go"}}))
	assert.False(t, fs.Matches(map[string]any{"lang": "en", "tag": []any{"ml"}}))
	assert.False(t, fs.Matches(map[string]any{"lang": "en", "tag": []any{"ml", "ai"}, "archived": true}))
}

func TestCompileBoolean_Errors(t *testing.T) {
	_, err := CompileBoolean(BooleanQuery{Must: []FieldMatch{{Field: "x", Value: []string{"a"}}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	fs, err := CompileBoolean(BooleanQuery{})
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestNewRangeFilter(t *testing.T) {
	assert.Nil(t, NewRangeFilter("price", nil, nil))

	lo, hi := 10.0, 20.0
	fs := NewRangeFilter("price", &lo, &hi)
	require.NotNil(t, fs)
	r := fs.Must.Conditions[0].(*NumericRangeCondition)
	assert.Equal(t, &lo, r.Range.Gt)
	assert.Equal(t, &hi, r.Range.Lt)
	assert.Nil(t, r.Range.Gte)
	assert.Nil(t, r.Range.Lte)

	assert.False(t, fs.Matches(map[string]any{"price": 10}))
	assert.True(t, fs.Matches(map[string]any{"price": 15}))
	assert.False(t, fs.Matches(map[string]any{"price": 20}))
}
