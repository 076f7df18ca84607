package vectordb

import (
	"errors"
	"fmt"
	"sort"
)

// CompileOption tunes Compile.
type CompileOption func(*compileOptions)

type compileOptions struct {
	skipInvalid bool
}

// SkipInvalid drops fields whose operator object is malformed instead of
// failing compilation. $ne is still rejected.
func SkipInvalid() CompileOption {
	return func(o *compileOptions) {
		o.skipInvalid = true
	}
}

// Compile turns a filter expression into a compiled query where every field
// contributes one MUST condition.
//
//   - Scalar: equality (floats truncate to int64)
//   - $gt/$gte/$lt/$lte: one range merging all bounds
//   - $in: a nested SHOULD group with one equality per element
//   - $exists: presence or absence
//   - $ne: always an error wrapping ErrNotImplemented
//   - malformed operators: an error wrapping ErrInvalidFilter, or dropped with SkipInvalid
//   - unrecognized shapes: dropped
//
// Fields are visited in sorted order and all field errors are joined. When no
// field yields a condition the result is (nil, nil), meaning "no filter".
func Compile(expr FilterExpression, opts ...CompileOption) (*FilterSet, error) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	fields := make([]string, 0, len(expr))
	for field := range expr {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var (
		conditions []FilterCondition
		errs       []error
	)
	for _, field := range fields {
		switch v := expr[field].(type) {
		case Scalar:
			conditions = append(conditions, NewMatch(field, v.Value))
		case RangeExpr:
			if v.Time != nil {
				conditions = append(conditions, NewTimeRange(field, *v.Time))
			} else if v.Numeric != nil {
				conditions = append(conditions, NewNumericRange(field, *v.Numeric))
			}
		case InExpr:
			conditions = append(conditions, membership(field, v.Values))
		case ExistsExpr:
			conditions = append(conditions, NewExists(field, v.Exists))
		case NotEqualExpr:
			errs = append(errs, &FilterError{Field: field, Operator: OpNe, Err: ErrNotImplemented})
		case InvalidExpr:
			if o.skipInvalid {
				continue
			}
			errs = append(errs, &FilterError{
				Field:    field,
				Operator: v.Operator,
				Err:      fmt.Errorf("%w: %s", ErrInvalidFilter, v.Reason),
			})
		case UnrecognizedExpr, nil:
			continue
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(conditions) == 0 {
		return nil, nil
	}
	return NewFilterSet(Must(conditions...)), nil
}

// CompileMap parses and compiles a JSON-like map in one step.
func CompileMap(m map[string]any, opts ...CompileOption) (*FilterSet, error) {
	return Compile(ParseFilterExpression(m), opts...)
}

func membership(field string, values []any) FilterCondition {
	leaves := make([]FilterCondition, 0, len(values))
	for _, v := range values {
		leaves = append(leaves, NewMatch(field, v))
	}
	return NewNested(NewFilterSet(Should(leaves...)))
}

// FieldMatch is a (field, scalar) equality pair.
type FieldMatch struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// BooleanQuery lists equality pairs per clause. MinShould is the minimum
// number of Should pairs that must hold (zero means one).
type BooleanQuery struct {
	Must      []FieldMatch `json:"must,omitempty"`
	Should    []FieldMatch `json:"should,omitempty"`
	MustNot   []FieldMatch `json:"mustNot,omitempty"`
	MinShould int          `json:"minShould,omitempty"`
}

// CompileBoolean composes direct equality lists into a compiled query without
// going through operator objects. An empty query compiles to (nil, nil).
func CompileBoolean(q BooleanQuery) (*FilterSet, error) {
	var errs []error
	clause := func(pairs []FieldMatch) *ConditionSet {
		if len(pairs) == 0 {
			return nil
		}
		set := &ConditionSet{Conditions: make([]FilterCondition, 0, len(pairs))}
		for _, p := range pairs {
			s, ok := normalizeScalar(p.Value)
			if !ok {
				errs = append(errs, &FilterError{
					Field: p.Field,
					Err:   fmt.Errorf("%w: unsupported value type %T", ErrInvalidFilter, p.Value),
				})
				continue
			}
			set.Conditions = append(set.Conditions, NewMatch(p.Field, s))
		}
		return set
	}

	fs := &FilterSet{
		Must:    clause(q.Must),
		Should:  clause(q.Should),
		MustNot: clause(q.MustNot),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if q.MinShould < 0 {
		return nil, &FilterError{Field: "minShould", Err: fmt.Errorf("%w: must not be negative", ErrInvalidFilter)}
	}
	if q.MinShould > 1 {
		fs.MinShould = q.MinShould
	}
	if fs.IsEmpty() {
		return nil, nil
	}
	return fs, nil
}

// NewRangeFilter builds a single-field numeric range with strict bounds:
// lower maps to Gt and upper maps to Lt. It returns nil when both are nil.
func NewRangeFilter(field string, lower, upper *float64) *FilterSet {
	if lower == nil && upper == nil {
		return nil
	}
	return NewFilterSet(Must(NewNumericRange(field, NumericRange{Gt: lower, Lt: upper})))
}
