package vectordb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Operator keys recognized inside an operator object.
const (
	OpGt     = "$gt"
	OpGte    = "$gte"
	OpLt     = "$lt"
	OpLte    = "$lte"
	OpIn     = "$in"
	OpExists = "$exists"
	OpNe     = "$ne"
)

// FilterExpression maps payload field names to filter values. It is the
// user-facing input of the compiler.
//
// Example (JSON):
//
//	{"status": "published", "year": {"$gte": 2020, "$lte": 2024}, "tags": {"$in": ["ml", "ai"]}}
type FilterExpression map[string]FilterValue

// FilterValue is a closed set of shapes a field's filter can take:
// Scalar, RangeExpr, InExpr, ExistsExpr, NotEqualExpr, InvalidExpr and
// UnrecognizedExpr.
type FilterValue interface {
	filterValue()
}

// Scalar is an equality filter. Value is a string, int64, float64 or bool.
type Scalar struct {
	Value any
}

// RangeExpr merges every $gt/$gte/$lt/$lte bound of one operator object.
// Exactly one of Numeric and Time is set.
type RangeExpr struct {
	Numeric *NumericRange
	Time    *TimeRange
}

// InExpr is set membership over a non-empty list of scalars.
type InExpr struct {
	Values []any
}

// ExistsExpr is a presence (true) or absence (false) predicate.
type ExistsExpr struct {
	Exists bool
}

// NotEqualExpr is the $ne operator. It parses but never compiles.
type NotEqualExpr struct {
	Value any
}

// InvalidExpr is a recognized operator with a malformed operand.
type InvalidExpr struct {
	Operator string
	Reason   string
}

// UnrecognizedExpr is a value shape that carries no filter: top-level
// arrays, null, and objects without any recognized operator key.
type UnrecognizedExpr struct {
	Raw any
}

func (Scalar) filterValue()           {}
func (RangeExpr) filterValue()        {}
func (InExpr) filterValue()           {}
func (ExistsExpr) filterValue()       {}
func (NotEqualExpr) filterValue()     {}
func (InvalidExpr) filterValue()      {}
func (UnrecognizedExpr) filterValue() {}

// ParseFilterExpression classifies every value of a JSON-like map.
func ParseFilterExpression(m map[string]any) FilterExpression {
	expr := make(FilterExpression, len(m))
	for field, v := range m {
		expr[field] = ParseFilterValue(v)
	}
	return expr
}

// UnmarshalJSON decodes a JSON object into a FilterExpression. Numbers keep
// integer precision.
func (e *FilterExpression) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := decodeJSON(data, &raw); err != nil {
		return fmt.Errorf("decode filter expression: %w", err)
	}
	*e = ParseFilterExpression(raw)
	return nil
}

// ParseFilterValue classifies one field value.
func ParseFilterValue(v any) FilterValue {
	if s, ok := normalizeScalar(v); ok {
		return Scalar{Value: s}
	}
	if m, ok := v.(map[string]any); ok {
		return parseOperatorObject(m)
	}
	return UnrecognizedExpr{Raw: v}
}

var rangeOperators = map[string]bool{OpGt: true, OpGte: true, OpLt: true, OpLte: true}

func isRecognizedOperator(key string) bool {
	return rangeOperators[key] || key == OpIn || key == OpExists || key == OpNe
}

func parseOperatorObject(m map[string]any) FilterValue {
	keys := make([]string, 0, len(m))
	recognized := false
	for k := range m {
		keys = append(keys, k)
		if isRecognizedOperator(k) {
			recognized = true
		}
	}
	if !recognized {
		return UnrecognizedExpr{Raw: m}
	}
	// $ne wins over any sibling key so it is never dropped as malformed.
	if v, ok := m[OpNe]; ok {
		return NotEqualExpr{Value: v}
	}
	sort.Strings(keys)

	families := map[string]bool{}
	for _, k := range keys {
		switch {
		case rangeOperators[k]:
			families["range"] = true
		case isRecognizedOperator(k):
			families[k] = true
		default:
			return InvalidExpr{Operator: k, Reason: fmt.Sprintf("unknown key %q in operator object", k)}
		}
	}
	if len(families) > 1 {
		return InvalidExpr{
			Operator: strings.Join(keys, ","),
			Reason:   "operator object mixes operator families",
		}
	}

	switch {
	case families["range"]:
		return parseRange(m, keys)
	case families[OpIn]:
		return parseIn(m[OpIn])
	case families[OpExists]:
		b, ok := m[OpExists].(bool)
		if !ok {
			return InvalidExpr{Operator: OpExists, Reason: fmt.Sprintf("expected boolean, got %T", m[OpExists])}
		}
		return ExistsExpr{Exists: b}
	default:
		return InvalidExpr{Operator: strings.Join(keys, ","), Reason: "no operator"}
	}
}

func parseRange(m map[string]any, keys []string) FilterValue {
	var (
		num      NumericRange
		tr       TimeRange
		numbers  int
		instants int
	)
	for _, k := range keys {
		raw := m[k]
		if f, ok := toFloat64(raw); ok {
			numbers++
			setNumericBound(&num, k, f)
			continue
		}
		if s, ok := raw.(string); ok {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return InvalidExpr{Operator: k, Reason: fmt.Sprintf("bound %q is neither a number nor an RFC3339 timestamp", s)}
			}
			instants++
			setTimeBound(&tr, k, t)
			continue
		}
		return InvalidExpr{Operator: k, Reason: fmt.Sprintf("expected numeric bound, got %T", raw)}
	}
	if numbers > 0 && instants > 0 {
		return InvalidExpr{Operator: strings.Join(keys, ","), Reason: "range mixes numeric and timestamp bounds"}
	}
	if instants > 0 {
		return RangeExpr{Time: &tr}
	}
	return RangeExpr{Numeric: &num}
}

func setNumericBound(r *NumericRange, op string, v float64) {
	switch op {
	case OpGt:
		r.Gt = &v
	case OpGte:
		r.Gte = &v
	case OpLt:
		r.Lt = &v
	case OpLte:
		r.Lte = &v
	}
}

func setTimeBound(r *TimeRange, op string, t time.Time) {
	switch op {
	case OpGt:
		r.Gt = &t
	case OpGte:
		r.Gte = &t
	case OpLt:
		r.Lt = &t
	case OpLte:
		r.Lte = &t
	}
}

func parseIn(raw any) FilterValue {
	items, ok := asSlice(raw)
	if !ok {
		return InvalidExpr{Operator: OpIn, Reason: fmt.Sprintf("expected array, got %T", raw)}
	}
	if len(items) == 0 {
		return InvalidExpr{Operator: OpIn, Reason: "empty array"}
	}
	values := make([]any, 0, len(items))
	for i, item := range items {
		s, ok := normalizeScalar(item)
		if !ok {
			return InvalidExpr{Operator: OpIn, Reason: fmt.Sprintf("element %d is not a scalar (%T)", i, item)}
		}
		values = append(values, s)
	}
	return InExpr{Values: values}
}

func asSlice(raw any) ([]any, bool) {
	switch x := raw.(type) {
	case []any:
		return x, true
	case []string:
		return toAnySlice(x), true
	case []int:
		return toAnySlice(x), true
	case []int64:
		return toAnySlice(x), true
	case []float64:
		return toAnySlice(x), true
	case []bool:
		return toAnySlice(x), true
	case []json.Number:
		return toAnySlice(x), true
	}
	return nil, false
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
