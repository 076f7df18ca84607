package vectordb

import (
	"strings"
	"time"
)

// Matches evaluates the compiled query against a payload. Dotted field names
// address nested objects; list-valued fields match when any element does.
// A nil or empty FilterSet matches everything.
func (fs *FilterSet) Matches(payload map[string]any) bool {
	if fs == nil {
		return true
	}
	if fs.Must != nil {
		for _, c := range fs.Must.Conditions {
			if !conditionHolds(c, payload) {
				return false
			}
		}
	}
	if fs.MustNot != nil {
		for _, c := range fs.MustNot.Conditions {
			if conditionHolds(c, payload) {
				return false
			}
		}
	}
	if n := fs.Should.Len(); n > 0 {
		need := fs.MinShould
		if need < 1 {
			need = 1
		}
		held := 0
		for _, c := range fs.Should.Conditions {
			if conditionHolds(c, payload) {
				held++
			}
		}
		if held < need {
			return false
		}
	}
	return true
}

func conditionHolds(c FilterCondition, payload map[string]any) bool {
	switch cond := c.(type) {
	case *MatchCondition:
		v, ok := lookupField(payload, cond.Field)
		return ok && anyElement(v, func(x any) bool { return scalarEqual(x, cond.Value) })
	case *NumericRangeCondition:
		v, ok := lookupField(payload, cond.Field)
		return ok && anyElement(v, func(x any) bool {
			f, isNum := toFloat64(x)
			return isNum && inNumericRange(f, cond.Range)
		})
	case *TimeRangeCondition:
		v, ok := lookupField(payload, cond.Field)
		return ok && anyElement(v, func(x any) bool {
			t, isTime := toTime(x)
			return isTime && inTimeRange(t, cond.Range)
		})
	case *ExistsCondition:
		_, present := lookupField(payload, cond.Field)
		return present == cond.Exists
	case *NestedCondition:
		return cond.Filter.Matches(payload)
	}
	return false
}

// lookupField resolves a field, trying the literal key before dotted
// traversal. Absent, null and empty-list values report ok=false.
func lookupField(payload map[string]any, field string) (any, bool) {
	if v, ok := payload[field]; ok {
		return v, isPresent(v)
	}
	parts := strings.Split(field, ".")
	var cur any = payload
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, isPresent(cur)
}

func isPresent(v any) bool {
	if v == nil {
		return false
	}
	if items, ok := asSlice(v); ok && len(items) == 0 {
		return false
	}
	return true
}

func anyElement(v any, pred func(any) bool) bool {
	if items, ok := asSlice(v); ok {
		for _, item := range items {
			if pred(item) {
				return true
			}
		}
		return false
	}
	return pred(v)
}

func scalarEqual(payloadValue, want any) bool {
	switch w := want.(type) {
	case string:
		s, ok := payloadValue.(string)
		return ok && s == w
	case bool:
		b, ok := payloadValue.(bool)
		return ok && b == w
	case int64:
		f, ok := toFloat64(payloadValue)
		return ok && f == float64(w)
	case float64:
		f, ok := toFloat64(payloadValue)
		return ok && f == w
	}
	return false
}

func inNumericRange(v float64, r NumericRange) bool {
	if r.Gt != nil && !(v > *r.Gt) {
		return false
	}
	if r.Gte != nil && !(v >= *r.Gte) {
		return false
	}
	if r.Lt != nil && !(v < *r.Lt) {
		return false
	}
	if r.Lte != nil && !(v <= *r.Lte) {
		return false
	}
	return true
}

func inTimeRange(t time.Time, r TimeRange) bool {
	if r.Gt != nil && !t.After(*r.Gt) {
		return false
	}
	if r.Gte != nil && t.Before(*r.Gte) {
		return false
	}
	if r.Lt != nil && !t.Before(*r.Lt) {
		return false
	}
	if r.Lte != nil && t.After(*r.Lte) {
		return false
	}
	return true
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := time.Parse(time.RFC3339, x)
		return t, err == nil
	}
	return time.Time{}, false
}
