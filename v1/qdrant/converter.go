package qdrant

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// IDPayloadKey holds the caller's record id inside the Qdrant payload.
// Qdrant only accepts unsigned integers and UUIDs as point ids, so other ids
// are mapped to a name-based UUID and restored from this key on read.
const IDPayloadKey = "_id"

// pointNamespace seeds the name-based UUIDs derived from record ids.
var pointNamespace = uuid.MustParse("8f5b7c2e-4a61-4d0b-9a3e-2c7d1e6f0b94")

// ── Point IDs ────────────────────────────────────────────────────────────────

// pointUUID returns id unchanged when it already is a UUID, otherwise a
// deterministic SHA-1 UUID derived from it.
func pointUUID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func toPointID(id string) *qdrant.PointId {
	return qdrant.NewIDUUID(pointUUID(id))
}

// extractPointID extracts a string ID from Qdrant's PointId type.
func extractPointID(id *qdrant.PointId) (string, error) {
	if id == nil {
		return "", fmt.Errorf("nil point ID")
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10), nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	default:
		return "", fmt.Errorf("unexpected PointId type: %T", v)
	}
}

// recordID prefers the original id stored in the payload over the point id.
func recordID(id *qdrant.PointId, payload map[string]any) (string, error) {
	if original, ok := payload[IDPayloadKey].(string); ok && original != "" {
		return original, nil
	}
	return extractPointID(id)
}

// ── Filter Conversion ────────────────────────────────────────────────────────

// convertFilterSet converts a vectordb.FilterSet to a Qdrant filter.
// An empty or nil set returns nil, meaning "no filter".
func convertFilterSet(filters *vectordb.FilterSet) (*qdrant.Filter, error) {
	if filters.IsEmpty() {
		return nil, nil
	}

	filter := &qdrant.Filter{}
	var err error

	if filter.Must, err = convertConditionSet(filters.Must); err != nil {
		return nil, err
	}
	if filter.MustNot, err = convertConditionSet(filters.MustNot); err != nil {
		return nil, err
	}
	should, err := convertConditionSet(filters.Should)
	if err != nil {
		return nil, err
	}
	if filters.MinShould > 1 && len(should) > 0 {
		filter.MinShould = &qdrant.MinShould{
			Conditions: should,
			MinCount:   uint64(filters.MinShould),
		}
	} else {
		filter.Should = should
	}

	if len(filter.Must) == 0 && len(filter.Should) == 0 && len(filter.MustNot) == 0 && filter.MinShould == nil {
		return nil, nil
	}
	return filter, nil
}

// convertConditionSet converts a vectordb.ConditionSet to Qdrant conditions.
func convertConditionSet(cs *vectordb.ConditionSet) ([]*qdrant.Condition, error) {
	if cs.Len() == 0 {
		return nil, nil
	}

	conditions := make([]*qdrant.Condition, 0, cs.Len())
	for _, c := range cs.Conditions {
		cond, err := convertCondition(c)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			conditions = append(conditions, cond)
		}
	}
	return conditions, nil
}

// convertCondition converts a single vectordb.FilterCondition to a Qdrant condition.
func convertCondition(c vectordb.FilterCondition) (*qdrant.Condition, error) {
	switch cond := c.(type) {
	case *vectordb.MatchCondition:
		return convertMatchCondition(cond)
	case *vectordb.NumericRangeCondition:
		return convertNumericRangeCondition(cond), nil
	case *vectordb.TimeRangeCondition:
		return convertTimeRangeCondition(cond), nil
	case *vectordb.ExistsCondition:
		return convertExistsCondition(cond), nil
	case *vectordb.NestedCondition:
		nested, err := convertFilterSet(cond.Filter)
		if err != nil || nested == nil {
			return nil, err
		}
		return nestedCondition(nested), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unsupported condition type %T", vectordb.ErrInvalidFilter, c)
	}
}

func convertMatchCondition(c *vectordb.MatchCondition) (*qdrant.Condition, error) {
	switch v := c.Value.(type) {
	case string:
		return qdrant.NewMatch(c.Field, v), nil
	case bool:
		return qdrant.NewMatchBool(c.Field, v), nil
	case int64:
		return qdrant.NewMatchInt(c.Field, v), nil
	case int:
		return qdrant.NewMatchInt(c.Field, int64(v)), nil
	case float64:
		return qdrant.NewMatchInt(c.Field, int64(v)), nil
	default:
		return nil, &vectordb.FilterError{
			Field:    c.Field,
			Operator: "equalTo",
			Err:      fmt.Errorf("%w: unsupported match value %T", vectordb.ErrInvalidFilter, c.Value),
		}
	}
}

func convertNumericRangeCondition(c *vectordb.NumericRangeCondition) *qdrant.Condition {
	r := &qdrant.Range{
		Gt:  c.Range.Gt,
		Gte: c.Range.Gte,
		Lt:  c.Range.Lt,
		Lte: c.Range.Lte,
	}
	if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
		return nil
	}
	return qdrant.NewRange(c.Field, r)
}

func convertTimeRangeCondition(c *vectordb.TimeRangeCondition) *qdrant.Condition {
	r := &qdrant.DatetimeRange{
		Gt:  toTimestamp(c.Range.Gt),
		Gte: toTimestamp(c.Range.Gte),
		Lt:  toTimestamp(c.Range.Lt),
		Lte: toTimestamp(c.Range.Lte),
	}
	if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
		return nil
	}
	return qdrant.NewDatetimeRange(c.Field, r)
}

// convertExistsCondition maps presence onto IsEmpty, which in Qdrant covers
// missing keys, null and empty arrays.
func convertExistsCondition(c *vectordb.ExistsCondition) *qdrant.Condition {
	if !c.Exists {
		return qdrant.NewIsEmpty(c.Field)
	}
	return nestedCondition(&qdrant.Filter{
		MustNot: []*qdrant.Condition{qdrant.NewIsEmpty(c.Field)},
	})
}

func nestedCondition(f *qdrant.Filter) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Filter{Filter: f},
	}
}

func toTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

// ── Distance Conversion ──────────────────────────────────────────────────────

func toQdrantDistance(d vectordb.DistanceMetric) (qdrant.Distance, error) {
	metric, err := vectordb.ParseDistanceMetric(string(d))
	if err != nil {
		return qdrant.Distance_UnknownDistance, err
	}
	switch metric {
	case vectordb.Euclidean:
		return qdrant.Distance_Euclid, nil
	case vectordb.DotProduct:
		return qdrant.Distance_Dot, nil
	case vectordb.Manhattan:
		return qdrant.Distance_Manhattan, nil
	default:
		return qdrant.Distance_Cosine, nil
	}
}

func fromQdrantDistance(d qdrant.Distance) vectordb.DistanceMetric {
	switch d {
	case qdrant.Distance_Euclid:
		return vectordb.Euclidean
	case qdrant.Distance_Dot:
		return vectordb.DotProduct
	case qdrant.Distance_Manhattan:
		return vectordb.Manhattan
	case qdrant.Distance_Cosine:
		return vectordb.Cosine
	default:
		return vectordb.DistanceMetric(d.String())
	}
}

// ── Payload Conversion ───────────────────────────────────────────────────────

// buildPayload converts a record payload to Qdrant values and stores the
// original id under IDPayloadKey.
func buildPayload(id string, payload map[string]any) (map[string]*qdrant.Value, error) {
	out := make(map[string]*qdrant.Value, len(payload)+1)
	for k, v := range payload {
		if k == IDPayloadKey {
			continue
		}
		value, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("payload field %q: %w", k, err)
		}
		out[k] = value
	}
	out[IDPayloadKey] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: id}}
	return out, nil
}

// toValue converts a Go value to a Qdrant payload value. Times are stored as
// RFC3339 strings so datetime range filters can match them.
func toValue(v any) (*qdrant.Value, error) {
	switch val := v.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}, nil
	case *qdrant.Value:
		return val, nil
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}, nil
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}, nil
	case time.Time:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val.UTC().Format(time.RFC3339Nano)}}, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: i}}, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", val)
		}
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: f}}, nil
	case float32:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(val)}}, nil
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: rv.Int()}}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", u)
		}
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(u)}}, nil
	case reflect.Slice, reflect.Array:
		values := make([]*qdrant.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := toValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			values[i] = item
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		fields := make(map[string]*qdrant.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := toValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			fields[iter.Key().String()] = item
		}
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: fields}}}, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return toValue(nil)
		}
		return toValue(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("unsupported payload type %T", v)
}

// convertPayload converts Qdrant's protobuf payload to a generic map.
func convertPayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		result[k] = extractValue(v)
	}
	return result
}

// extractValue recursively converts a Qdrant Value to a Go native type.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_StructValue:
		if val.StructValue == nil {
			return nil
		}
		return convertPayload(val.StructValue.Fields)
	case *qdrant.Value_ListValue:
		if val.ListValue == nil {
			return nil
		}
		items := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			items[i] = extractValue(item)
		}
		return items
	default:
		return nil
	}
}

// ── Result Conversion ────────────────────────────────────────────────────────

// toRecord converts a retrieved point, stripping the stored id key.
func toRecord(id *qdrant.PointId, payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) (vectordb.Record, error) {
	fields := convertPayload(payload)
	rid, err := recordID(id, fields)
	if err != nil {
		return vectordb.Record{}, err
	}
	delete(fields, IDPayloadKey)
	if len(fields) == 0 {
		fields = nil
	}

	rec := vectordb.Record{ID: rid, Payload: fields}
	if data := vectors.GetVector().GetData(); len(data) > 0 {
		rec.Vector = append([]float32(nil), data...)
	}
	return rec, nil
}

// parseSearchResults converts Qdrant scored points to vectordb.SearchResult values.
func parseSearchResults(points []*qdrant.ScoredPoint) ([]vectordb.SearchResult, error) {
	results := make([]vectordb.SearchResult, 0, len(points))
	for _, p := range points {
		rec, err := toRecord(p.GetId(), p.GetPayload(), p.GetVectors())
		if err != nil {
			return nil, err
		}
		results = append(results, vectordb.SearchResult{Record: rec, Score: p.GetScore()})
	}
	return results, nil
}
