package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Aleph-Alpha/vecschema/v1/logger"
	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

const (
	// DefaultProbeDimension is used for scratch collections when an interaction names no dimension
	DefaultProbeDimension = 128

	defaultProbeLimit = 5
	probePrefix       = "_vecschema_probe_"
)

// ContractValidator checks a consumer contract before a migration mutates anything.
type ContractValidator interface {
	Validate(ctx context.Context, contract Contract) error
}

// NopValidator accepts every contract.
type NopValidator struct{}

func (NopValidator) Validate(context.Context, Contract) error { return nil }

// ValidatorFunc adapts a function to ContractValidator.
type ValidatorFunc func(ctx context.Context, contract Contract) error

func (f ValidatorFunc) Validate(ctx context.Context, contract Contract) error {
	return f(ctx, contract)
}

// LiveValidator replays each interaction of a contract against a Store and
// compares the outcome class (success, not found, error) with the expected
// status. Probes do not change existing data: collections and records are
// created under scratch names and removed afterwards, and delete operations
// only check that their target exists.
//
// When an archive is set, the Pact document of every contract that passes is
// saved under the contract's ContractPath.
type LiveValidator struct {
	store          vectordb.Store
	archive        ContractArchive
	probeDimension int
	logger         logger.Logger
}

// NewLiveValidator returns a validator probing store.
func NewLiveValidator(store vectordb.Store) *LiveValidator {
	return &LiveValidator{
		store:          store,
		probeDimension: DefaultProbeDimension,
		logger:         logger.NewNop(),
	}
}

// WithArchive saves Pact documents of validated contracts to archive.
func (v *LiveValidator) WithArchive(archive ContractArchive) *LiveValidator {
	v.archive = archive
	return v
}

// WithProbeDimension sets the dimension of scratch collections.
func (v *LiveValidator) WithProbeDimension(dimension int) *LiveValidator {
	if dimension > 0 {
		v.probeDimension = dimension
	}
	return v
}

// WithLogger sets the logger for this validator and returns the validator for method chaining.
func (v *LiveValidator) WithLogger(l logger.Logger) *LiveValidator {
	if l != nil {
		v.logger = l
	}
	return v
}

// Validate replays every interaction in order and stops at the first
// mismatch, returned as a *MismatchError.
func (v *LiveValidator) Validate(ctx context.Context, contract Contract) error {
	for _, in := range contract.Interactions {
		actual, cause := v.simulate(ctx, in.Request)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !statusMatches(in.Response.Status, actual) {
			return &MismatchError{
				Consumer:    contract.Consumer,
				Interaction: in.Description,
				Expected:    in.Response.Status,
				Actual:      actual,
				Cause:       cause,
			}
		}
		v.logger.Debug("contract interaction verified", nil, map[string]interface{}{
			"consumer":    contract.Consumer,
			"interaction": in.Description,
			"operation":   string(in.Request.Operation),
			"status":      string(actual),
		})
	}

	if v.archive == nil || contract.ContractPath == "" {
		return nil
	}
	doc, err := PactDocument(contract)
	if err != nil {
		return err
	}
	if err := v.archive.Save(ctx, contract.ContractPath, doc); err != nil {
		return fmt.Errorf("failed to archive contract %s: %w", contract.ContractPath, err)
	}
	return nil
}

// statusMatches compares outcome classes only: any expected failure,
// not-found included, accepts any failure the store reports.
func statusMatches(expected, actual ResponseStatus) bool {
	if expected == StatusSuccess {
		return actual == StatusSuccess
	}
	return actual != StatusSuccess
}

func classify(err error) ResponseStatus {
	switch {
	case err == nil:
		return StatusSuccess
	case vectordb.IsNotFound(err):
		return StatusNotFound
	default:
		return StatusError
	}
}

func (v *LiveValidator) simulate(ctx context.Context, req Request) (ResponseStatus, error) {
	var err error
	switch req.Operation {
	case OpCreateCollection:
		err = v.probeCreateCollection(ctx, req)
	case OpDeleteCollection:
		_, err = v.store.GetCollection(ctx, req.Collection)
	case OpListCollections:
		_, err = v.store.ListCollections(ctx)
	case OpGetVector:
		_, err = v.store.GetVector(ctx, req.Collection, stringParam(req.Parameters, "id"))
	case OpStoreVector:
		err = v.probeStoreVector(ctx, req)
	case OpSearchSimilar:
		err = v.probeSearch(ctx, req)
	case OpDeleteVector:
		_, err = v.store.GetCollection(ctx, req.Collection)
	default:
		err = fmt.Errorf("%w: unknown operation %q", ErrInvalidMigration, req.Operation)
	}
	return classify(err), err
}

// probeCreateCollection fails when the named collection exists, otherwise it
// creates and drops a scratch collection with the requested shape.
func (v *LiveValidator) probeCreateCollection(ctx context.Context, req Request) error {
	if req.Collection != "" {
		_, err := v.store.GetCollection(ctx, req.Collection)
		if err == nil {
			return fmt.Errorf("%w: %s", vectordb.ErrCollectionExists, req.Collection)
		}
		if !vectordb.IsNotFound(err) {
			return err
		}
	}

	cfg := vectordb.CollectionConfig{
		Name:      probeName(),
		Dimension: intParam(req.Parameters, "dimension", v.probeDimension),
		Distance:  vectordb.DistanceMetric(stringParam(req.Parameters, "distance")),
	}
	if cfg.Distance == "" {
		cfg.Distance = vectordb.Cosine
	}
	if err := v.store.CreateCollection(ctx, cfg); err != nil {
		return err
	}
	v.cleanup(ctx, "collection", cfg.Name, func(ctx context.Context) error {
		return v.store.DeleteCollection(ctx, cfg.Name)
	})
	return nil
}

// probeStoreVector writes a scratch record into the collection and deletes it again.
func (v *LiveValidator) probeStoreVector(ctx context.Context, req Request) error {
	info, err := v.store.GetCollection(ctx, req.Collection)
	if err != nil {
		return err
	}
	record := vectordb.Record{
		ID:      uuid.NewString(),
		Vector:  vectorParam(req.Parameters, "vector", info.VectorSize),
		Payload: mapParam(req.Parameters, "payload"),
	}
	if err := v.store.StoreVector(ctx, req.Collection, record); err != nil {
		return err
	}
	v.cleanup(ctx, "record", req.Collection+"/"+record.ID, func(ctx context.Context) error {
		return v.store.DeleteVector(ctx, req.Collection, record.ID)
	})
	return nil
}

// probeSearch runs a search with the interaction's vector, limit and filter expression.
func (v *LiveValidator) probeSearch(ctx context.Context, req Request) error {
	info, err := v.store.GetCollection(ctx, req.Collection)
	if err != nil {
		return err
	}
	params := vectordb.SearchParams{Limit: intParam(req.Parameters, "limit", defaultProbeLimit)}
	if expr := mapParam(req.Parameters, "filter"); expr != nil {
		filter, err := vectordb.CompileMap(expr)
		if err != nil {
			return err
		}
		params.Filter = filter
	}
	_, err = v.store.Search(ctx, req.Collection, vectorParam(req.Parameters, "vector", info.VectorSize), params)
	return err
}

func (v *LiveValidator) cleanup(ctx context.Context, kind, name string, fn func(context.Context) error) {
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		v.logger.Warn("failed to remove contract probe", err, map[string]interface{}{
			"kind": kind,
			"name": name,
		})
	}
}

func probeName() string {
	return probePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func stringParam(params map[string]any, key string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return ""
}

func intParam(params map[string]any, key string, def int) int {
	if f, ok := number(params[key]); ok {
		return int(f)
	}
	return def
}

func mapParam(params map[string]any, key string) map[string]any {
	if m, ok := params[key].(map[string]any); ok {
		return m
	}
	return nil
}

// vectorParam returns the numeric array under key, or a vector of ones.
func vectorParam(params map[string]any, key string, dimension int) []float32 {
	if raw, ok := params[key].([]any); ok {
		out := make([]float32, 0, len(raw))
		for _, e := range raw {
			f, ok := number(e)
			if !ok {
				break
			}
			out = append(out, float32(f))
		}
		if len(out) == len(raw) {
			return out
		}
	}
	if raw, ok := params[key].([]float32); ok {
		return raw
	}
	out := make([]float32, dimension)
	for i := range out {
		out[i] = 1
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
