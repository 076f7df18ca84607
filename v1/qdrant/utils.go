package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Aleph-Alpha/vecschema/v1/vectordb"
)

// extractVectorDetails safely extracts the vector size (embedding dimension)
// and distance metric from a Qdrant CollectionInfo object.
//
// Qdrant represents vector configuration data using a deeply nested protobuf
// structure with "oneof" wrappers. This helper navigates that hierarchy and
// returns (0, UnknownDistance) if any nested field is missing.
func extractVectorDetails(info *qdrant.CollectionInfo) (int, qdrant.Distance) {
	if info == nil ||
		info.Config == nil ||
		info.Config.Params == nil ||
		info.Config.Params.VectorsConfig == nil ||
		info.Config.Params.VectorsConfig.Config == nil {
		return 0, qdrant.Distance_UnknownDistance
	}

	if cfg, ok := info.Config.Params.VectorsConfig.Config.(*qdrant.VectorsConfig_Params); ok && cfg.Params != nil {
		return int(cfg.Params.Size), cfg.Params.Distance
	}

	return 0, qdrant.Distance_UnknownDistance
}

// derefUint64 safely dereferences a *uint64 pointer.
func derefUint64(v *uint64) uint64 {
	if v != nil {
		return *v
	}
	return 0
}

// classifyError maps a gRPC failure to the vectordb taxonomy. Context errors
// pass through unchanged so callers can test for cancellation.
func classifyError(action, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, vectordb.ErrCollectionNotFound) || errors.Is(err, vectordb.ErrCollectionExists) ||
		errors.Is(err, vectordb.ErrStorage) || errors.Is(err, vectordb.ErrVectorNotFound) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("[Qdrant] failed to %s '%s': %w", action, collection, err)
	}

	sentinel := vectordb.ErrStorage
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Canceled:
			return fmt.Errorf("[Qdrant] failed to %s '%s': %w: %v", action, collection, context.Canceled, err)
		case codes.DeadlineExceeded:
			return fmt.Errorf("[Qdrant] failed to %s '%s': %w: %v", action, collection, context.DeadlineExceeded, err)
		case codes.NotFound:
			sentinel = vectordb.ErrCollectionNotFound
		case codes.AlreadyExists:
			sentinel = vectordb.ErrCollectionExists
		case codes.InvalidArgument:
			if mentionsMissingCollection(st.Message()) {
				sentinel = vectordb.ErrCollectionNotFound
			} else if strings.Contains(st.Message(), "already exists") {
				sentinel = vectordb.ErrCollectionExists
			}
		}
	}
	return fmt.Errorf("[Qdrant] failed to %s '%s': %w: %w", action, collection, sentinel, err)
}

func mentionsMissingCollection(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "doesn't exist") || strings.Contains(msg, "not found")
}
