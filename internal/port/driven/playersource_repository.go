package driven

import (
	"context"

	"github.com/mlhkhariom/streamgate/internal/playersource"
)

// PlayerSourceRepository defines the interface for player source persistence.
// The collection is mutated as a whole: callers load a snapshot, apply a pure
// transformation, and persist the result. This is a driven port implemented
// by concrete adapters (e.g., BoltDB).
type PlayerSourceRepository interface {
	// FindAll retrieves the full collection in stored order. Stored order is
	// the order of the last ReplaceAll call, which resolution tie-breaking
	// relies on.
	FindAll(ctx context.Context) ([]playersource.Source, error)

	// ReplaceAll atomically replaces the full collection with the given
	// snapshot, preserving slice order.
	ReplaceAll(ctx context.Context, sources []playersource.Source) error

	// Ping checks if the repository is accessible and operational.
	Ping(ctx context.Context) error
}
