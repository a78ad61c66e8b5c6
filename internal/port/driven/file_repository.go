package driven

import (
	"context"

	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

// FileRepository defines the interface for blob file index persistence.
// This is a driven port implemented by concrete adapters (e.g., BoltDB).
type FileRepository interface {
	// Save persists a file index entry. Returns storedfile.ErrFileExists if
	// an entry with the same id already exists.
	Save(ctx context.Context, f storedfile.File) error

	// FindByID retrieves an entry by its id. Returns
	// storedfile.ErrFileNotFound if the entry does not exist.
	FindByID(ctx context.Context, id string) (storedfile.File, error)

	// FindAll retrieves all entries, ordered by upload date descending.
	FindAll(ctx context.Context) ([]storedfile.File, error)

	// Delete removes an entry by its id. Returns storedfile.ErrFileNotFound
	// if the entry does not exist.
	Delete(ctx context.Context, id string) error

	// Ping checks if the repository is accessible and operational.
	Ping(ctx context.Context) error
}
