package driven

import (
	"context"

	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

// BlobStore defines the interface for the remote object store that holds
// file content. The store's multi-step retrieval flow (handle to path, path
// to bytes) is hidden behind FetchByHandle so callers never see the remote
// API's path format. This is a driven port implemented by concrete adapters
// (e.g., a messaging-platform bot API client).
type BlobStore interface {
	// Upload pushes bytes to the remote store and returns the opaque handle
	// required to retrieve them later. Returns a storedfile.ErrUploadFailed
	// error on network or remote failure, or storedfile.ErrUnconfigured if
	// credentials are missing.
	Upload(ctx context.Context, fileName, mimeType string, data []byte) (storedfile.RemoteHandle, error)

	// FetchByHandle retrieves the bytes previously uploaded under the given
	// handle. Returns a storedfile.ErrRemoteUnavailable error on network or
	// remote failure.
	FetchByHandle(ctx context.Context, h storedfile.RemoteHandle) ([]byte, error)

	// Delete removes the remote object identified by the handle.
	Delete(ctx context.Context, h storedfile.RemoteHandle) error

	// Ping checks if the remote store is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
}
