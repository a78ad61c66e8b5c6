package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mlhkhariom/streamgate/internal/port/driven"
	"github.com/mlhkhariom/streamgate/internal/storedfile"
	"github.com/mlhkhariom/streamgate/metrics"
)

// FileService provides use cases for the blob file index: ingesting bytes
// into the remote store, resolving index entries back to content, and
// searching the index.
type FileService struct {
	repo         driven.FileRepository
	blob         driven.BlobStore
	deleteRemote bool
	logger       *slog.Logger
	now          func() time.Time
}

// NewFileService creates a new FileService. deleteRemote controls whether
// removing an index entry also attempts to delete the remote object; remote
// deletion failures never block local removal.
func NewFileService(repo driven.FileRepository, blob driven.BlobStore, deleteRemote bool, logger *slog.Logger) *FileService {
	return &FileService{
		repo:         repo,
		blob:         blob,
		deleteRemote: deleteRemote,
		logger:       logger,
		now:          time.Now,
	}
}

// Ingest uploads the bytes to the remote store and, only after that
// succeeds, persists the index entry. Validation runs before the upload so
// rejected input never creates a remote object. A failed upload leaves the
// index untouched. A failed index write after a successful upload returns
// an error matching storedfile.ErrPersistFailed: the remote object exists
// but is unindexed.
func (s *FileService) Ingest(ctx context.Context, fileName, mimeType string, data []byte, metadata map[string]any) (storedfile.File, error) {
	if strings.TrimSpace(fileName) == "" {
		return storedfile.File{}, storedfile.ErrEmptyFileName
	}

	handle, err := s.blob.Upload(ctx, fileName, mimeType, data)
	if err != nil {
		metrics.RecordUploadError("remote")
		return storedfile.File{}, err
	}

	f, err := storedfile.NewFile(uuid.NewString(), handle, fileName, mimeType, int64(len(data)), metadata, s.now().UTC())
	if err != nil {
		metrics.RecordUploadError("persist")
		return storedfile.File{}, fmt.Errorf("%w: %v", storedfile.ErrPersistFailed, err)
	}

	if err := s.repo.Save(ctx, f); err != nil {
		metrics.RecordUploadError("persist")
		s.logger.Error("index write failed after successful remote upload",
			"file_name", fileName,
			"message_id", handle.MessageID,
			"error", err,
		)
		return storedfile.File{}, fmt.Errorf("%w: %v", storedfile.ErrPersistFailed, err)
	}

	metrics.RecordUpload()
	s.logger.Info("file ingested", "id", f.ID(), "file_name", fileName, "size", f.Size())

	return f, nil
}

// ListFiles retrieves all index entries, newest first.
func (s *FileService) ListFiles(ctx context.Context) ([]storedfile.File, error) {
	return s.repo.FindAll(ctx)
}

// SearchFiles retrieves index entries matching a case-insensitive substring
// query against file names and string-valued metadata, newest first.
func (s *FileService) SearchFiles(ctx context.Context, query string) ([]storedfile.File, error) {
	files, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]storedfile.File, 0, len(files))
	for _, f := range files {
		if f.Matches(query) {
			matched = append(matched, f)
		}
	}

	return matched, nil
}

// RemoveFile deletes the index entry and, when the remote-delete policy is
// enabled, attempts to delete the remote object as well. Remote deletion
// failure is logged and otherwise ignored: the local removal wins.
// Returns storedfile.ErrFileNotFound if no entry matches id.
func (s *FileService) RemoveFile(ctx context.Context, id string) error {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.deleteRemote {
		if err := s.blob.Delete(ctx, f.Handle()); err != nil {
			s.logger.Warn("remote delete failed, object retained in remote store",
				"id", id,
				"message_id", f.Handle().MessageID,
				"error", err,
			)
		}
	}

	return nil
}

// ResolveContent fetches the bytes for an index entry from the remote store.
// Returns storedfile.ErrFileNotFound if no entry matches id, or an error
// matching storedfile.ErrRemoteUnavailable if the remote flow fails.
func (s *FileService) ResolveContent(ctx context.Context, id string) ([]byte, storedfile.File, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storedfile.File{}, err
	}

	data, err := s.blob.FetchByHandle(ctx, f.Handle())
	if err != nil {
		metrics.RecordFetchError()
		return nil, storedfile.File{}, err
	}

	metrics.RecordFetch()
	return data, f, nil
}

// PublicURL returns the stable internally-routed URL for an index entry.
// Dereferencing it triggers ResolveContent, so internal references never
// embed the remote store's volatile path format. Pure and synchronous.
func (s *FileService) PublicURL(id string) string {
	return "/api/files/" + id
}
