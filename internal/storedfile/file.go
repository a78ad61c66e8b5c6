package storedfile

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyID           = errors.New("file id cannot be empty")
	ErrEmptyFileName     = errors.New("file name cannot be empty")
	ErrEmptyHandle       = errors.New("remote handle cannot be empty")
	ErrNegativeSize      = errors.New("file size cannot be negative")
	ErrFileNotFound      = errors.New("file not found")
	ErrFileExists        = errors.New("file already exists")
	ErrUploadFailed      = errors.New("remote upload failed")
	ErrPersistFailed     = errors.New("file index write failed after remote upload")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrUnconfigured      = errors.New("remote store credentials not configured")
)

// RemoteHandle identifies an object in the remote blob store. FileID is the
// retrieval key; MessageID is the envelope the store wrapped the upload in,
// needed only for remote deletion. The handle is assigned exactly once, at
// successful ingestion, and never changes.
type RemoteHandle struct {
	FileID    string
	MessageID int64
}

// IsZero reports whether the handle has not been assigned.
func (h RemoteHandle) IsZero() bool {
	return h.FileID == ""
}

// File represents an entry in the blob file index: a local identifier bound
// to a remote handle plus descriptive metadata. It is an immutable value
// object; metadata is defensively copied on construction and access.
type File struct {
	id         string
	handle     RemoteHandle
	fileName   string
	mimeType   string
	size       int64
	metadata   map[string]any
	uploadDate time.Time
}

// NewFile creates a new File with validation.
func NewFile(id string, handle RemoteHandle, fileName, mimeType string, size int64, metadata map[string]any, uploadDate time.Time) (File, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return File{}, ErrEmptyID
	}
	if handle.IsZero() {
		return File{}, ErrEmptyHandle
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return File{}, ErrEmptyFileName
	}
	if size < 0 {
		return File{}, ErrNegativeSize
	}

	return File{
		id:         id,
		handle:     handle,
		fileName:   fileName,
		mimeType:   mimeType,
		size:       size,
		metadata:   copyMetadata(metadata),
		uploadDate: uploadDate,
	}, nil
}

// ReconstructFile rebuilds a File from persisted state.
// Intended for repository adapters only, bypassing validation.
func ReconstructFile(id string, handle RemoteHandle, fileName, mimeType string, size int64, metadata map[string]any, uploadDate time.Time) File {
	return File{
		id:         id,
		handle:     handle,
		fileName:   fileName,
		mimeType:   mimeType,
		size:       size,
		metadata:   copyMetadata(metadata),
		uploadDate: uploadDate,
	}
}

// ID returns the file's internal index identifier.
func (f File) ID() string {
	return f.id
}

// Handle returns the remote handle assigned at ingestion.
func (f File) Handle() RemoteHandle {
	return f.handle
}

// FileName returns the original file name.
func (f File) FileName() string {
	return f.fileName
}

// MimeType returns the file's MIME type.
func (f File) MimeType() string {
	return f.mimeType
}

// Size returns the file's size in bytes.
func (f File) Size() int64 {
	return f.size
}

// Metadata returns a copy of the file's open key-value metadata.
func (f File) Metadata() map[string]any {
	return copyMetadata(f.metadata)
}

// UploadDate returns the ingestion timestamp.
func (f File) UploadDate() time.Time {
	return f.uploadDate
}

// Matches reports whether the file matches a case-insensitive substring
// query against its name or any string-valued metadata field. An empty
// query matches everything.
func (f File) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(f.fileName), query) {
		return true
	}
	for _, v := range f.metadata {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
