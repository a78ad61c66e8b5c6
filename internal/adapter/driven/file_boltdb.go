package driven

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

const (
	filesBucket = "stored_files"
)

// FileBoltDBRepository implements the FileRepository port using BoltDB.
type FileBoltDBRepository struct {
	db *bbolt.DB
}

// NewFileBoltDBRepository creates a new BoltDB-backed file index repository.
// It initializes the required bucket if it doesn't exist.
func NewFileBoltDBRepository(db *bbolt.DB) (*FileBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(filesBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &FileBoltDBRepository{db: db}, nil
}

// fileDTO is used for JSON serialization.
type fileDTO struct {
	ID         string         `json:"id"`
	FileID     string         `json:"fileId"`
	MessageID  int64          `json:"messageId"`
	FileName   string         `json:"fileName"`
	MimeType   string         `json:"mimeType"`
	Size       int64          `json:"size"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UploadDate string         `json:"uploadDate"`
}

func fileToDTO(f storedfile.File) fileDTO {
	return fileDTO{
		ID:         f.ID(),
		FileID:     f.Handle().FileID,
		MessageID:  f.Handle().MessageID,
		FileName:   f.FileName(),
		MimeType:   f.MimeType(),
		Size:       f.Size(),
		Metadata:   f.Metadata(),
		UploadDate: f.UploadDate().Format(time.RFC3339Nano),
	}
}

func dtoToFile(dto fileDTO) (storedfile.File, error) {
	uploadDate, err := time.Parse(time.RFC3339Nano, dto.UploadDate)
	if err != nil {
		return storedfile.File{}, err
	}

	handle := storedfile.RemoteHandle{
		FileID:    dto.FileID,
		MessageID: dto.MessageID,
	}

	return storedfile.ReconstructFile(dto.ID, handle, dto.FileName, dto.MimeType, dto.Size, dto.Metadata, uploadDate), nil
}

// Save persists a file index entry to BoltDB.
func (r *FileBoltDBRepository) Save(ctx context.Context, f storedfile.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(filesBucket))
		if bucket == nil {
			return errors.New("stored files bucket not found")
		}

		key := []byte(f.ID())

		if bucket.Get(key) != nil {
			return storedfile.ErrFileExists
		}

		data, err := json.Marshal(fileToDTO(f))
		if err != nil {
			return err
		}

		return bucket.Put(key, data)
	})
}

// FindByID retrieves a file index entry by its id from BoltDB.
func (r *FileBoltDBRepository) FindByID(ctx context.Context, id string) (storedfile.File, error) {
	if err := ctx.Err(); err != nil {
		return storedfile.File{}, err
	}

	var f storedfile.File

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(filesBucket))
		if bucket == nil {
			return errors.New("stored files bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storedfile.ErrFileNotFound
		}

		var dto fileDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return err
		}

		reconstructed, err := dtoToFile(dto)
		if err != nil {
			return err
		}

		f = reconstructed
		return nil
	})

	return f, err
}

// FindAll retrieves all file index entries from BoltDB, ordered by upload
// date descending.
func (r *FileBoltDBRepository) FindAll(ctx context.Context) ([]storedfile.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []storedfile.File

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(filesBucket))
		if bucket == nil {
			return errors.New("stored files bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var dto fileDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}

			f, err := dtoToFile(dto)
			if err != nil {
				return err
			}

			files = append(files, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].UploadDate().After(files[j].UploadDate())
	})

	if files == nil {
		files = []storedfile.File{}
	}

	return files, nil
}

// Delete removes a file index entry by its id from BoltDB.
func (r *FileBoltDBRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(filesBucket))
		if bucket == nil {
			return errors.New("stored files bucket not found")
		}

		key := []byte(id)

		if bucket.Get(key) == nil {
			return storedfile.ErrFileNotFound
		}

		return bucket.Delete(key)
	})
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *FileBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(filesBucket))
		if bucket == nil {
			return errors.New("stored files bucket not found")
		}
		return nil
	})
}
