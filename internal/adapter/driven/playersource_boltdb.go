package driven

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"

	"go.etcd.io/bbolt"

	"github.com/mlhkhariom/streamgate/internal/playersource"
)

const (
	sourcesBucket = "player_sources"
)

// PlayerSourceBoltDBRepository implements the PlayerSourceRepository port
// using BoltDB. The full collection is stored as one ordered snapshot:
// bucket keys are big-endian positions so iteration order equals the order
// of the last ReplaceAll, which the resolution tie-break depends on.
type PlayerSourceBoltDBRepository struct {
	db *bbolt.DB
}

// NewPlayerSourceBoltDBRepository creates a new BoltDB-backed player source
// repository. It initializes the required bucket if it doesn't exist.
func NewPlayerSourceBoltDBRepository(db *bbolt.DB) (*PlayerSourceBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sourcesBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PlayerSourceBoltDBRepository{db: db}, nil
}

// sourceDTO is used for JSON serialization. Field names follow the wire
// shape the admin UI consumes.
type sourceDTO struct {
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	URL                       string `json:"url"`
	Priority                  int    `json:"priority"`
	IsActive                  bool   `json:"isActive"`
	APIKey                    string `json:"apiKey,omitempty"`
	SupportsMovies            bool   `json:"supportsMovies"`
	SupportsTVShows           bool   `json:"supportsTVShows"`
	SupportsIMDB              bool   `json:"supportsIMDB"`
	SupportsTMDB              bool   `json:"supportsTMDB"`
	AdFree                    bool   `json:"adFree"`
	Description               string `json:"description,omitempty"`
	AvailabilityCheckURL      string `json:"availabilityCheckUrl,omitempty"`
	SupportsAvailabilityCheck bool   `json:"supportsAvailabilityCheck"`
}

func sourceToDTO(s playersource.Source) sourceDTO {
	caps := s.Capabilities()
	opts := s.Options()
	return sourceDTO{
		ID:                        s.ID(),
		Name:                      s.Name(),
		URL:                       s.URLTemplate(),
		Priority:                  s.Priority(),
		IsActive:                  s.IsActive(),
		APIKey:                    opts.APIKey,
		SupportsMovies:            caps.Movies,
		SupportsTVShows:           caps.TVShows,
		SupportsIMDB:              caps.IMDB,
		SupportsTMDB:              caps.TMDB,
		AdFree:                    opts.AdFree,
		Description:               opts.Description,
		AvailabilityCheckURL:      opts.AvailabilityCheckURL,
		SupportsAvailabilityCheck: opts.SupportsAvailabilityCheck,
	}
}

func dtoToSource(dto sourceDTO) playersource.Source {
	return playersource.ReconstructSource(
		dto.ID,
		dto.Name,
		dto.URL,
		dto.Priority,
		dto.IsActive,
		playersource.Capabilities{
			Movies:  dto.SupportsMovies,
			TVShows: dto.SupportsTVShows,
			IMDB:    dto.SupportsIMDB,
			TMDB:    dto.SupportsTMDB,
		},
		playersource.Options{
			APIKey:                    dto.APIKey,
			Description:               dto.Description,
			AdFree:                    dto.AdFree,
			AvailabilityCheckURL:      dto.AvailabilityCheckURL,
			SupportsAvailabilityCheck: dto.SupportsAvailabilityCheck,
		},
	)
}

// FindAll retrieves the full source collection in stored order.
func (r *PlayerSourceBoltDBRepository) FindAll(ctx context.Context) ([]playersource.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sources []playersource.Source

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sourcesBucket))
		if bucket == nil {
			return errors.New("player sources bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var dto sourceDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}
			sources = append(sources, dtoToSource(dto))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if sources == nil {
		sources = []playersource.Source{}
	}

	return sources, nil
}

// ReplaceAll atomically replaces the stored collection with the given
// snapshot, preserving slice order.
func (r *PlayerSourceBoltDBRepository) ReplaceAll(ctx context.Context, sources []playersource.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sourcesBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}

		bucket, err := tx.CreateBucket([]byte(sourcesBucket))
		if err != nil {
			return err
		}

		for i, s := range sources {
			data, err := json.Marshal(sourceToDTO(s))
			if err != nil {
				return err
			}

			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := bucket.Put(key, data); err != nil {
				return err
			}
		}

		return nil
	})
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *PlayerSourceBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sourcesBucket))
		if bucket == nil {
			return errors.New("player sources bucket not found")
		}
		return nil
	})
}
