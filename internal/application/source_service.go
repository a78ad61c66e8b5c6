package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/mlhkhariom/streamgate/internal/playersource"
	"github.com/mlhkhariom/streamgate/internal/port/driven"
	"github.com/mlhkhariom/streamgate/metrics"
)

// SourceService provides use cases for player source management and playback
// URL resolution. Every mutation loads the full collection, applies a pure
// transformation, and persists the resulting snapshot.
type SourceService struct {
	repo driven.PlayerSourceRepository
}

// NewSourceService creates a new SourceService with the given repository.
func NewSourceService(repo driven.PlayerSourceRepository) *SourceService {
	return &SourceService{repo: repo}
}

// CreateSourceInput carries the fields for creating a player source.
// Priority zero means "append after the current lowest-priority source".
type CreateSourceInput struct {
	Name         string
	URLTemplate  string
	Priority     int
	Active       bool
	Capabilities playersource.Capabilities
	Options      playersource.Options
}

// SourcePatch carries partial updates for a player source. Nil fields are
// left unchanged. An explicit Priority is applied as-is; Reorder is the
// sanctioned path for changing order, so no collision resolution happens
// here.
type SourcePatch struct {
	Name                      *string
	URLTemplate               *string
	Priority                  *int
	Active                    *bool
	APIKey                    *string
	Description               *string
	AdFree                    *bool
	AvailabilityCheckURL      *string
	SupportsAvailabilityCheck *bool
	SupportsMovies            *bool
	SupportsTVShows           *bool
	SupportsIMDB              *bool
	SupportsTMDB              *bool
}

// CreateSource creates a new player source with a generated id. When no
// priority is supplied it is appended after the current lowest-priority
// source (an empty collection yields priority 1).
// Returns playersource.ErrEmptyName or playersource.ErrEmptyURLTemplate if
// a required field is missing.
func (s *SourceService) CreateSource(ctx context.Context, input CreateSourceInput) (playersource.Source, error) {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return playersource.Source{}, err
	}

	priority := input.Priority
	if priority <= 0 {
		priority = playersource.NextPriority(sources)
	}

	src, err := playersource.NewSource(uuid.NewString(), input.Name, input.URLTemplate, priority, input.Active, input.Capabilities, input.Options)
	if err != nil {
		return playersource.Source{}, err
	}

	sources = append(sources, src)
	if err := s.repo.ReplaceAll(ctx, sources); err != nil {
		return playersource.Source{}, err
	}

	metrics.SetSourcesConfigured(len(sources))

	return src, nil
}

// UpdateSource replaces the source matching id with its fields merged from
// the patch. Returns playersource.ErrSourceNotFound if no source has that
// id, or a validation error if the merged source is invalid.
func (s *SourceService) UpdateSource(ctx context.Context, id string, patch SourcePatch) (playersource.Source, error) {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return playersource.Source{}, err
	}

	idx := indexByID(sources, id)
	if idx == -1 {
		return playersource.Source{}, playersource.ErrSourceNotFound
	}

	current := sources[idx]

	name := current.Name()
	if patch.Name != nil {
		name = *patch.Name
	}
	urlTemplate := current.URLTemplate()
	if patch.URLTemplate != nil {
		urlTemplate = *patch.URLTemplate
	}
	priority := current.Priority()
	if patch.Priority != nil {
		priority = *patch.Priority
	}
	active := current.IsActive()
	if patch.Active != nil {
		active = *patch.Active
	}

	caps := current.Capabilities()
	if patch.SupportsMovies != nil {
		caps.Movies = *patch.SupportsMovies
	}
	if patch.SupportsTVShows != nil {
		caps.TVShows = *patch.SupportsTVShows
	}
	if patch.SupportsIMDB != nil {
		caps.IMDB = *patch.SupportsIMDB
	}
	if patch.SupportsTMDB != nil {
		caps.TMDB = *patch.SupportsTMDB
	}

	opts := current.Options()
	if patch.APIKey != nil {
		opts.APIKey = *patch.APIKey
	}
	if patch.Description != nil {
		opts.Description = *patch.Description
	}
	if patch.AdFree != nil {
		opts.AdFree = *patch.AdFree
	}
	if patch.AvailabilityCheckURL != nil {
		opts.AvailabilityCheckURL = *patch.AvailabilityCheckURL
	}
	if patch.SupportsAvailabilityCheck != nil {
		opts.SupportsAvailabilityCheck = *patch.SupportsAvailabilityCheck
	}

	updated, err := playersource.NewSource(current.ID(), name, urlTemplate, priority, active, caps, opts)
	if err != nil {
		return playersource.Source{}, err
	}

	sources[idx] = updated
	if err := s.repo.ReplaceAll(ctx, sources); err != nil {
		return playersource.Source{}, err
	}

	return updated, nil
}

// RemoveSource deletes the source matching id. Remaining priorities are not
// renumbered; only Reorder normalizes. Removing an unknown id is a no-op.
func (s *SourceService) RemoveSource(ctx context.Context, id string) error {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}

	idx := indexByID(sources, id)
	if idx == -1 {
		return nil
	}

	sources = append(sources[:idx], sources[idx+1:]...)
	if err := s.repo.ReplaceAll(ctx, sources); err != nil {
		return err
	}

	metrics.SetSourcesConfigured(len(sources))

	return nil
}

// SetActive flips the active flag of the source matching id.
// Returns playersource.ErrSourceNotFound if no source has that id.
func (s *SourceService) SetActive(ctx context.Context, id string, active bool) (playersource.Source, error) {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return playersource.Source{}, err
	}

	idx := indexByID(sources, id)
	if idx == -1 {
		return playersource.Source{}, playersource.ErrSourceNotFound
	}

	sources[idx] = sources[idx].WithActive(active)
	if err := s.repo.ReplaceAll(ctx, sources); err != nil {
		return playersource.Source{}, err
	}

	return sources[idx], nil
}

// ReorderSource moves the source matching id one position up or down and
// renumbers all priorities to a dense 1..N sequence. Moving past either end
// of the order is a no-op, not an error.
// Returns playersource.ErrSourceNotFound if no source has that id.
func (s *SourceService) ReorderSource(ctx context.Context, id string, dir playersource.Direction) ([]playersource.Source, error) {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	reordered, changed, err := playersource.Reorder(sources, id, dir)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.repo.ReplaceAll(ctx, reordered); err != nil {
			return nil, err
		}
	}

	return reordered, nil
}

// ListSources retrieves all sources ordered by ascending priority.
// It also refreshes the configured-sources gauge, so a startup call
// reports the persisted count before any mutation happens.
func (s *SourceService) ListSources(ctx context.Context) ([]playersource.Source, error) {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	metrics.SetSourcesConfigured(len(sources))

	return playersource.SortByPriority(sources), nil
}

// Resolve produces a playable URL for the request from the highest-priority
// eligible source. Returns playersource.ErrNoActiveSource if no active
// source covers the requested content type.
func (s *SourceService) Resolve(ctx context.Context, req playersource.Request) (string, error) {
	sources, err := s.repo.FindAll(ctx)
	if err != nil {
		return "", err
	}

	url, err := playersource.ResolveURL(sources, req)
	if err != nil {
		metrics.RecordResolution("miss")
		return "", err
	}

	metrics.RecordResolution("hit")
	return url, nil
}

func indexByID(sources []playersource.Source, id string) int {
	for i, s := range sources {
		if s.ID() == id {
			return i
		}
	}
	return -1
}
