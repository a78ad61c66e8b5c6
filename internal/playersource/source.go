package playersource

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrEmptyID          = errors.New("source id cannot be empty")
	ErrEmptyName        = errors.New("source name cannot be empty")
	ErrEmptyURLTemplate = errors.New("source url template cannot be empty")
	ErrSourceNotFound   = errors.New("source not found")
	ErrNoActiveSource   = errors.New("no active source matches the request")
)

// Capabilities describes which kinds of content lookups a source can serve.
type Capabilities struct {
	Movies  bool
	TVShows bool
	IMDB    bool
	TMDB    bool
}

// Options carries the descriptive and behavioral fields of a source that are
// not required for resolution.
type Options struct {
	APIKey                    string
	Description               string
	AdFree                    bool
	AvailabilityCheckURL      string
	SupportsAvailabilityCheck bool
}

// Source represents a configured external stream provider: a URL template
// with placeholder tokens, a position in the resolution order, and
// capability flags. It is an immutable value object.
type Source struct {
	id           string
	name         string
	urlTemplate  string
	priority     int
	active       bool
	capabilities Capabilities
	options      Options
}

// NewSource creates a new Source with validation.
// Returns ErrEmptyID, ErrEmptyName or ErrEmptyURLTemplate if a required
// field is empty or contains only whitespace.
func NewSource(id, name, urlTemplate string, priority int, active bool, caps Capabilities, opts Options) (Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Source{}, ErrEmptyID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Source{}, ErrEmptyName
	}

	urlTemplate = strings.TrimSpace(urlTemplate)
	if urlTemplate == "" {
		return Source{}, ErrEmptyURLTemplate
	}

	return Source{
		id:           id,
		name:         name,
		urlTemplate:  urlTemplate,
		priority:     priority,
		active:       active,
		capabilities: caps,
		options:      opts,
	}, nil
}

// ReconstructSource rebuilds a Source from persisted state.
// Intended for repository adapters only, bypassing validation.
func ReconstructSource(id, name, urlTemplate string, priority int, active bool, caps Capabilities, opts Options) Source {
	return Source{
		id:           id,
		name:         name,
		urlTemplate:  urlTemplate,
		priority:     priority,
		active:       active,
		capabilities: caps,
		options:      opts,
	}
}

// ID returns the source's stable identifier.
func (s Source) ID() string {
	return s.id
}

// Name returns the source's display label.
func (s Source) Name() string {
	return s.name
}

// URLTemplate returns the source's URL template with placeholder tokens.
func (s Source) URLTemplate() string {
	return s.urlTemplate
}

// Priority returns the source's position in the resolution order.
// Lower values are tried first.
func (s Source) Priority() int {
	return s.priority
}

// IsActive returns whether the source participates in resolution.
func (s Source) IsActive() bool {
	return s.active
}

// Capabilities returns the source's capability flags.
func (s Source) Capabilities() Capabilities {
	return s.capabilities
}

// Options returns the source's descriptive and behavioral options.
func (s Source) Options() Options {
	return s.options
}

// WithPriority returns a copy of the source with the given priority.
func (s Source) WithPriority(priority int) Source {
	s.priority = priority
	return s
}

// WithActive returns a copy of the source with the active flag set.
func (s Source) WithActive(active bool) Source {
	s.active = active
	return s
}
