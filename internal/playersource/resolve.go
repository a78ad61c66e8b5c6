package playersource

import (
	"errors"
	"sort"
	"strings"
)

// ContentType identifies the kind of content a playback URL is requested for.
type ContentType string

// Supported content types.
const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv"
)

// ErrInvalidContentType is returned when a resolution request carries a
// content type other than "movie" or "tv".
var ErrInvalidContentType = errors.New("content type must be 'movie' or 'tv'")

// ErrEmptyContentID is returned when a resolution request carries no content id.
var ErrEmptyContentID = errors.New("content id cannot be empty")

// Request describes a single playback URL resolution.
// Season and Episode are only meaningful for TV content and substitute as
// empty strings when absent.
type Request struct {
	ContentID   string
	ContentType ContentType
	Season      string
	Episode     string
}

// Validate checks that the request is well formed.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ContentID) == "" {
		return ErrEmptyContentID
	}
	if r.ContentType != ContentTypeMovie && r.ContentType != ContentTypeTV {
		return ErrInvalidContentType
	}
	return nil
}

// eligible reports whether the source can serve the request: it must be
// active and its capability flags must cover the requested content type.
func eligible(s Source, ct ContentType) bool {
	if !s.IsActive() {
		return false
	}
	switch ct {
	case ContentTypeMovie:
		return s.Capabilities().Movies
	case ContentTypeTV:
		return s.Capabilities().TVShows
	default:
		return false
	}
}

// ResolveURL produces a playable URL for the request by substituting its
// parameters into the highest-priority eligible source's template.
//
// The sort is stable, so sources with equal priority (possible transiently
// after an explicit-priority update) keep their insertion order. Substitution
// is literal token replacement; tokens other than the five known ones are
// left verbatim. This is a pure function of its inputs.
//
// Returns ErrNoActiveSource if no active source covers the content type.
func ResolveURL(sources []Source, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	candidates := make([]Source, 0, len(sources))
	for _, s := range sources {
		if eligible(s, req.ContentType) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return "", ErrNoActiveSource
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority() < candidates[j].Priority()
	})
	best := candidates[0]

	replacer := strings.NewReplacer(
		"{id}", req.ContentID,
		"{type}", string(req.ContentType),
		"{season}", req.Season,
		"{episode}", req.Episode,
		"{api_key}", best.Options().APIKey,
	)

	return replacer.Replace(best.URLTemplate()), nil
}
