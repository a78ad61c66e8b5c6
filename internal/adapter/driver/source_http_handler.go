package driver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mlhkhariom/streamgate/internal/application"
	"github.com/mlhkhariom/streamgate/internal/playersource"
)

// SourceHTTPHandler handles HTTP requests for player source management.
type SourceHTTPHandler struct {
	service *application.SourceService
}

// NewSourceHTTPHandler creates a new HTTP handler for player sources.
func NewSourceHTTPHandler(service *application.SourceService) *SourceHTTPHandler {
	return &SourceHTTPHandler{service: service}
}

// errorResponse represents a JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

// sourceRequest represents the JSON body for creating a player source.
type sourceRequest struct {
	Name                      string `json:"name"`
	URL                       string `json:"url"`
	Priority                  int    `json:"priority"`
	IsActive                  bool   `json:"isActive"`
	APIKey                    string `json:"apiKey"`
	SupportsMovies            bool   `json:"supportsMovies"`
	SupportsTVShows           bool   `json:"supportsTVShows"`
	SupportsIMDB              bool   `json:"supportsIMDB"`
	SupportsTMDB              bool   `json:"supportsTMDB"`
	AdFree                    bool   `json:"adFree"`
	Description               string `json:"description"`
	AvailabilityCheckURL      string `json:"availabilityCheckUrl"`
	SupportsAvailabilityCheck bool   `json:"supportsAvailabilityCheck"`
}

// sourcePatchRequest represents the JSON body for updating a player source.
// Absent fields are left unchanged.
type sourcePatchRequest struct {
	Name                      *string `json:"name"`
	URL                       *string `json:"url"`
	Priority                  *int    `json:"priority"`
	IsActive                  *bool   `json:"isActive"`
	APIKey                    *string `json:"apiKey"`
	SupportsMovies            *bool   `json:"supportsMovies"`
	SupportsTVShows           *bool   `json:"supportsTVShows"`
	SupportsIMDB              *bool   `json:"supportsIMDB"`
	SupportsTMDB              *bool   `json:"supportsTMDB"`
	AdFree                    *bool   `json:"adFree"`
	Description               *string `json:"description"`
	AvailabilityCheckURL      *string `json:"availabilityCheckUrl"`
	SupportsAvailabilityCheck *bool   `json:"supportsAvailabilityCheck"`
}

// sourceResponse represents a player source in JSON format.
type sourceResponse struct {
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

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// toSourceResponse converts a source domain object to an API response.
func toSourceResponse(s playersource.Source) sourceResponse {
	caps := s.Capabilities()
	opts := s.Options()
	return sourceResponse{
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

func toSourceResponses(sources []playersource.Source) []sourceResponse {
	out := make([]sourceResponse, len(sources))
	for i, s := range sources {
		out[i] = toSourceResponse(s)
	}
	return out
}

// isValidationError reports whether the error maps to a 400 response.
func isValidationError(err error) bool {
	return errors.Is(err, playersource.ErrEmptyName) ||
		errors.Is(err, playersource.ErrEmptyURLTemplate) ||
		errors.Is(err, playersource.ErrEmptyID)
}

// ServeHTTP routes the request to the appropriate handler based on method and
// path. Unknown paths get 404; known paths with an unsupported method get 405.
func (h *SourceHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sources")
	path = strings.TrimPrefix(path, "/")

	// POST /sources - create a new source
	// GET  /sources - list all sources by ascending priority
	if path == "" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	segments := strings.Split(path, "/")

	switch {
	// PUT    /sources/{id} - update a source
	// DELETE /sources/{id} - remove a source
	case len(segments) == 1:
		switch r.Method {
		case http.MethodPut:
			h.handleUpdate(w, r, segments[0])
		case http.MethodDelete:
			h.handleRemove(w, r, segments[0])
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}

	// POST /sources/{id}/active - toggle a source
	case len(segments) == 2 && segments[1] == "active":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleSetActive(w, r, segments[0])

	// POST /sources/{id}/reorder - move a source up or down
	case len(segments) == 2 && segments[1] == "reorder":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleReorder(w, r, segments[0])

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCreate handles POST /sources
func (h *SourceHTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	src, err := h.service.CreateSource(r.Context(), application.CreateSourceInput{
		Name:        req.Name,
		URLTemplate: req.URL,
		Priority:    req.Priority,
		Active:      req.IsActive,
		Capabilities: playersource.Capabilities{
			Movies:  req.SupportsMovies,
			TVShows: req.SupportsTVShows,
			IMDB:    req.SupportsIMDB,
			TMDB:    req.SupportsTMDB,
		},
		Options: playersource.Options{
			APIKey:                    req.APIKey,
			Description:               req.Description,
			AdFree:                    req.AdFree,
			AvailabilityCheckURL:      req.AvailabilityCheckURL,
			SupportsAvailabilityCheck: req.SupportsAvailabilityCheck,
		},
	})
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toSourceResponse(src))
}

// handleList handles GET /sources
func (h *SourceHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.ListSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSourceResponses(sources))
}

// handleUpdate handles PUT /sources/{id}
func (h *SourceHTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req sourcePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := application.SourcePatch{
		Name:                      req.Name,
		URLTemplate:               req.URL,
		Priority:                  req.Priority,
		Active:                    req.IsActive,
		APIKey:                    req.APIKey,
		Description:               req.Description,
		AdFree:                    req.AdFree,
		AvailabilityCheckURL:      req.AvailabilityCheckURL,
		SupportsAvailabilityCheck: req.SupportsAvailabilityCheck,
		SupportsMovies:            req.SupportsMovies,
		SupportsTVShows:           req.SupportsTVShows,
		SupportsIMDB:              req.SupportsIMDB,
		SupportsTMDB:              req.SupportsTMDB,
	}

	src, err := h.service.UpdateSource(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, playersource.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSourceResponse(src))
}

// handleRemove handles DELETE /sources/{id}
func (h *SourceHTTPHandler) handleRemove(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.RemoveSource(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSetActive handles POST /sources/{id}/active
func (h *SourceHTTPHandler) handleSetActive(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	src, err := h.service.SetActive(r.Context(), id, req.Active)
	if err != nil {
		if errors.Is(err, playersource.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSourceResponse(src))
}

// handleReorder handles POST /sources/{id}/reorder
func (h *SourceHTTPHandler) handleReorder(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dir := playersource.Direction(req.Direction)
	if !dir.Valid() {
		writeError(w, http.StatusBadRequest, "direction must be 'up' or 'down'")
		return
	}

	sources, err := h.service.ReorderSource(r.Context(), id, dir)
	if err != nil {
		if errors.Is(err, playersource.ErrSourceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSourceResponses(sources))
}

// ResolveHTTPHandler handles playback URL resolution requests.
type ResolveHTTPHandler struct {
	service *application.SourceService
}

// NewResolveHTTPHandler creates a new HTTP handler for playback resolution.
func NewResolveHTTPHandler(service *application.SourceService) *ResolveHTTPHandler {
	return &ResolveHTTPHandler{service: service}
}

// resolveResponse represents the JSON response for a resolved playback URL.
type resolveResponse struct {
	URL string `json:"url"`
}

// ServeHTTP handles GET /resolve?content_id=&type=&season=&episode=
func (h *ResolveHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	req := playersource.Request{
		ContentID:   q.Get("content_id"),
		ContentType: playersource.ContentType(q.Get("type")),
		Season:      q.Get("season"),
		Episode:     q.Get("episode"),
	}

	url, err := h.service.Resolve(r.Context(), req)
	if err != nil {
		if errors.Is(err, playersource.ErrEmptyContentID) || errors.Is(err, playersource.ErrInvalidContentType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, playersource.ErrNoActiveSource) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{URL: url})
}
