package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mlhkhariom/streamgate/internal/application"
	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

// maxUploadBytes bounds the multipart memory buffer for uploads (50 MB,
// matching the Bot API's document limit).
const maxUploadBytes = 50 << 20

// FileHTTPHandler handles HTTP requests for the blob file index.
type FileHTTPHandler struct {
	service *application.FileService
}

// NewFileHTTPHandler creates a new HTTP handler for stored files.
func NewFileHTTPHandler(service *application.FileService) *FileHTTPHandler {
	return &FileHTTPHandler{service: service}
}

// fileResponse represents a stored file in JSON format.
type fileResponse struct {
	ID         string         `json:"id"`
	URL        string         `json:"url"`
	FileName   string         `json:"fileName"`
	MimeType   string         `json:"mimeType"`
	Size       int64          `json:"size"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UploadDate string         `json:"uploadDate"`
}

// uploadResponse represents the JSON response for a successful upload.
type uploadResponse struct {
	File fileResponse `json:"file"`
}

// searchResponse represents the JSON response for a file search.
type searchResponse struct {
	Success bool           `json:"success"`
	Files   []fileResponse `json:"files"`
}

func (h *FileHTTPHandler) toFileResponse(f storedfile.File) fileResponse {
	return fileResponse{
		ID:         f.ID(),
		URL:        h.service.PublicURL(f.ID()),
		FileName:   f.FileName(),
		MimeType:   f.MimeType(),
		Size:       f.Size(),
		Metadata:   f.Metadata(),
		UploadDate: f.UploadDate().Format(time.RFC3339),
	}
}

func (h *FileHTTPHandler) toFileResponses(files []storedfile.File) []fileResponse {
	out := make([]fileResponse, len(files))
	for i, f := range files {
		out[i] = h.toFileResponse(f)
	}
	return out
}

// blobErrorStatus maps remote-store and index errors to HTTP status codes.
func blobErrorStatus(err error) int {
	switch {
	case errors.Is(err, storedfile.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, storedfile.ErrUnconfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, storedfile.ErrUploadFailed), errors.Is(err, storedfile.ErrRemoteUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ServeHTTP routes the request to the appropriate handler based on method and path.
func (h *FileHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/files")
	path = strings.TrimPrefix(path, "/")

	// POST /files - ingest a new file
	if r.Method == http.MethodPost && path == "" {
		h.handleUpload(w, r)
		return
	}

	// GET /files - list all files, newest first
	if r.Method == http.MethodGet && path == "" {
		h.handleList(w, r)
		return
	}

	// GET /files/search?query=... - search files
	if r.Method == http.MethodGet && path == "search" {
		h.handleSearch(w, r)
		return
	}

	// GET /files/{id} - serve file content
	if r.Method == http.MethodGet && path != "" {
		h.handleContent(w, r, path)
		return
	}

	// DELETE /files/{id} - remove a file
	if r.Method == http.MethodDelete && path != "" {
		h.handleRemove(w, r, path)
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// handleUpload handles POST /files
func (h *FileHTTPHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	var metadata map[string]any
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			writeError(w, http.StatusBadRequest, "invalid metadata JSON")
			return
		}
	}

	mimeType := header.Header.Get("Content-Type")

	f, err := h.service.Ingest(r.Context(), header.Filename, mimeType, data, metadata)
	if err != nil {
		if errors.Is(err, storedfile.ErrEmptyFileName) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, blobErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{File: h.toFileResponse(f)})
}

// handleList handles GET /files
func (h *FileHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListFiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, h.toFileResponses(files))
}

// handleSearch handles GET /files/search?query=...
func (h *FileHTTPHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.SearchFiles(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Success: true, Files: h.toFileResponses(files)})
}

// handleContent handles GET /files/{id}
func (h *FileHTTPHandler) handleContent(w http.ResponseWriter, r *http.Request, id string) {
	data, f, err := h.service.ResolveContent(r.Context(), id)
	if err != nil {
		writeError(w, blobErrorStatus(err), err.Error())
		return
	}

	mimeType := f.MimeType()
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.FileName()))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRemove handles DELETE /files/{id}
func (h *FileHTTPHandler) handleRemove(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.RemoveFile(r.Context(), id); err != nil {
		if errors.Is(err, storedfile.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
