package application

import (
	"context"

	"github.com/mlhkhariom/streamgate/internal/port/driven"
)

// HealthService orchestrates health checks for the application and its dependencies.
type HealthService struct {
	sources driven.PlayerSourceRepository
	files   driven.FileRepository
	blob    driven.BlobStore
}

// NewHealthService creates a new health check service.
func NewHealthService(sources driven.PlayerSourceRepository, files driven.FileRepository, blob driven.BlobStore) *HealthService {
	return &HealthService{
		sources: sources,
		files:   files,
		blob:    blob,
	}
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status string // "ok" or "error"
	Error  string // empty if status is "ok", otherwise contains error message
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status    string          // "ok" if all components are healthy, "degraded" otherwise
	DB        ComponentHealth // source and file repository health
	BlobStore ComponentHealth // remote store reachability
}

// Check performs health checks on all dependencies.
// Returns the overall health status and individual component statuses.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status: "ok",
	}

	status.DB = ComponentHealth{Status: "ok"}
	if err := s.sources.Ping(ctx); err != nil {
		status.DB = ComponentHealth{Status: "error", Error: err.Error()}
		status.Status = "degraded"
	} else if err := s.files.Ping(ctx); err != nil {
		status.DB = ComponentHealth{Status: "error", Error: err.Error()}
		status.Status = "degraded"
	}

	if err := s.blob.Ping(ctx); err != nil {
		status.BlobStore = ComponentHealth{
			Status: "error",
			Error:  err.Error(),
		}
		status.Status = "degraded"
	} else {
		status.BlobStore = ComponentHealth{
			Status: "ok",
		}
	}

	return status
}
