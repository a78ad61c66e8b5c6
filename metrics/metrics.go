package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FileUploads counts successful ingestions into the blob index
	FileUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_file_uploads_total",
		Help: "Total number of files ingested into the blob index",
	})

	// FileUploadErrors counts failed ingestions by failure stage
	FileUploadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_file_upload_errors_total",
		Help: "Total number of failed file ingestions",
	}, []string{"stage"})

	// FileFetches counts content resolutions against the remote store
	FileFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_file_fetches_total",
		Help: "Total number of file content fetches from the remote store",
	})

	// FileFetchErrors counts failed content fetches
	FileFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_file_fetch_errors_total",
		Help: "Total number of failed file content fetches",
	})

	// SourceResolutions counts playback URL resolutions by outcome
	SourceResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_source_resolutions_total",
		Help: "Total number of playback URL resolutions",
	}, []string{"result"})

	// SourcesConfigured tracks the current number of configured player sources
	SourcesConfigured = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamgate_sources_configured",
		Help: "Number of configured player sources",
	})

	// BlobStoreBreakerState tracks the current state of the remote store circuit breaker
	// 0=closed, 1=open, 2=half-open
	BlobStoreBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamgate_blob_store_breaker_state",
		Help: "Current state of the remote store circuit breaker (0=closed, 1=open, 2=half-open)",
	})
)

// RecordUpload increments the successful ingestion counter
func RecordUpload() {
	FileUploads.Inc()
}

// RecordUploadError increments the failed ingestion counter for a stage
// ("remote" for the upload step, "persist" for the index write)
func RecordUploadError(stage string) {
	FileUploadErrors.WithLabelValues(stage).Inc()
}

// RecordFetch increments the content fetch counter
func RecordFetch() {
	FileFetches.Inc()
}

// RecordFetchError increments the failed content fetch counter
func RecordFetchError() {
	FileFetchErrors.Inc()
}

// RecordResolution increments the resolution counter for an outcome
// ("hit" or "miss")
func RecordResolution(result string) {
	SourceResolutions.WithLabelValues(result).Inc()
}

// SetSourcesConfigured sets the configured player source gauge
func SetSourcesConfigured(count int) {
	SourcesConfigured.Set(float64(count))
}

// SetBlobStoreBreakerState updates the circuit breaker state gauge
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func SetBlobStoreBreakerState(state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	BlobStoreBreakerState.Set(value)
}
