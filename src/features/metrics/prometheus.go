package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-level counters exposed on /metrics. Library composition stats
// live in the catalog and are served as JSON by the stats handlers instead.
var (
	IndexingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fermata_indexing_runs_total",
		Help: "Indexing runs by outcome.",
	}, []string{"outcome"})

	IndexedTracks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fermata_indexed_tracks_total",
		Help: "Tracks classified during indexing runs, by result.",
	}, []string{"result"})

	StreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fermata_stream_requests_total",
		Help: "Stream requests by asset kind and response status.",
	}, []string{"kind", "status"})

	StreamedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fermata_streamed_bytes_total",
		Help: "Bytes delivered to streaming clients.",
	})

	PlaysRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fermata_plays_recorded_total",
		Help: "Play count increments recorded after full track delivery.",
	})
)
