package indexing

import (
	"fmt"

	"fermata/src/music"
)

// Phase identifies the stage of an indexing run a progress event belongs to.
// All scanning events precede all processing events, which precede all
// cleanup events, which precede the terminal complete event.
type Phase string

const (
	PhaseScanning   Phase = "scanning"
	PhaseProcessing Phase = "processing"
	PhaseCleanup    Phase = "cleanup"
)

// Event is one progress tick of an indexing run. Status is "progress" for
// intermediate ticks, "complete" for the terminal event carrying the full
// report, or "error" when the run failed before mutating the catalog.
type Event struct {
	Status      string `json:"status"`
	Type        Phase  `json:"type,omitempty"`
	Current     int    `json:"current,omitempty"`
	Total       int    `json:"total,omitempty"`
	CurrentFile string `json:"currentFile,omitempty"`
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`
	Unchanged   int    `json:"unchanged"`
	Message     string `json:"message,omitempty"`

	AddedTracks     []*music.Track `json:"addedTracks,omitempty"`
	RemovedTracks   []*music.Track `json:"removedTracks,omitempty"`
	UnchangedTracks []*music.Track `json:"unchangedTracks,omitempty"`
}

// Report is the transient result of one indexing run. The three sets are
// disjoint: every catalog track present before the run ends up in exactly
// one of Removed or Unchanged, and every Added track is new this run.
type Report struct {
	Added     []*music.Track `json:"added"`
	Removed   []*music.Track `json:"removed"`
	Unchanged []*music.Track `json:"unchanged"`
}

// Summary returns a human-readable one-line summary of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("Indexing finished: %d added, %d removed, %d unchanged.",
		len(r.Added), len(r.Removed), len(r.Unchanged))
}

// completeEvent builds the terminal event for a finished run.
func completeEvent(report *Report) Event {
	return Event{
		Status:          "complete",
		Added:           len(report.Added),
		Removed:         len(report.Removed),
		Unchanged:       len(report.Unchanged),
		Message:         report.Summary(),
		AddedTracks:     report.Added,
		RemovedTracks:   report.Removed,
		UnchangedTracks: report.Unchanged,
	}
}
