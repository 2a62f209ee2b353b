package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fermata/src/music"
	"github.com/google/uuid"
)

// coverArtNames are the folder image filenames recognized as album covers,
// checked in order.
var coverArtNames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"front.jpg", "front.jpeg", "front.png",
}

// Engine reconciles the media root against the catalog. One run classifies
// every supported file as added, removed or unchanged, mutating the catalog
// one row at a time so a crash mid-run leaves it consistent. Identity is
// path-only: a file whose path is already cataloged is unchanged regardless
// of content, so tag edits on disk are not picked up by re-indexing.
type Engine struct {
	catalog   music.Catalog
	extractor Extractor
	scanner   *Scanner
}

// NewEngine creates a new indexing engine.
func NewEngine(catalog music.Catalog, extractor Extractor, scanner *Scanner) *Engine {
	return &Engine{
		catalog:   catalog,
		extractor: extractor,
		scanner:   scanner,
	}
}

// Run performs one full reconciliation pass between root and the catalog.
// Progress events are sent to events strictly in phase order (scanning,
// processing, cleanup, then the terminal complete event). The channel is
// left open for the caller to close. An unreadable root fails the run
// before any catalog mutation; per-file errors are logged and skipped.
// The caller must ensure at most one run is active at a time.
func (e *Engine) Run(ctx context.Context, root string, events chan<- Event) (*Report, error) {
	logger := slog.With("root", root)
	logger.Info("Engine.Run: starting indexing run")

	candidates, err := e.scanner.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("media root scan failed: %w", err)
	}
	events <- Event{
		Status:  "progress",
		Type:    PhaseScanning,
		Current: len(candidates),
		Total:   len(candidates),
		Message: fmt.Sprintf("Found %d candidate files", len(candidates)),
	}

	// One catalog load per run; membership tests are against this map.
	existing, err := e.catalog.GetTracksByPath(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	report := &Report{
		Added:     []*music.Track{},
		Removed:   []*music.Track{},
		Unchanged: []*music.Track{},
	}

	for i, path := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if track, ok := existing[path]; ok {
			report.Unchanged = append(report.Unchanged, track)
			delete(existing, path)
		} else {
			track, err := e.addTrack(ctx, path)
			if err != nil {
				// Skipped: the file is invisible to the catalog this run.
				logger.Warn("Engine.Run: skipping file", "path", path, "error", err)
			} else {
				report.Added = append(report.Added, track)
				logger.Debug("Engine.Run: track added", "path", path, "title", track.DisplayTitle())
			}
		}
		events <- Event{
			Status:      "progress",
			Type:        PhaseProcessing,
			Current:     i + 1,
			Total:       len(candidates),
			CurrentFile: path,
			Added:       len(report.Added),
			Removed:     len(report.Removed),
			Unchanged:   len(report.Unchanged),
		}
	}

	// Everything still in the working set has no backing file anymore.
	stale := len(existing)
	for path, track := range existing {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.catalog.DeleteTrack(ctx, track.ID); err != nil {
			logger.Error("Engine.Run: failed to delete stale track", "path", path, "error", err)
			continue
		}
		report.Removed = append(report.Removed, track)
		events <- Event{
			Status:      "progress",
			Type:        PhaseCleanup,
			Current:     len(report.Removed),
			Total:       stale,
			CurrentFile: path,
			Added:       len(report.Added),
			Removed:     len(report.Removed),
			Unchanged:   len(report.Unchanged),
		}
	}

	events <- completeEvent(report)
	logger.Info("Engine.Run: indexing run finished",
		"added", len(report.Added), "removed", len(report.Removed), "unchanged", len(report.Unchanged))
	return report, nil
}

// addTrack extracts metadata for a newly discovered file and inserts it into
// the catalog, resolving its album and artist rows as needed.
func (e *Engine) addTrack(ctx context.Context, path string) (*music.Track, error) {
	tags, err := e.extractor.ReadTags(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	now := time.Now()
	track := &music.Track{
		ID:           uuid.New().String(),
		Path:         path,
		Filename:     filepath.Base(path),
		Title:        tags.Title,
		Artist:       tags.Artist,
		Genre:        tags.Genre,
		Duration:     tags.Duration,
		MIMEType:     MIMETypeForPath(path),
		AddedDate:    now,
		ModifiedDate: now,
	}

	// Artist and album rows are browse-side conveniences; failing to create
	// them does not fail the track insert.
	if tags.Artist != "" {
		if _, err := e.catalog.FindOrCreateArtist(ctx, tags.Artist); err != nil {
			slog.Warn("Engine.addTrack: failed to resolve artist", "artist", tags.Artist, "error", err)
		}
	}
	if tags.Album != "" {
		albumArtist := tags.AlbumArtist
		if albumArtist == "" {
			albumArtist = tags.Artist
		}
		album, err := e.catalog.FindOrCreateAlbum(ctx, tags.Album, albumArtist, tags.Year)
		if err != nil {
			slog.Warn("Engine.addTrack: failed to resolve album", "album", tags.Album, "error", err)
		} else {
			track.AlbumID = album.ID
			if album.CoverPath == "" {
				if cover := findCoverArt(filepath.Dir(path)); cover != "" {
					if err := e.catalog.SetAlbumCover(ctx, album.ID, cover); err != nil {
						slog.Warn("Engine.addTrack: failed to set album cover", "album", tags.Album, "error", err)
					}
				}
			}
		}
	}

	if err := track.Validate(); err != nil {
		return nil, err
	}
	if err := e.catalog.AddTrack(ctx, track); err != nil {
		return nil, fmt.Errorf("store write failed: %w", err)
	}
	return track, nil
}

// findCoverArt looks for a folder image next to a track file.
func findCoverArt(dir string) string {
	for _, name := range coverArtNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}
