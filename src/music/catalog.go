package music

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a catalog lookup matches no row.
var ErrNotFound = errors.New("not found in catalog")

// Catalog is the interface for the relational record of known tracks,
// albums and artists. It's our primary repository interface for the domain.
// All mutations are single-row atomic operations; no cross-request locking
// is required beyond what the store provides natively.
type Catalog interface {
	// Track methods
	AddTrack(ctx context.Context, track *Track) error
	GetTrack(ctx context.Context, id string) (*Track, error)
	FindTrackByPath(ctx context.Context, path string) (*Track, error)
	GetTracks(ctx context.Context) ([]*Track, error)
	GetTracksPaginated(ctx context.Context, limit, offset int) ([]*Track, error)
	GetTracksCount(ctx context.Context) (int, error)
	// GetTracksByPath returns the whole catalog keyed by path, loaded once
	// per indexing run for O(1) membership tests.
	GetTracksByPath(ctx context.Context) (map[string]*Track, error)
	DeleteTrack(ctx context.Context, id string) error

	// Album methods
	GetAlbum(ctx context.Context, id string) (*Album, error)
	GetAlbumsPaginated(ctx context.Context, limit, offset int) ([]*Album, error)
	GetAlbumsCount(ctx context.Context) (int, error)
	FindOrCreateAlbum(ctx context.Context, title, artist string, year int) (*Album, error)
	SetAlbumCover(ctx context.Context, id, coverPath string) error

	// Artist methods
	GetArtist(ctx context.Context, id string) (*Artist, error)
	GetArtistsPaginated(ctx context.Context, limit, offset int) ([]*Artist, error)
	GetArtistsCount(ctx context.Context) (int, error)
	FindOrCreateArtist(ctx context.Context, name string) (*Artist, error)

	// Play counts
	IncrementPlayCount(ctx context.Context, trackID string) error
	GetPlayCount(ctx context.Context, trackID string) (int, error)
}
