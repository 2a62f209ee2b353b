package library

import (
	"context"
	"log/slog"

	"fermata/src/music"
)

// Service is the domain service for browsing the catalog.
type Service struct {
	catalog music.Catalog
}

// NewService creates a new library service.
func NewService(catalog music.Catalog) *Service {
	return &Service{catalog: catalog}
}

// GetTracksPaginated returns one page of tracks plus the catalog total.
func (s *Service) GetTracksPaginated(ctx context.Context, limit, offset int) ([]*music.Track, int, error) {
	slog.Debug("GetTracksPaginated service called", "limit", limit, "offset", offset)
	tracks, err := s.catalog.GetTracksPaginated(ctx, limit, offset)
	if err != nil {
		slog.Error("GetTracksPaginated failed", "error", err)
		return nil, 0, err
	}
	total, err := s.catalog.GetTracksCount(ctx)
	if err != nil {
		slog.Error("GetTracksCount failed", "error", err)
		return nil, 0, err
	}
	slog.Debug("GetTracksPaginated completed", "count", len(tracks), "total", total)
	return tracks, total, nil
}

// GetTrack returns a single track by id.
func (s *Service) GetTrack(ctx context.Context, id string) (*music.Track, error) {
	return s.catalog.GetTrack(ctx, id)
}

// GetTracksCount returns the total number of tracks.
func (s *Service) GetTracksCount(ctx context.Context) (int, error) {
	return s.catalog.GetTracksCount(ctx)
}

// GetAlbumsPaginated returns one page of albums plus the catalog total.
func (s *Service) GetAlbumsPaginated(ctx context.Context, limit, offset int) ([]*music.Album, int, error) {
	slog.Debug("GetAlbumsPaginated service called", "limit", limit, "offset", offset)
	albums, err := s.catalog.GetAlbumsPaginated(ctx, limit, offset)
	if err != nil {
		slog.Error("GetAlbumsPaginated failed", "error", err)
		return nil, 0, err
	}
	total, err := s.catalog.GetAlbumsCount(ctx)
	if err != nil {
		slog.Error("GetAlbumsCount failed", "error", err)
		return nil, 0, err
	}
	return albums, total, nil
}

// GetAlbum returns a single album by id.
func (s *Service) GetAlbum(ctx context.Context, id string) (*music.Album, error) {
	return s.catalog.GetAlbum(ctx, id)
}

// GetAlbumsCount returns the total number of albums.
func (s *Service) GetAlbumsCount(ctx context.Context) (int, error) {
	return s.catalog.GetAlbumsCount(ctx)
}

// GetArtistsPaginated returns one page of artists plus the catalog total.
func (s *Service) GetArtistsPaginated(ctx context.Context, limit, offset int) ([]*music.Artist, int, error) {
	slog.Debug("GetArtistsPaginated service called", "limit", limit, "offset", offset)
	artists, err := s.catalog.GetArtistsPaginated(ctx, limit, offset)
	if err != nil {
		slog.Error("GetArtistsPaginated failed", "error", err)
		return nil, 0, err
	}
	total, err := s.catalog.GetArtistsCount(ctx)
	if err != nil {
		slog.Error("GetArtistsCount failed", "error", err)
		return nil, 0, err
	}
	return artists, total, nil
}

// GetArtist returns a single artist by id.
func (s *Service) GetArtist(ctx context.Context, id string) (*music.Artist, error) {
	return s.catalog.GetArtist(ctx, id)
}

// GetArtistsCount returns the total number of artists.
func (s *Service) GetArtistsCount(ctx context.Context) (int, error) {
	return s.catalog.GetArtistsCount(ctx)
}

// GetPlayCount returns how many times a track has been fully delivered.
func (s *Service) GetPlayCount(ctx context.Context, trackID string) (int, error) {
	if _, err := s.catalog.GetTrack(ctx, trackID); err != nil {
		return 0, err
	}
	return s.catalog.GetPlayCount(ctx, trackID)
}
