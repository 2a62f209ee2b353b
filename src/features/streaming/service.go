package streaming

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fermata/src/features/metrics"
	"fermata/src/music"
)

// AssetKind distinguishes the streamable resources the catalog can resolve.
type AssetKind string

const (
	AssetTrack            AssetKind = "track"
	AssetAlbumCover       AssetKind = "album_cover"
	AssetArtistImage      AssetKind = "artist_image"
	AssetArtistBackground AssetKind = "artist_background"
)

var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Asset is a resolved streamable file: its on-disk location, content type
// and size, verified to exist at resolution time.
type Asset struct {
	Kind     AssetKind
	Path     string
	MIMEType string
	Size     int64
	TrackID  string
}

// Service resolves catalog entities to streamable assets and opens bounded
// readers over them.
type Service struct {
	catalog   music.Catalog
	chunkSize int
}

// NewService creates a new streaming service. chunkSize is the disk read
// buffer for file delivery.
func NewService(catalog music.Catalog, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	return &Service{catalog: catalog, chunkSize: chunkSize}
}

// ResolveTrack resolves a track id to its audio file. music.ErrNotFound
// covers both a missing catalog row and a catalog row whose backing file
// has disappeared from disk.
func (s *Service) ResolveTrack(ctx context.Context, id string) (*Asset, error) {
	track, err := s.catalog.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolveFile(AssetTrack, track.Path, track.MIMEType, track.ID)
}

// ResolveAlbumCover resolves an album id to its cover image.
func (s *Service) ResolveAlbumCover(ctx context.Context, id string) (*Asset, error) {
	album, err := s.catalog.GetAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	if album.CoverPath == "" {
		return nil, music.ErrNotFound
	}
	return s.resolveFile(AssetAlbumCover, album.CoverPath, "", "")
}

// ResolveArtistImage resolves an artist id to its portrait image.
func (s *Service) ResolveArtistImage(ctx context.Context, id string) (*Asset, error) {
	artist, err := s.catalog.GetArtist(ctx, id)
	if err != nil {
		return nil, err
	}
	if artist.ImagePath == "" {
		return nil, music.ErrNotFound
	}
	return s.resolveFile(AssetArtistImage, artist.ImagePath, "", "")
}

// ResolveArtistBackground resolves an artist id to its background image.
func (s *Service) ResolveArtistBackground(ctx context.Context, id string) (*Asset, error) {
	artist, err := s.catalog.GetArtist(ctx, id)
	if err != nil {
		return nil, err
	}
	if artist.BackgroundPath == "" {
		return nil, music.ErrNotFound
	}
	return s.resolveFile(AssetArtistBackground, artist.BackgroundPath, "", "")
}

func (s *Service) resolveFile(kind AssetKind, path, mimeType, trackID string) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		slog.Warn("Service.resolveFile: catalog entry has no backing file", "path", path, "error", err)
		return nil, music.ErrNotFound
	}

	if mimeType == "" {
		mimeType = imageMIMETypes[strings.ToLower(filepath.Ext(path))]
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
	}

	return &Asset{
		Kind:     kind,
		Path:     path,
		MIMEType: mimeType,
		Size:     info.Size(),
		TrackID:  trackID,
	}, nil
}

// Open returns a reader over the asset bounded by rng (the whole file when
// rng is nil). The reader is handed to the response body verbatim; it reads
// lazily so a slow client throttles disk reads, and closing it mid-stream
// releases the file handle. When a track's final byte is fully delivered a
// play count increment fires in the background.
func (s *Service) Open(asset *Asset, rng *ByteRange) (io.ReadCloser, error) {
	file, err := os.Open(asset.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", asset.Path, err)
	}

	start, length := int64(0), asset.Size
	if rng != nil {
		start, length = rng.Start, rng.Length()
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to seek to %d: %w", start, err)
		}
	}

	reader := &boundedReader{
		src:       bufio.NewReaderSize(file, s.chunkSize),
		file:      file,
		remaining: length,
	}
	if asset.Kind == AssetTrack && start+length == asset.Size {
		trackID := asset.TrackID
		reader.onComplete = func() { s.recordPlay(trackID) }
	}
	return reader, nil
}

// recordPlay increments the play count for a fully delivered track. Errors
// are logged only; playback already succeeded from the client's view.
func (s *Service) recordPlay(trackID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.catalog.IncrementPlayCount(ctx, trackID); err != nil {
		slog.Error("Service.recordPlay: failed to increment play count", "trackID", trackID, "error", err)
		return
	}
	metrics.PlaysRecorded.Inc()
}

// boundedReader reads at most remaining bytes from the file and fires
// onComplete once, in the background, when the span is fully drained.
type boundedReader struct {
	src        io.Reader
	file       *os.File
	remaining  int64
	onComplete func()
	fired      bool
}

func (r *boundedReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		r.fire()
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := r.src.Read(p)
	r.remaining -= int64(n)
	metrics.StreamedBytes.Add(float64(n))
	if r.remaining == 0 {
		r.fire()
	}
	return n, err
}

func (r *boundedReader) Close() error {
	return r.file.Close()
}

func (r *boundedReader) fire() {
	if r.fired || r.onComplete == nil {
		return
	}
	r.fired = true
	go r.onComplete()
}
