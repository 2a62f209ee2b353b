package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fermata/src/music"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteCatalog is a SQLite implementation of the Catalog interface.
type SqliteCatalog struct {
	db *sql.DB
}

// NewSqliteCatalog creates a new SqliteCatalog backed by the file at path.
func NewSqliteCatalog(path string) (*SqliteCatalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &SqliteCatalog{db: db}, nil
}

// Close closes the underlying database handle.
func (d *SqliteCatalog) Close() error {
	return d.db.Close()
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS artists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			image_path TEXT,
			background_path TEXT
		);

		CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			year INTEGER,
			cover_path TEXT,
			added_date TEXT,
			modified_date TEXT,
			UNIQUE(title, artist)
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			filename TEXT NOT NULL,
			title TEXT,
			artist TEXT,
			album_id TEXT,
			genre TEXT,
			duration REAL,
			mime_type TEXT,
			added_date TEXT,
			modified_date TEXT,
			FOREIGN KEY (album_id) REFERENCES albums(id)
		);

		CREATE TABLE IF NOT EXISTS play_counts (
			track_id TEXT PRIMARY KEY,
			plays INTEGER NOT NULL DEFAULT 0,
			last_played_at TEXT,
			FOREIGN KEY (track_id) REFERENCES tracks(id)
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id);
		CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist);
		CREATE INDEX IF NOT EXISTS idx_albums_artist ON albums(artist);
	`)
	return err
}

const trackColumns = `id, path, filename, title, artist, album_id, genre, duration, mime_type, added_date, modified_date`

func scanTrack(row interface{ Scan(dest ...any) error }) (*music.Track, error) {
	track := &music.Track{}
	var title, artist, albumID, genre, mimeType sql.NullString
	var duration sql.NullFloat64
	var addedDateStr, modifiedDateStr string

	err := row.Scan(&track.ID, &track.Path, &track.Filename, &title, &artist,
		&albumID, &genre, &duration, &mimeType, &addedDateStr, &modifiedDateStr)
	if err != nil {
		return nil, err
	}

	track.Title = title.String
	track.Artist = artist.String
	track.AlbumID = albumID.String
	track.Genre = genre.String
	track.Duration = duration.Float64
	track.MIMEType = mimeType.String
	track.AddedDate, _ = time.Parse(time.RFC3339, addedDateStr)
	track.ModifiedDate, _ = time.Parse(time.RFC3339, modifiedDateStr)
	return track, nil
}

// nullString maps empty strings to NULL so absent tag values stay absent in
// the store instead of becoming empty strings.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f > 0}
}

// AddTrack adds a track to the database.
func (d *SqliteCatalog) AddTrack(ctx context.Context, track *music.Track) error {
	if err := track.Validate(); err != nil {
		slog.Error("AddTrack: validation failed", "error", err, "trackID", track.ID)
		return err
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tracks (id, path, filename, title, artist, album_id, genre, duration, mime_type, added_date, modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, track.ID, track.Path, track.Filename, nullString(track.Title), nullString(track.Artist),
		nullString(track.AlbumID), nullString(track.Genre), nullFloat(track.Duration),
		nullString(track.MIMEType), track.AddedDate.Format(time.RFC3339), track.ModifiedDate.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}
	return nil
}

// GetTrack retrieves a track by its ID.
func (d *SqliteCatalog) GetTrack(ctx context.Context, id string) (*music.Track, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	return track, nil
}

// FindTrackByPath retrieves a track by its absolute file path.
func (d *SqliteCatalog) FindTrackByPath(ctx context.Context, path string) (*music.Track, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE path = ?`, path)
	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	return track, nil
}

// GetTracks retrieves all tracks ordered by path.
func (d *SqliteCatalog) GetTracks(ctx context.Context) ([]*music.Track, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*music.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// GetTracksPaginated retrieves a page of tracks ordered by artist and title.
func (d *SqliteCatalog) GetTracksPaginated(ctx context.Context, limit, offset int) ([]*music.Track, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+trackColumns+` FROM tracks
		ORDER BY artist COLLATE NOCASE, title COLLATE NOCASE, filename
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*music.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// GetTracksCount returns the total number of tracks in the catalog.
func (d *SqliteCatalog) GetTracksCount(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks").Scan(&count)
	return count, err
}

// GetTracksByPath returns the whole catalog keyed by path.
func (d *SqliteCatalog) GetTracksByPath(ctx context.Context) (map[string]*music.Track, error) {
	tracks, err := d.GetTracks(ctx)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]*music.Track, len(tracks))
	for _, track := range tracks {
		byPath[track.Path] = track
	}
	return byPath, nil
}

// DeleteTrack removes a track and its play counts.
func (d *SqliteCatalog) DeleteTrack(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM play_counts WHERE track_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete play counts: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return music.ErrNotFound
	}
	return tx.Commit()
}

func scanAlbum(row interface{ Scan(dest ...any) error }) (*music.Album, error) {
	album := &music.Album{}
	var year sql.NullInt64
	var coverPath sql.NullString
	var addedDateStr, modifiedDateStr string

	err := row.Scan(&album.ID, &album.Title, &album.Artist, &year, &coverPath, &addedDateStr, &modifiedDateStr)
	if err != nil {
		return nil, err
	}

	album.Year = int(year.Int64)
	album.CoverPath = coverPath.String
	album.AddedDate, _ = time.Parse(time.RFC3339, addedDateStr)
	album.ModifiedDate, _ = time.Parse(time.RFC3339, modifiedDateStr)
	return album, nil
}

const albumColumns = `id, title, artist, year, cover_path, added_date, modified_date`

// GetAlbum retrieves an album by its ID.
func (d *SqliteCatalog) GetAlbum(ctx context.Context, id string) (*music.Album, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)
	album, err := scanAlbum(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	return album, nil
}

// GetAlbumsPaginated retrieves a page of albums ordered by artist and title.
func (d *SqliteCatalog) GetAlbumsPaginated(ctx context.Context, limit, offset int) ([]*music.Album, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+albumColumns+` FROM albums
		ORDER BY artist COLLATE NOCASE, title COLLATE NOCASE
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*music.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

// GetAlbumsCount returns the total number of albums in the catalog.
func (d *SqliteCatalog) GetAlbumsCount(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM albums").Scan(&count)
	return count, err
}

// FindOrCreateAlbum looks up an album by its (title, artist) identity,
// creating it when missing. Concurrent creation of the same identity is
// resolved by the UNIQUE constraint plus a re-read.
func (d *SqliteCatalog) FindOrCreateAlbum(ctx context.Context, title, artist string, year int) (*music.Album, error) {
	album, err := d.getAlbumByIdentity(ctx, title, artist)
	if err == nil {
		return album, nil
	}
	if err != music.ErrNotFound {
		return nil, err
	}

	now := time.Now()
	album = &music.Album{
		ID:           uuid.New().String(),
		Title:        title,
		Artist:       artist,
		Year:         year,
		AddedDate:    now,
		ModifiedDate: now,
	}
	if err := album.Validate(); err != nil {
		return nil, err
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO albums (id, title, artist, year, cover_path, added_date, modified_date)
		VALUES (?, ?, ?, ?, NULL, ?, ?)
		ON CONFLICT(title, artist) DO NOTHING
	`, album.ID, album.Title, album.Artist, album.Year,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to insert album: %w", err)
	}
	return d.getAlbumByIdentity(ctx, title, artist)
}

func (d *SqliteCatalog) getAlbumByIdentity(ctx context.Context, title, artist string) (*music.Album, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE title = ? AND artist = ?`, title, artist)
	album, err := scanAlbum(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	return album, nil
}

// SetAlbumCover records the path of a cover image for an album.
func (d *SqliteCatalog) SetAlbumCover(ctx context.Context, id, coverPath string) error {
	result, err := d.db.ExecContext(ctx, `
		UPDATE albums SET cover_path = ?, modified_date = ? WHERE id = ?
	`, coverPath, time.Now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to set album cover: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return music.ErrNotFound
	}
	return nil
}

func scanArtist(row interface{ Scan(dest ...any) error }) (*music.Artist, error) {
	artist := &music.Artist{}
	var imagePath, backgroundPath sql.NullString
	err := row.Scan(&artist.ID, &artist.Name, &imagePath, &backgroundPath)
	if err != nil {
		return nil, err
	}
	artist.ImagePath = imagePath.String
	artist.BackgroundPath = backgroundPath.String
	return artist, nil
}

// GetArtist retrieves an artist by its ID.
func (d *SqliteCatalog) GetArtist(ctx context.Context, id string) (*music.Artist, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, name, image_path, background_path FROM artists WHERE id = ?`, id)
	artist, err := scanArtist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	return artist, nil
}

// GetArtistsPaginated retrieves a page of artists ordered by name.
func (d *SqliteCatalog) GetArtistsPaginated(ctx context.Context, limit, offset int) ([]*music.Artist, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, image_path, background_path FROM artists
		ORDER BY name COLLATE NOCASE
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []*music.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

// GetArtistsCount returns the total number of artists in the catalog.
func (d *SqliteCatalog) GetArtistsCount(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM artists").Scan(&count)
	return count, err
}

// FindOrCreateArtist looks up an artist by name, creating it when missing.
func (d *SqliteCatalog) FindOrCreateArtist(ctx context.Context, name string) (*music.Artist, error) {
	artist, err := d.getArtistByName(ctx, name)
	if err == nil {
		return artist, nil
	}
	if err != music.ErrNotFound {
		return nil, err
	}

	artist = &music.Artist{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := artist.Validate(); err != nil {
		return nil, err
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO artists (id, name) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, artist.ID, artist.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert artist: %w", err)
	}
	return d.getArtistByName(ctx, name)
}

func (d *SqliteCatalog) getArtistByName(ctx context.Context, name string) (*music.Artist, error) {
	row := d.db.QueryRowContext(ctx, `SELECT id, name, image_path, background_path FROM artists WHERE name = ?`, name)
	artist, err := scanArtist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	return artist, nil
}

// IncrementPlayCount bumps the play count of a track by one.
func (d *SqliteCatalog) IncrementPlayCount(ctx context.Context, trackID string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO play_counts (track_id, plays, last_played_at) VALUES (?, 1, ?)
		ON CONFLICT(track_id) DO UPDATE SET plays = plays + 1, last_played_at = excluded.last_played_at
	`, trackID, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to increment play count: %w", err)
	}
	return nil
}

// GetPlayCount returns the play count of a track, zero when never played.
func (d *SqliteCatalog) GetPlayCount(ctx context.Context, trackID string) (int, error) {
	var plays int
	err := d.db.QueryRowContext(ctx, `SELECT plays FROM play_counts WHERE track_id = ?`, trackID).Scan(&plays)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return plays, err
}

// GetGenreDistribution returns the distribution of tracks by genre.
func (d *SqliteCatalog) GetGenreDistribution(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT COALESCE(genre, 'Unknown') as genre, COUNT(*) as count
		FROM tracks
		GROUP BY genre
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	distribution := make(map[string]int)
	for rows.Next() {
		var genre string
		var count int
		if err := rows.Scan(&genre, &count); err != nil {
			return nil, err
		}
		distribution[genre] = count
	}
	return distribution, rows.Err()
}

// GetFormatDistribution returns the distribution of tracks by MIME type.
func (d *SqliteCatalog) GetFormatDistribution(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT COALESCE(mime_type, 'Unknown') as mime_type, COUNT(*) as count
		FROM tracks
		GROUP BY mime_type
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	distribution := make(map[string]int)
	for rows.Next() {
		var mimeType string
		var count int
		if err := rows.Scan(&mimeType, &count); err != nil {
			return nil, err
		}
		distribution[mimeType] = count
	}
	return distribution, rows.Err()
}

// GetYearDistribution returns the distribution of albums by release year.
func (d *SqliteCatalog) GetYearDistribution(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT year, COUNT(*) as count
		FROM albums
		WHERE year > 0
		GROUP BY year
		ORDER BY year DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	distribution := make(map[string]int)
	for rows.Next() {
		var year, count int
		if err := rows.Scan(&year, &count); err != nil {
			return nil, err
		}
		distribution[fmt.Sprintf("%d", year)] = count
	}
	return distribution, rows.Err()
}

// GetTotalPlays returns the sum of all play counts.
func (d *SqliteCatalog) GetTotalPlays(ctx context.Context) (int, error) {
	var total int
	err := d.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(plays), 0) FROM play_counts").Scan(&total)
	return total, err
}
