package music

import (
	"fmt"
	"strings"
	"time"
)

// Track represents a single audio file known to the catalog. Its identity is
// the absolute file path, which is unique across the catalog and stable
// across re-indexing runs. Title, Artist, Genre and Duration are zero-valued
// when tag extraction yielded nothing; Path and Filename are always present.
type Track struct {
	ID           string
	Path         string
	Filename     string
	Title        string
	Artist       string
	AlbumID      string
	Genre        string
	Duration     float64 // seconds
	MIMEType     string
	AddedDate    time.Time
	ModifiedDate time.Time
}

// Validate validates the track fields.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("track path cannot be empty")
	}
	if len(t.Path) > 1000 {
		return fmt.Errorf("track path cannot exceed 1000 characters, got %d: path -> %s", len(t.Path), t.Path)
	}
	if strings.TrimSpace(t.Filename) == "" {
		return fmt.Errorf("track filename cannot be empty")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title cannot exceed 500 characters, got %d: title -> %s", len(t.Title), t.Title)
	}
	if len(t.Artist) > 500 {
		return fmt.Errorf("artist cannot exceed 500 characters, got %d: artist -> %s", len(t.Artist), t.Artist)
	}
	if t.Duration < 0 {
		return fmt.Errorf("duration cannot be negative, got %f", t.Duration)
	}
	if t.Genre != "" && len(t.Genre) > 100 {
		t.Genre = t.Genre[:100]
	}
	if t.MIMEType != "" && len(t.MIMEType) > 100 {
		return fmt.Errorf("mime type cannot exceed 100 characters, got %d", len(t.MIMEType))
	}
	return nil
}

// DisplayTitle returns the tag title, falling back to the filename when the
// file carried no usable tags.
func (t *Track) DisplayTitle() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return t.Filename
}
