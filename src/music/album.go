package music

import (
	"fmt"
	"strings"
	"time"
)

// Album represents a collection of tracks. Identity is the (title, artist)
// tuple; albums are created implicitly during indexing when a track
// references a title/artist pair not yet known.
type Album struct {
	ID           string
	Title        string
	Artist       string
	Year         int
	CoverPath    string
	AddedDate    time.Time
	ModifiedDate time.Time
}

// Validate validates the album fields.
func (a *Album) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("album title cannot be empty")
	}
	if len(a.Title) > 500 {
		return fmt.Errorf("album title cannot exceed 500 characters")
	}
	if len(a.Artist) > 500 {
		return fmt.Errorf("album artist cannot exceed 500 characters")
	}
	if a.Year < 0 {
		return fmt.Errorf("year cannot be negative, got %d", a.Year)
	}
	if a.CoverPath != "" && len(a.CoverPath) > 1000 {
		return fmt.Errorf("cover path cannot exceed 1000 characters")
	}
	return nil
}
