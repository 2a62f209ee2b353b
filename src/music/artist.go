package music

import (
	"fmt"
	"strings"
)

// UnknownArtistName is used for tracks whose tags carry no artist.
const UnknownArtistName = "Unknown Artist"

// Artist represents a music artist.
type Artist struct {
	ID             string
	Name           string
	ImagePath      string
	BackgroundPath string
}

// Validate validates the artist fields.
func (a *Artist) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("artist name cannot be empty")
	}
	if len(a.Name) > 500 {
		return fmt.Errorf("artist name cannot exceed 500 characters")
	}
	return nil
}
